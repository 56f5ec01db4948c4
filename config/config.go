/*
Copyright (c) 2017 Alexander Klauer

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package config provides the typed configuration map the container hands
// to component factories, and the loader that produces it from JSON text.
package config

import(
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Map is a parsed configuration object: component-level config, or the
// container-level name→type mapping before it's narrowed to a plain
// map[string]string.
type Map map[string]interface{}

// Parse parses JSON text into a Map, preserving the original key
// casing. This deliberately does not route through viper the way the
// teacher's getConfig() did: viper.AllSettings()/AllKeys() lower-case
// every key (insensitiviseMap), which silently breaks every
// capitalized lookup this package's own callers depend on (Logger,
// Affinity, Priority, Library, Factory, and deviceapi's entire
// configuration surface). encoding/json has no such behavior.
func Parse( jsonText string ) ( Map, error ) {
	var m map[string]interface{}
	if err := json.Unmarshal( []byte( jsonText ), &m ); err != nil {
		return nil, fmt.Errorf( "parsing configuration: %w", err )
	}
	return Map( m ), nil
}

// SubMap gets a nested configuration object by name.
func ( c Map ) SubMap( name string ) ( Map, error ) {
	item, ok := c[name]
	if !ok {
		return nil, fmt.Errorf( "subconfiguration '%s' not found", name )
	}
	switch v := item.( type ) {
	case Map:
		return v, nil
	case map[string]interface{}:
		return Map( v ), nil
	default:
		return nil, fmt.Errorf( "item '%s' is not a subconfiguration", name )
	}
}

// BoolOrDefault gets a boolean value, or a default if absent.
func ( c Map ) BoolOrDefault( name string, dflt bool ) ( bool, error ) {
	item, ok := c[name]
	if !ok {
		return dflt, nil
	}
	result, err := cast.ToBoolE( item )
	if err != nil {
		return false, fmt.Errorf( "item '%s' is not a boolean", name )
	}
	return result, nil
}

// Int gets a required integer value.
func ( c Map ) Int( name string ) ( int, error ) {
	item, ok := c[name]
	if !ok {
		return 0, fmt.Errorf( "integer '%s' not found", name )
	}
	result, err := cast.ToIntE( item )
	if err != nil {
		return 0, fmt.Errorf( "item '%s' is not an integer", name )
	}
	return result, nil
}

// IntOrDefault gets an integer value, or a default if absent.
func ( c Map ) IntOrDefault( name string, dflt int ) ( int, error ) {
	item, ok := c[name]
	if !ok {
		return dflt, nil
	}
	result, err := cast.ToIntE( item )
	if err != nil {
		return 0, fmt.Errorf( "item '%s' is not an integer", name )
	}
	return result, nil
}

// UInt8OrDefault gets an unsigned 8-bit integer value, or a default if
// absent.
func ( c Map ) UInt8OrDefault( name string, dflt uint8 ) ( uint8, error ) {
	item, ok := c[name]
	if !ok {
		return dflt, nil
	}
	result, err := cast.ToUint8E( item )
	if err != nil {
		return 0, fmt.Errorf( "item '%s' is not an unsigned 8-bit integer", name )
	}
	return result, nil
}

// UInt16 gets a required unsigned 16-bit integer value.
func ( c Map ) UInt16( name string ) ( uint16, error ) {
	item, ok := c[name]
	if !ok {
		return 0, fmt.Errorf( "unsigned 16-bit integer '%s' not found", name )
	}
	result, err := cast.ToUint16E( item )
	if err != nil {
		return 0, fmt.Errorf( "item '%s' is not an unsigned 16-bit integer", name )
	}
	return result, nil
}

// String gets a required string value.
func ( c Map ) String( name string ) ( string, error ) {
	item, ok := c[name]
	if !ok {
		return "", fmt.Errorf( "string '%s' not found", name )
	}
	result, ok := item.( string )
	if !ok {
		return "", fmt.Errorf( "item '%s' is not a string", name )
	}
	return result, nil
}

// StringOrDefault gets a string value, or a default if absent.
func ( c Map ) StringOrDefault( name string, dflt string ) ( string, error ) {
	if _, ok := c[name]; !ok {
		return dflt, nil
	}
	return c.String( name )
}

// DurationOrDefault gets a duration value (parsed from a Go duration
// string), or a default if absent.
func ( c Map ) DurationOrDefault( name string, dflt time.Duration ) ( time.Duration, error ) {
	item, ok := c[name]
	if !ok {
		return dflt, nil
	}
	durationString, ok := item.( string )
	if !ok {
		return 0, errors.New( "duration must be a string" )
	}
	result, err := time.ParseDuration( durationString )
	if err != nil {
		return 0, fmt.Errorf( "duration '%s' string '%s' invalid: %w", name, durationString, err )
	}
	return result, nil
}
