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

package builder

import(
	"encoding/json"
	"fmt"
)

// Dict is a named builder object.
type Dict map[string]Object

// NewDict returns an empty Dict.
func NewDict() Dict {
	return Dict{}
}

// dictFromJSON constructs a dictionary from a JSON value. The decoder
// must be positioned just past the opening '{' delimiter; the caller
// consumes the closing '}'.
func dictFromJSON( decoder *json.Decoder ) ( Dict, error ) {
	result := NewDict()
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf( "Unable to obtain JSON token for dictionary key: %v", err )
		}
		key, ok := keyToken.( string )
		if !ok {
			return nil, fmt.Errorf( "Dictionary key is not a string: %v", keyToken )
		}
		value, err := objectFromJSON( decoder )
		if err != nil {
			return nil, fmt.Errorf( "Unable to construct dictionary entry '%s': %v", key, err )
		}
		result[key] = value
	}

	return result, nil
}
