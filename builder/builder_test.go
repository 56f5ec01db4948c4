package builder

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFromJSONScalars( t *testing.T ) {
	obj, err := FromJSON( strings.NewReader( `42` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	if obj != Int( 42 ) {
		t.Fatalf( "got %#v, want Int(42)", obj )
	}

	obj, err = FromJSON( strings.NewReader( `3.5` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	if obj != Float( 3.5 ) {
		t.Fatalf( "got %#v, want Float(3.5)", obj )
	}

	obj, err = FromJSON( strings.NewReader( `"hello"` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	if obj != String( "hello" ) {
		t.Fatalf( "got %#v, want String(\"hello\")", obj )
	}

	obj, err = FromJSON( strings.NewReader( `true` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	if obj != Bool( true ) {
		t.Fatalf( "got %#v, want Bool(true)", obj )
	}
}

func TestFromJSONLargeUnsigned( t *testing.T ) {
	obj, err := FromJSON( strings.NewReader( `18446744073709551615` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	if obj != UInt( 18446744073709551615 ) {
		t.Fatalf( "got %#v, want UInt(math.MaxUint64)", obj )
	}
}

func TestFromJSONDictAndArray( t *testing.T ) {
	obj, err := FromJSON( strings.NewReader( `{"a": 1, "b": [true, "x"]}` ) )
	if err != nil {
		t.Fatalf( "FromJSON: %v", err )
	}
	dict, ok := obj.( Dict )
	if !ok {
		t.Fatalf( "got %#v, want Dict", obj )
	}
	if dict[ "a" ] != Int( 1 ) {
		t.Fatalf( "dict[a] = %#v, want Int(1)", dict[ "a" ] )
	}
	arr, ok := dict[ "b" ].( Array )
	if !ok || len( arr ) != 2 {
		t.Fatalf( "dict[b] = %#v, want 2-element Array", dict[ "b" ] )
	}
	if arr[ 0 ] != Bool( true ) || arr[ 1 ] != String( "x" ) {
		t.Fatalf( "unexpected array contents: %#v", arr )
	}
}

func TestDictMarshalsAsJSONObject( t *testing.T ) {
	d := NewDict()
	d[ "value" ] = Float( 2.5 )
	d[ "ok" ] = Bool( true )

	blob, err := json.Marshal( d )
	if err != nil {
		t.Fatalf( "Marshal: %v", err )
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal( blob, &decoded ); err != nil {
		t.Fatalf( "Unmarshal: %v", err )
	}
	if decoded[ "value" ] != 2.5 || decoded[ "ok" ] != true {
		t.Fatalf( "unexpected round trip: %#v", decoded )
	}
}

func TestFromJSONRejectsMalformedJSON( t *testing.T ) {
	if _, err := FromJSON( strings.NewReader( `{"a": }` ) ); err == nil {
		t.Fatalf( "expected malformed JSON to fail" )
	}
}
