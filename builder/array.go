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

// Array is an ordered builder object.
type Array []Object

// NewArray returns an empty Array.
func NewArray() Array {
	return Array{}
}

// arrayFromJSON constructs an array from a JSON value. The decoder must
// be positioned just past the opening '[' delimiter; the caller consumes
// the closing ']'.
func arrayFromJSON( decoder *json.Decoder ) ( Array, error ) {
	result := NewArray()
	for decoder.More() {
		item, err := objectFromJSON( decoder )
		if err != nil {
			return nil, fmt.Errorf( "Unable to construct array element %d: %v", len( result ), err )
		}
		result = append( result, item )
	}

	return result, nil
}
