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

package deviceapi

import (
	"fmt"
	"math"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/builder"
	"github.com/eaton-coreymutter/iotech-c-utils/config"
)

const (
	kBitfield = "bitfield"
	kBitmap   = "bitmap"
	kInt16    = "int16"
	kLength   = "length"
	kNumber   = "number"
	kOffset   = "offset"
	kScaler   = "scaler"
	kTime     = "time"
	kType     = "type"
	kUInt16   = "uint16"
	kValue    = "value"
	kValues   = "values"
)

// valueCodec knows how to decode raw register bytes into a builder.Dict
// and, in reverse, encode a configured value back into register bytes
// for a write command.
type valueCodec struct {
	// size is the size of the encoded value in bytes. Zero means
	// variable size, governed by a "length" configuration key in bits.
	size uint

	decode func(data []byte, conf config.Map, lengthBits uint) (builder.Dict, error)
	encode func(value builder.Object, conf config.Map, lengthBits uint) ([]byte, error)
}

var valueCodecs = map[string]valueCodec{
	kBitfield: {0, decodeBitfield, encodeBitfield},
	kInt16:    {2, decodeInt16, encodeInt16},
	kUInt16:   {2, decodeUInt16, encodeUInt16},
}

func decodeBitfield(data []byte, conf config.Map, lengthBits uint) (builder.Dict, error) {
	result := builder.NewDict()
	result[kType] = builder.String(kBitfield)
	result[kLength] = builder.UInt(uint64(lengthBits))
	bitmap := builder.NewDict()
	rawBitmap := conf[kBitmap]
	names, err := conf.SubMap(kBitmap)
	delete(conf, kBitmap)
	if err != nil {
		// bitmap may be a plain list of names rather than a map; accept
		// either, indexed positionally.
		list, ok := rawBitmap.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unable to get bitmap for bitfield: %v", err)
		}
		for i, item := range list {
			if uint(i) >= lengthBits {
				return nil, fmt.Errorf("bitmap entry %d out of bounds (length %d)", i, lengthBits)
			}
			if item == nil {
				continue
			}
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("bitmap entry name must be a string: %v", item)
			}
			bitmap[name] = builder.Bool((data[i/8] & (1 << (uint(i) % 8))) != 0)
		}
		result[kValue] = bitmap
		return result, nil
	}
	for name := range names {
		idx, err := names.Int(name)
		if err != nil {
			return nil, fmt.Errorf("bitmap entry %q must have an integer bit index: %v", name, err)
		}
		if uint(idx) >= lengthBits {
			return nil, fmt.Errorf("bitmap entry %q index %d out of bounds (length %d)", name, idx, lengthBits)
		}
		bitmap[name] = builder.Bool((data[idx/8] & (1 << (uint(idx) % 8))) != 0)
	}
	result[kValue] = bitmap

	return result, nil
}

func encodeBitfield(value builder.Object, conf config.Map, lengthBits uint) ([]byte, error) {
	dict, ok := value.(builder.Dict)
	if !ok {
		return nil, fmt.Errorf("bitfield write value must be an object of bit name -> bool")
	}
	names, err := conf.SubMap(kBitmap)
	if err != nil {
		return nil, fmt.Errorf("unable to get bitmap for bitfield: %v", err)
	}
	data := make([]byte, (lengthBits+7)/8)
	for name := range names {
		idx, err := names.Int(name)
		if err != nil {
			return nil, fmt.Errorf("bitmap entry %q must have an integer bit index: %v", name, err)
		}
		set, ok := dict[name]
		if !ok {
			continue
		}
		b, ok := set.(builder.Bool)
		if !ok {
			return nil, fmt.Errorf("bit %q value must be a boolean", name)
		}
		if b {
			data[idx/8] |= 1 << (uint(idx) % 8)
		}
	}

	return data, nil
}

func decodeInt16(data []byte, conf config.Map, _ uint) (builder.Dict, error) {
	scalerF, err := floatOrDefault(conf, kScaler, 1.0)
	if err != nil {
		return nil, fmt.Errorf("unable to obtain scaler for 16 bit integer: %v", err)
	}
	delete(conf, kScaler)
	hw := (uint16(data[0]) << 8) | uint16(data[1])
	var value float64
	if (hw & 0x8000) != 0 {
		value = -float64(^hw) - 1.0
	} else {
		value = float64(hw)
	}
	result := builder.NewDict()
	result[kType] = builder.String(kNumber)
	result[kValue] = builder.Float(value * scalerF)

	return result, nil
}

func encodeInt16(value builder.Object, conf config.Map, _ uint) ([]byte, error) {
	scalerF, err := floatOrDefault(conf, kScaler, 1.0)
	if err != nil {
		return nil, fmt.Errorf("unable to obtain scaler for 16 bit integer: %v", err)
	}
	f, ok := value.(builder.Float)
	if !ok {
		if i, ok := value.(builder.Int); ok {
			f = builder.Float(i)
		} else {
			return nil, fmt.Errorf("16 bit integer write value must be a number")
		}
	}
	scaled := int16(math.Round(float64(f) / scalerF))
	return []byte{byte(uint16(scaled) >> 8), byte(uint16(scaled))}, nil
}

func decodeUInt16(data []byte, conf config.Map, _ uint) (builder.Dict, error) {
	scalerF, err := floatOrDefault(conf, kScaler, 1.0)
	if err != nil {
		return nil, fmt.Errorf("unable to obtain scaler for 16 bit unsigned integer: %v", err)
	}
	delete(conf, kScaler)
	value := float64((uint16(data[0]) << 8) | uint16(data[1]))
	result := builder.NewDict()
	result[kType] = builder.String(kNumber)
	result[kValue] = builder.Float(value * scalerF)

	return result, nil
}

func encodeUInt16(value builder.Object, conf config.Map, _ uint) ([]byte, error) {
	scalerF, err := floatOrDefault(conf, kScaler, 1.0)
	if err != nil {
		return nil, fmt.Errorf("unable to obtain scaler for 16 bit unsigned integer: %v", err)
	}
	f, ok := value.(builder.Float)
	if !ok {
		switch i := value.(type) {
		case builder.UInt:
			f = builder.Float(i)
		case builder.Int:
			f = builder.Float(i)
		default:
			return nil, fmt.Errorf("16 bit unsigned integer write value must be a number")
		}
	}
	scaled := uint16(math.Round(float64(f) / scalerF))
	return []byte{byte(scaled >> 8), byte(scaled)}, nil
}

// floatOrDefault reads a float configuration value by hand: config.Map
// has no FloatOrDefault of its own, only the integer and duration
// variants the scheduling engine needs, so value codecs reach one level
// under Map here instead of growing the shared config package for a
// concern only the HTTP value codecs have.
func floatOrDefault(c config.Map, name string, dflt float64) (float64, error) {
	item, ok := c[name]
	if !ok {
		return dflt, nil
	}
	switch v := item.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("item %q is not a number", name)
	}
}

// buildValue decodes one configured value out of data, per its
// "offset"/"type"/"length" keys, returning a dict tagged with any
// remaining string-valued configuration keys (e.g. a unit label).
func buildValue(data []byte, valueConf config.Map) (builder.Object, error) {
	conf := make(config.Map, len(valueConf))
	for k, v := range valueConf {
		conf[k] = v
	}

	offset, err := conf.Int(kOffset)
	if err != nil {
		return nil, fmt.Errorf("unable to extract offset: %v", err)
	}
	typ, err := conf.String(kType)
	if err != nil {
		return nil, fmt.Errorf("unable to extract type: %v", err)
	}
	delete(conf, kOffset)
	delete(conf, kType)

	codec, ok := valueCodecs[typ]
	if !ok {
		return nil, fmt.Errorf("unknown value type %q", typ)
	}
	var lengthBits uint
	size := codec.size
	if size == 0 {
		length, err := conf.Int(kLength)
		if err != nil {
			return nil, fmt.Errorf("unable to extract mandatory length for type %q: %v", typ, err)
		}
		lengthBits = uint(length)
		delete(conf, kLength)
		size = (lengthBits + 7) / 8
	}
	if uint(len(data)) < 2*uint(offset)+size {
		return nil, fmt.Errorf("offset %d and/or size %d out of bounds (data length %d)", offset, size, len(data))
	}

	result, err := codec.decode(data[2*uint(offset):2*uint(offset)+size], conf, lengthBits)
	if err != nil {
		return nil, fmt.Errorf("unable to build value: %v", err)
	}
	for key, value := range conf {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("invalid value %v for key %q", value, key)
		}
		result[key] = builder.String(s)
	}

	return result, nil
}

// buildObject builds the response object served by a read handler: a
// timestamp plus every configured value decoded from data.
func buildObject(t time.Time, data []byte, valuesConf config.Map) (builder.Object, error) {
	result := builder.NewDict()
	result[kTime] = builder.Float(float64(t.Unix())) + builder.Float(float64(t.Nanosecond())*1e-9)
	values := builder.NewDict()
	for name := range valuesConf {
		conf, err := valuesConf.SubMap(name)
		if err != nil {
			return nil, fmt.Errorf("unable to get value configuration %q: %v", name, err)
		}
		value, err := buildValue(data, conf)
		if err != nil {
			return nil, fmt.Errorf("unable to build value %q: %v", name, err)
		}
		values[name] = value
	}
	result[kValues] = values

	return result, nil
}

// buildData is buildValue's inverse: given a write request's decoded
// JSON body (one builder.Object per configured value name) it encodes
// register bytes of the given total size, per each value's "offset"/
// "type"/"length" configuration.
func buildData(body builder.Object, valuesConf config.Map, size int) ([]byte, error) {
	dict, ok := body.(builder.Dict)
	if !ok {
		return nil, fmt.Errorf("write request body must be a JSON object of value name -> value")
	}
	data := make([]byte, size)
	for name := range valuesConf {
		conf, err := valuesConf.SubMap(name)
		if err != nil {
			return nil, fmt.Errorf("unable to get value configuration %q: %v", name, err)
		}
		value, ok := dict[name]
		if !ok {
			continue
		}
		if err := encodeValue(data, value, conf); err != nil {
			return nil, fmt.Errorf("unable to encode value %q: %v", name, err)
		}
	}

	return data, nil
}

func encodeValue(data []byte, value builder.Object, valueConf config.Map) error {
	conf := make(config.Map, len(valueConf))
	for k, v := range valueConf {
		conf[k] = v
	}

	offset, err := conf.Int(kOffset)
	if err != nil {
		return fmt.Errorf("unable to extract offset: %v", err)
	}
	typ, err := conf.String(kType)
	if err != nil {
		return fmt.Errorf("unable to extract type: %v", err)
	}
	delete(conf, kOffset)
	delete(conf, kType)

	codec, ok := valueCodecs[typ]
	if !ok {
		return fmt.Errorf("unknown value type %q", typ)
	}
	var lengthBits uint
	size := codec.size
	if size == 0 {
		length, err := conf.Int(kLength)
		if err != nil {
			return fmt.Errorf("unable to extract mandatory length for type %q: %v", typ, err)
		}
		lengthBits = uint(length)
		size = (lengthBits + 7) / 8
	}
	if uint(len(data)) < 2*uint(offset)+size {
		return fmt.Errorf("offset %d and/or size %d out of bounds (data length %d)", offset, size, len(data))
	}

	encoded, err := codec.encode(value, conf, lengthBits)
	if err != nil {
		return err
	}
	copy(data[2*uint(offset):2*uint(offset)+size], encoded)

	return nil
}
