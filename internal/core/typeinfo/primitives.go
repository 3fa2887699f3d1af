package typeinfo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ConverterFunc adapts a pair of functions to Converter.
type ConverterFunc struct {
	DecodeFunc func(data []byte, dst []byte) error
	EncodeFunc func(src []byte) ([]byte, error)
}

func (c ConverterFunc) Decode(data []byte, dst []byte) error { return c.DecodeFunc(data, dst) }
func (c ConverterFunc) Encode(src []byte) ([]byte, error)    { return c.EncodeFunc(src) }

// Primitive type descriptors as named by the simulation.
var (
	Bool      = &Descriptor{Name: "bool", Size: 1, Alignment: 1}
	Int8      = &Descriptor{Name: "int8", Size: 1, Alignment: 1}
	Uint8     = &Descriptor{Name: "uint8", Size: 1, Alignment: 1}
	Int16     = &Descriptor{Name: "int16", Size: 2, Alignment: 2}
	Uint16    = &Descriptor{Name: "uint16", Size: 2, Alignment: 2}
	Int32     = &Descriptor{Name: "int32", Size: 4, Alignment: 4}
	Uint32    = &Descriptor{Name: "uint32", Size: 4, Alignment: 4}
	Int64     = &Descriptor{Name: "int64", Size: 8, Alignment: 8}
	Uint64    = &Descriptor{Name: "uint64", Size: 8, Alignment: 8}
	Float32   = &Descriptor{Name: "float32", Size: 4, Alignment: 4}
	Float64   = &Descriptor{Name: "float64", Size: 8, Alignment: 8}
	RuntimeID = &Descriptor{Name: "ZRuntimeResourceID", Size: 8, Alignment: 4}
)

func registerPrimitives(r *Registry) {
	r.RegisterConverter(Bool.Name, ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var v bool
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			dst[0] = 0
			if v {
				dst[0] = 1
			}
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			return json.Marshal(src[0] != 0)
		},
	})

	r.RegisterConverter(Int8.Name, signed(1))
	r.RegisterConverter(Int16.Name, signed(2))
	r.RegisterConverter(Int32.Name, signed(4))
	r.RegisterConverter(Int64.Name, signed(8))
	r.RegisterConverter(Uint8.Name, unsigned(1))
	r.RegisterConverter(Uint16.Name, unsigned(2))
	r.RegisterConverter(Uint32.Name, unsigned(4))
	r.RegisterConverter(Uint64.Name, unsigned(8))

	r.RegisterConverter(Float32.Name, ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var v float32
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			return json.Marshal(math.Float32frombits(binary.LittleEndian.Uint32(src)))
		},
	})
	r.RegisterConverter(Float64.Name, ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var v float64
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			return json.Marshal(math.Float64frombits(binary.LittleEndian.Uint64(src)))
		},
	})

	r.RegisterConverter(RuntimeID.Name, ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			id, err := ParseHash(data)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(dst, id)
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			return json.Marshal(fmt.Sprintf("%016X", binary.LittleEndian.Uint64(src)))
		},
	})
}

func signed(size int) Converter {
	bits := size * 8
	return ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var n json.Number
			if err := json.Unmarshal(data, &n); err != nil {
				return err
			}
			v, err := strconv.ParseInt(n.String(), 10, bits)
			if err != nil {
				return err
			}
			putUint(dst, size, uint64(v))
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			v := getUint(src, size)
			shift := 64 - bits
			return json.Marshal(int64(v<<shift) >> shift)
		},
	}
}

func unsigned(size int) Converter {
	return ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var n json.Number
			if err := json.Unmarshal(data, &n); err != nil {
				return err
			}
			v, err := strconv.ParseUint(n.String(), 10, size*8)
			if err != nil {
				return err
			}
			putUint(dst, size, v)
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			return json.Marshal(getUint(src, size))
		},
	}
}

func putUint(dst []byte, size int, v uint64) {
	switch size {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	default:
		binary.LittleEndian.PutUint64(dst, v)
	}
}

func getUint(src []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(src))
	case 4:
		return uint64(binary.LittleEndian.Uint32(src))
	default:
		return binary.LittleEndian.Uint64(src)
	}
}

// ParseHash accepts a 64-bit hash either as a JSON number or as a hex string,
// with or without a 0x prefix. Anything after the value is an error.
func ParseHash(data []byte) (uint64, error) {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return 0, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return 0, errors.New("trailing data after hash")
	}
	switch v := raw.(type) {
	case json.Number:
		return strconv.ParseUint(v.String(), 10, 64)
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
		if s == "" {
			return 0, fmt.Errorf("empty hash")
		}
		return strconv.ParseUint(s, 16, 64)
	default:
		return 0, fmt.Errorf("hash must be a number or a hex string, got %T", raw)
	}
}
