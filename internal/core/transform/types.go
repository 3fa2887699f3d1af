package transform

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

var (
	MatrixType = &typeinfo.Descriptor{Name: "SMatrix43", Size: matrix43Size, Alignment: 4}
	VectorType = &typeinfo.Descriptor{Name: "SVector3", Size: 12, Alignment: 4}
)

// RegisterConverters installs the JSON converters for the spatial types.
func RegisterConverters(r *typeinfo.Registry) {
	r.RegisterConverter(MatrixType.Name, typeinfo.ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var m Matrix43
			if err := json.Unmarshal(data, &m); err != nil {
				return err
			}
			m.put(dst)
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			var m Matrix43
			if err := m.UnmarshalBinary(src); err != nil {
				return nil, err
			}
			return json.Marshal(m)
		},
	})
	r.RegisterConverter(VectorType.Name, typeinfo.ConverterFunc{
		DecodeFunc: func(data []byte, dst []byte) error {
			var v Vec3
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			for i, f := range [3]float32{v.X, v.Y, v.Z} {
				binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
			}
			return nil
		},
		EncodeFunc: func(src []byte) ([]byte, error) {
			f := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:])) }
			return json.Marshal(Vec3{X: f(0), Y: f(1), Z: f(2)})
		},
	})
}
