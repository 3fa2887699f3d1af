// Package transform decomposes entity transforms into rotations and composes
// rotations along the owner chain.
package transform

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is the wire and memory form of SVector3.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func vec3(v mgl32.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// Quat is a rotation quaternion. On the wire it is {"x","y","z","w"}.
type Quat struct {
	mgl32.Quat
}

type quatWire struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

func Identity() Quat {
	return Quat{mgl32.QuatIdent()}
}

// AxisAngle builds the rotation of angle radians around axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	v := axis.Vec()
	if v.Len() == 0 {
		return Identity()
	}
	return Quat{mgl32.QuatRotate(float32(angle), v.Normalize())}
}

// Mul returns the Hamilton product q*r: the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{q.Quat.Mul(r.Quat)}
}

func (q Quat) Normalize() Quat {
	return Quat{q.Quat.Normalize()}
}

// ApproxEqual compares two rotations, treating q and -q as the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	return q.OrientationEqualThreshold(r.Quat, float32(eps))
}

func (q Quat) MarshalJSON() ([]byte, error) {
	return json.Marshal(quatWire{X: q.X(), Y: q.Y(), Z: q.Z(), W: q.W})
}

func (q *Quat) UnmarshalJSON(data []byte) error {
	var w quatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.Quat = mgl32.Quat{W: w.W, V: mgl32.Vec3{w.X, w.Y, w.Z}}
	return nil
}

// Matrix43 is the simulation's 4x3 transform: three basis axes and a translation.
type Matrix43 struct {
	XAxis Vec3 `json:"XAxis"`
	YAxis Vec3 `json:"YAxis"`
	ZAxis Vec3 `json:"ZAxis"`
	Trans Vec3 `json:"Trans"`
}

const matrix43Size = 48

// FromRotation builds a transform with rotation q, uniform scale and translation.
func FromRotation(q Quat, scale float32, trans Vec3) Matrix43 {
	r := q.Normalize().Mat4()
	axis := func(col int) Vec3 {
		return vec3(r.Col(col).Vec3().Mul(scale))
	}
	return Matrix43{XAxis: axis(0), YAxis: axis(1), ZAxis: axis(2), Trans: trans}
}

// basis is the 3x3 linear part; column j is the image of basis axis j.
func (m Matrix43) basis() mgl32.Mat3 {
	return mgl32.Mat3FromCols(m.XAxis.Vec(), m.YAxis.Vec(), m.ZAxis.Vec())
}

// Decompose removes the per-axis scale and returns the rotation of m.
func (m Matrix43) Decompose() Quat {
	x, y, z := m.XAxis.Vec(), m.YAxis.Vec(), m.ZAxis.Vec()
	if x.Len() == 0 || y.Len() == 0 || z.Len() == 0 {
		return Identity()
	}
	x, y, z = x.Normalize(), y.Normalize(), z.Normalize()
	r := mgl32.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	return Quat{mgl32.Mat4ToQuat(r)}.Normalize()
}

// Mul composes two transforms: the result applies n first, then m.
func (m Matrix43) Mul(n Matrix43) Matrix43 {
	b := m.basis()
	return Matrix43{
		XAxis: vec3(b.Mul3x1(n.XAxis.Vec())),
		YAxis: vec3(b.Mul3x1(n.YAxis.Vec())),
		ZAxis: vec3(b.Mul3x1(n.ZAxis.Vec())),
		Trans: m.Apply(n.Trans),
	}
}

// Apply transforms the point p.
func (m Matrix43) Apply(p Vec3) Vec3 {
	return vec3(m.basis().Mul3x1(p.Vec()).Add(m.Trans.Vec()))
}

func (m Matrix43) MarshalBinary() ([]byte, error) {
	buf := make([]byte, matrix43Size)
	m.put(buf)
	return buf, nil
}

func (m *Matrix43) UnmarshalBinary(data []byte) error {
	if len(data) < matrix43Size {
		return fmt.Errorf("matrix needs %d bytes, got %d", matrix43Size, len(data))
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	m.XAxis = Vec3{f(0), f(1), f(2)}
	m.YAxis = Vec3{f(3), f(4), f(5)}
	m.ZAxis = Vec3{f(6), f(7), f(8)}
	m.Trans = Vec3{f(9), f(10), f(11)}
	return nil
}

func (m Matrix43) put(dst []byte) {
	values := [12]float32{
		m.XAxis.X, m.XAxis.Y, m.XAxis.Z,
		m.YAxis.X, m.YAxis.Y, m.YAxis.Z,
		m.ZAxis.X, m.ZAxis.Y, m.ZAxis.Z,
		m.Trans.X, m.Trans.Y, m.Trans.Z,
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
