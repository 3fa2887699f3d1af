package transform

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposeRecoversRotation(t *testing.T) {
	for _, tc := range []struct {
		name  string
		axis  Vec3
		angle float64
	}{
		{"identity", Vec3{Z: 1}, 0},
		{"yaw", Vec3{Z: 1}, math.Pi / 3},
		{"pitch", Vec3{X: 1}, -math.Pi / 4},
		{"half turn", Vec3{Y: 1}, math.Pi},
		{"oblique", Vec3{X: 1, Y: 2, Z: 3}, 2.1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q := AxisAngle(tc.axis, tc.angle)
			m := FromRotation(q, 2.5, Vec3{X: 1, Y: 2, Z: 3})
			assert.True(t, m.Decompose().ApproxEqual(q, 1e-5), "got %+v want %+v", m.Decompose(), q)
		})
	}
}

func TestDecomposeDegenerate(t *testing.T) {
	assert.Equal(t, Identity(), Matrix43{}.Decompose())
}

func TestMulComposesRotations(t *testing.T) {
	a := AxisAngle(Vec3{Z: 1}, math.Pi/2)
	b := AxisAngle(Vec3{X: 1}, math.Pi/2)

	// rotating by b first and then a differs from the reverse order
	ab := a.Mul(b)
	ba := b.Mul(a)
	assert.False(t, ab.ApproxEqual(ba, 1e-6))

	m := FromRotation(a, 1, Vec3{}).Mul(FromRotation(b, 1, Vec3{}))
	assert.True(t, m.Decompose().ApproxEqual(ab, 1e-5))
	assert.True(t, Identity().Mul(a).ApproxEqual(a, 1e-6))
}

func TestMatrixApply(t *testing.T) {
	m := FromRotation(AxisAngle(Vec3{Z: 1}, math.Pi/2), 1, Vec3{X: 10})
	p := m.Apply(Vec3{X: 1})
	assert.InDelta(t, 10, p.X, 1e-5)
	assert.InDelta(t, 1, p.Y, 1e-5)
}

func TestMatrixBinary(t *testing.T) {
	m := FromRotation(AxisAngle(Vec3{Y: 1}, 0.7), 1, Vec3{X: -4, Y: 5, Z: 6})
	raw, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, matrix43Size)

	var back Matrix43
	require.NoError(t, back.UnmarshalBinary(raw))
	assert.Equal(t, m, back)
	assert.Error(t, back.UnmarshalBinary(raw[:10]))
}

func TestQuatJSON(t *testing.T) {
	q := AxisAngle(Vec3{Z: 1}, math.Pi/2)
	raw, err := json.Marshal(q)
	require.NoError(t, err)

	var fields map[string]float64
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 4)
	assert.InDelta(t, math.Sqrt2/2, fields["z"], 1e-6)
	assert.InDelta(t, math.Sqrt2/2, fields["w"], 1e-6)
	assert.Zero(t, fields["x"])

	var back Quat
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.ApproxEqual(q, 1e-6))
}
