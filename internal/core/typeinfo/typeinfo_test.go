package typeinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()
	cases := []struct {
		typ  *Descriptor
		wire string
		want string
	}{
		{Bool, `true`, `true`},
		{Int8, `-5`, `-5`},
		{Int16, `-300`, `-300`},
		{Int32, `-70000`, `-70000`},
		{Uint32, `4000000000`, `4000000000`},
		{Uint64, `18446744073709551615`, `18446744073709551615`},
		{Float32, `1.5`, `1.5`},
		{Float64, `-2.25`, `-2.25`},
		{RuntimeID, `"00280B8C4462FAC8"`, `"00280B8C4462FAC8"`},
	}
	for _, c := range cases {
		t.Run(c.typ.Name, func(t *testing.T) {
			buf := make([]byte, c.typ.Size)
			require.NoError(t, r.Decode(c.typ, []byte(c.wire), buf))
			out, err := r.Encode(c.typ, buf)
			require.NoError(t, err)
			assert.Equal(t, c.want, string(out))
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	r := NewDefaultRegistry()
	buf := make([]byte, 8)
	assert.Error(t, r.Decode(Int32, []byte(`{not json`), buf))
	assert.Error(t, r.Decode(Int8, []byte(`300`), buf))
	assert.Error(t, r.Decode(Uint32, []byte(`-1`), buf))
	assert.Error(t, r.Decode(Bool, []byte(`"yes"`), buf))
	assert.Error(t, r.Decode(RuntimeID, []byte(`5 junk`), buf))
	assert.Error(t, r.Decode(RuntimeID, []byte(`"00AB"}`), buf))
	assert.ErrorIs(t, r.Decode(&Descriptor{Name: "ZString", Size: 16}, []byte(`"x"`), make([]byte, 16)), ErrNoConverter)
}

func TestParseHash(t *testing.T) {
	v, err := ParseHash([]byte(`"0x00724CDE424AFE76"`))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x00724CDE424AFE76), v)

	v, err = ParseHash([]byte(`1234`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), v)

	_, err = ParseHash([]byte(`[1]`))
	assert.Error(t, err)
	_, err = ParseHash([]byte(`""`))
	assert.Error(t, err)
	_, err = ParseHash([]byte(`12 13`))
	assert.Error(t, err)
}

func TestAdapterPropertyName(t *testing.T) {
	r := NewRegistry()
	r.RegisterPropertyNames("m_CollisionResourceID", "m_mTransform")
	a := NewAdapter(r)

	named := &Property{ID: PropertyID("m_fSpeed"), InfoID: PropertyID("m_fSpeed"), Name: "m_fSpeed", Type: Float32}
	name, ok := a.PropertyName(named)
	require.True(t, ok)
	assert.Equal(t, "m_fSpeed", name)

	resource := &Property{
		ID:     PropertyID("m_CollisionResourceID"),
		InfoID: PropertyID("m_CollisionResourceID"),
		Name:   "bogus",
		Type:   &Descriptor{Name: "ZResourcePtr", Size: 4, Flags: FlagResource},
	}
	name, ok = a.PropertyName(resource)
	require.True(t, ok)
	assert.Equal(t, "m_CollisionResourceID", name)

	mismatched := &Property{ID: PropertyID("m_mTransform"), InfoID: 7, Name: "wrong", Type: Float32}
	name, ok = a.PropertyName(mismatched)
	require.True(t, ok)
	assert.Equal(t, "m_mTransform", name)

	unknown := &Property{ID: 99, InfoID: 98, Type: Float32}
	_, ok = a.PropertyName(unknown)
	assert.False(t, ok)
}

func TestAdapterLookup(t *testing.T) {
	a := NewAdapter(NewRegistry())
	typ := &EntityType{Properties: []Property{
		{ID: 1, InfoID: 1, Name: "a", Type: Int32},
		{ID: 2, InfoID: 2, Name: "b"},
	}}

	p, err := a.Lookup(typ, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)

	_, err = a.Lookup(typ, 3)
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	_, err = a.Lookup(typ, 2)
	assert.ErrorIs(t, err, ErrTypeInfoUnavailable)

	_, err = a.Lookup(nil, 1)
	assert.ErrorIs(t, err, ErrTypeInfoUnavailable)
}

func TestEntityTypeInterfaces(t *testing.T) {
	typ := &EntityType{Interfaces: []Interface{{Name: "ZGeomEntity"}, {Name: "ZPureWaterAspect"}}}
	primary, ok := typ.PrimaryInterface()
	require.True(t, ok)
	assert.Equal(t, "ZGeomEntity", primary.Name)
	assert.True(t, typ.Implements("ZPureWaterAspect"))
	assert.False(t, typ.Implements("ZPFSeedPoint"))

	var empty *EntityType
	_, ok = empty.PrimaryInterface()
	assert.False(t, ok)
}

func TestFindByReflectionName(t *testing.T) {
	r := NewRegistry()
	r.RegisterPropertyNames("m_mTransform")
	a := NewAdapter(r)
	typ := &EntityType{Properties: []Property{
		{ID: PropertyID("m_mTransform"), InfoID: 1, Name: "m_mTransform", Type: Float32},
		{ID: 5, InfoID: 5, Name: "m_fRadius", Type: Float32},
	}}

	_, ok := a.FindByReflectionName(typ, "m_mTransform")
	assert.False(t, ok, "mismatched info id makes the reflection name unusable")

	p, ok := a.FindByName(typ, "m_mTransform")
	require.True(t, ok)
	assert.Equal(t, PropertyID("m_mTransform"), p.ID)

	p, ok = a.FindByReflectionName(typ, "m_fRadius")
	require.True(t, ok)
	assert.Equal(t, uint32(5), p.ID)
}
