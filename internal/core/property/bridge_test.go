package property

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

type stubHandle struct {
	typ    *typeinfo.EntityType
	memory []byte
}

func (h *stubHandle) Type() *typeinfo.EntityType                    { return h.typ }
func (h *stubHandle) Memory() []byte                                { return h.memory }
func (h *stubHandle) QueryInterface(string) (any, bool)             { return nil, false }
func (h *stubHandle) Owner() scene.Handle                           { return nil }
func (h *stubHandle) BlueprintFactory() (scene.BlueprintHash, bool) { return 0, false }

type mapResolver map[scene.EntityID]scene.Handle

func (m mapResolver) Resolve(sel scene.Selector) (scene.Handle, bool) {
	h, ok := m[sel.ID]
	return h, ok
}

var entityRef = &typeinfo.Descriptor{Name: "TEntityRef<ZEntityImpl>", Size: 16, Alignment: 8, Flags: typeinfo.FlagEntityReference}

func newFixture(t *testing.T) (*Bridge, *PoolAllocator, *stubHandle, mapResolver) {
	t.Helper()
	memory := make([]byte, 32)
	health := int32(-42)
	binary.LittleEndian.PutUint32(memory[4:], uint32(health))
	h := &stubHandle{
		memory: memory,
		typ: &typeinfo.EntityType{Properties: []typeinfo.Property{
			{ID: 1, InfoID: 1, Name: "m_nHealth", Offset: 4, Type: typeinfo.Int32},
			{ID: 2, InfoID: 2, Name: "m_rTarget", Offset: 8, Type: entityRef},
			{ID: 3, InfoID: 3, Name: "m_bComputed", Type: typeinfo.Bool, Get: func(_ []byte, dst []byte) error {
				dst[0] = 1
				return nil
			}},
			{ID: 4, InfoID: 4, Name: "m_nBroken", Type: typeinfo.Uint32, Get: func([]byte, []byte) error {
				return errors.New("getter failed")
			}},
			{ID: 5, InfoID: 5, Name: "m_nFar", Offset: 64, Type: typeinfo.Uint64},
		}},
	}
	alloc := NewPoolAllocator()
	resolver := mapResolver{}
	b := NewBridge(typeinfo.NewAdapter(typeinfo.NewDefaultRegistry()), resolver, WithAllocator(alloc))
	return b, alloc, h, resolver
}

func mustLookup(t *testing.T, b *Bridge, h scene.Handle, id uint32) *typeinfo.Property {
	t.Helper()
	p, err := b.Lookup(h, id)
	require.NoError(t, err)
	return p
}

func TestReadCopiesLiveMemory(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	buf, err := b.Read(h, mustLookup(t, b, h, 1))
	require.NoError(t, err)
	assert.Equal(t, int32(-42), int32(binary.LittleEndian.Uint32(buf.Bytes())))
	assert.EqualValues(t, 1, alloc.Live())

	// the copy is detached from the live object
	binary.LittleEndian.PutUint32(h.memory[4:], 7)
	assert.Equal(t, int32(-42), int32(binary.LittleEndian.Uint32(buf.Bytes())))

	buf.Release()
	buf.Release()
	assert.Zero(t, alloc.Live())
	assert.Nil(t, buf.Bytes())
}

func TestReadUsesCustomAccessor(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	buf, err := b.Read(h, mustLookup(t, b, h, 3))
	require.NoError(t, err)
	assert.Equal(t, byte(1), buf.Bytes()[0])
	buf.Release()
	assert.Zero(t, alloc.Live())
}

func TestReadReleasesOnFailure(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	_, err := b.Read(h, mustLookup(t, b, h, 4))
	assert.Error(t, err)
	assert.Zero(t, alloc.Live())

	_, err = b.Read(h, mustLookup(t, b, h, 5))
	assert.ErrorIs(t, err, typeinfo.ErrTypeInfoUnavailable)
	assert.Zero(t, alloc.Live())
}

func TestWriteTransfersBufferOwnership(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	v, err := b.Write(h, mustLookup(t, b, h, 1), "1234")
	require.NoError(t, err)
	require.NotNil(t, v.Buffer)
	assert.False(t, v.IsReference())
	assert.False(t, v.Buffer.Released())
	assert.EqualValues(t, 1, alloc.Live(), "successful write must not free its buffer")
	assert.Equal(t, int32(1234), int32(binary.LittleEndian.Uint32(v.Buffer.Bytes())))

	v.Release()
	assert.Zero(t, alloc.Live())
}

func TestWriteMalformedReleasesBuffer(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	_, err := b.Write(h, mustLookup(t, b, h, 1), "{not json")
	assert.ErrorIs(t, err, ErrInvalidPropertyValue)
	assert.Zero(t, alloc.Live())

	_, err = b.Write(h, mustLookup(t, b, h, 1), `"text"`)
	assert.ErrorIs(t, err, ErrInvalidPropertyValue)
	assert.Zero(t, alloc.Live())
}

func TestWriteEntityReference(t *testing.T) {
	b, alloc, h, resolver := newFixture(t)
	target := &stubHandle{}
	resolver[0xBEEF] = target
	prop := mustLookup(t, b, h, 2)

	v, err := b.Write(h, prop, NullReference)
	require.NoError(t, err)
	assert.True(t, v.IsReference())
	assert.Nil(t, v.Reference)
	assert.Nil(t, v.Buffer)

	v, err = b.Write(h, prop, `{"id":"000000000000beef","tblu":"00280B8C4462FAC8"}`)
	require.NoError(t, err)
	assert.Same(t, target, v.Reference)

	_, err = b.Write(h, prop, `{"id":1}`)
	assert.ErrorIs(t, err, scene.ErrEntityNotFound)

	_, err = b.Write(h, prop, `[1,2]`)
	assert.ErrorIs(t, err, ErrInvalidPropertyValue)

	assert.Zero(t, alloc.Live())
}

func TestWriteWithoutTypeInfo(t *testing.T) {
	b, _, h, _ := newFixture(t)
	_, err := b.Write(h, &typeinfo.Property{ID: 9}, "1")
	assert.ErrorIs(t, err, typeinfo.ErrTypeInfoUnavailable)
}

func TestLookupErrors(t *testing.T) {
	b, _, h, _ := newFixture(t)

	_, err := b.Lookup(h, 99)
	assert.ErrorIs(t, err, typeinfo.ErrPropertyNotFound)

	_, err = b.Lookup(&stubHandle{}, 1)
	assert.ErrorIs(t, err, typeinfo.ErrTypeInfoUnavailable)
}

func TestEncode(t *testing.T) {
	b, alloc, h, _ := newFixture(t)

	out, err := b.Encode(h, mustLookup(t, b, h, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `-42`, string(out))

	_, err = b.Encode(h, mustLookup(t, b, h, 2))
	assert.ErrorIs(t, err, typeinfo.ErrNoConverter)
	assert.Zero(t, alloc.Live())
}

func TestAllocatorAlignment(t *testing.T) {
	alloc := NewPoolAllocator()
	typ := &typeinfo.Descriptor{Name: "SMatrix", Size: 64, Alignment: 16}
	for i := 0; i < 8; i++ {
		buf := alloc.Allocate(typ)
		assert.Len(t, buf.Bytes(), 64)
		assert.Zero(t, addr(buf.Bytes())%16)
		buf.Release()
	}
	assert.Zero(t, alloc.Live())
}
