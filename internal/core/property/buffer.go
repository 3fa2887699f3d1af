package property

import (
	"sync/atomic"
	"unsafe"

	"github.com/zeusync/scenebridge/internal/core/typeinfo"
	"github.com/zeusync/scenebridge/pkg/generic"
)

// Buffer is a scratch allocation holding one native value. It is owned by
// exactly one party at a time and must be released by its final owner.
type Buffer struct {
	raw      []byte
	data     []byte
	typ      *typeinfo.Descriptor
	alloc    Allocator
	released atomic.Bool
}

// Bytes returns the value's memory. It is nil after Release.
func (b *Buffer) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.data
}

func (b *Buffer) Type() *typeinfo.Descriptor {
	return b.typ
}

func (b *Buffer) Released() bool {
	return b.released.Load()
}

// Release returns the buffer to its allocator. Repeated calls are no-ops.
func (b *Buffer) Release() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	b.alloc.Free(b)
}

// Allocator hands out scratch buffers sized and aligned for a type.
type Allocator interface {
	Allocate(typ *typeinfo.Descriptor) *Buffer
	Free(b *Buffer)
}

// PoolAllocator recycles buffers through size-class pools and counts the
// buffers currently handed out.
type PoolAllocator struct {
	buckets *generic.ByteBuckets
	live    atomic.Int64
}

func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{buckets: generic.NewByteBuckets(12)}
}

func (a *PoolAllocator) Allocate(typ *typeinfo.Descriptor) *Buffer {
	size := int(typ.Size)
	align := int(typ.Alignment)
	if align < 1 {
		align = 1
	}
	raw := a.buckets.Get(size + align - 1)
	offset := 0
	if len(raw) > 0 {
		if rem := int(uintptr(unsafe.Pointer(&raw[0])) % uintptr(align)); rem != 0 {
			offset = align - rem
		}
	}
	a.live.Add(1)
	return &Buffer{
		raw:   raw,
		data:  raw[offset : offset+size : offset+size],
		typ:   typ,
		alloc: a,
	}
}

func (a *PoolAllocator) Free(b *Buffer) {
	a.live.Add(-1)
	a.buckets.Put(b.raw)
	b.raw, b.data = nil, nil
}

// Live reports how many buffers are allocated and not yet released.
func (a *PoolAllocator) Live() int64 {
	return a.live.Load()
}
