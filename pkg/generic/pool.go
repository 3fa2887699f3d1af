package generic

import (
	"math/bits"
	"sync"
)

type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// ByteBuckets pools byte slices in power-of-two size classes up to 1<<maxShift.
// Larger requests bypass the pool.
type ByteBuckets struct {
	buckets []*Pool[*[]byte]
}

func NewByteBuckets(maxShift int) *ByteBuckets {
	b := &ByteBuckets{buckets: make([]*Pool[*[]byte], maxShift+1)}
	for shift := range b.buckets {
		size := 1 << shift
		b.buckets[shift] = NewPool(func() *[]byte {
			buf := make([]byte, size)
			return &buf
		})
	}
	return b
}

// Get returns a zeroed slice of length size.
func (b *ByteBuckets) Get(size int) []byte {
	shift := bucketShift(size)
	if shift >= len(b.buckets) {
		return make([]byte, size)
	}
	buf := *b.buckets[shift].Get()
	buf = buf[:size]
	clear(buf)
	return buf
}

func (b *ByteBuckets) Put(buf []byte) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	shift := bits.TrailingZeros(uint(c))
	if shift >= len(b.buckets) {
		return
	}
	buf = buf[:c]
	b.buckets[shift].Put(&buf)
}

func bucketShift(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}
