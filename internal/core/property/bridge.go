// Package property reads and writes single entity properties without knowing
// their Go type: values travel as scratch buffers described by a
// typeinfo.Descriptor and are converted to and from JSON through the type's
// registered converter.
package property

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

// NullReference is the wire value that clears an entity reference property.
const NullReference = "null"

// SelectorResolver resolves nested selectors carried by entity reference values.
type SelectorResolver interface {
	Resolve(sel scene.Selector) (scene.Handle, bool)
}

// Value is a validated property value ready to be applied. Ownership of Buffer
// travels with the value; whoever applies it releases it.
type Value struct {
	Type *typeinfo.Descriptor
	// Buffer holds the decoded native value. Nil for entity references.
	Buffer *Buffer
	// Reference is the referenced entity. Nil together with a reference type
	// means an empty reference.
	Reference scene.Handle
}

func (v Value) IsReference() bool {
	return v.Type != nil && v.Type.IsEntityReference()
}

func (v Value) Release() {
	if v.Buffer != nil {
		v.Buffer.Release()
	}
}

type Bridge struct {
	adapter  *typeinfo.Adapter
	alloc    Allocator
	resolver SelectorResolver
	logger   log.Log
}

type Option func(*Bridge)

func WithAllocator(a Allocator) Option {
	return func(b *Bridge) { b.alloc = a }
}

func WithLogger(l log.Log) Option {
	return func(b *Bridge) { b.logger = l }
}

func NewBridge(adapter *typeinfo.Adapter, resolver SelectorResolver, opts ...Option) *Bridge {
	b := &Bridge{
		adapter:  adapter,
		alloc:    NewPoolAllocator(),
		resolver: resolver,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("property")
	return b
}

func (b *Bridge) Adapter() *typeinfo.Adapter {
	return b.adapter
}

// Lookup finds the property id on the entity's type.
func (b *Bridge) Lookup(h scene.Handle, id uint32) (*typeinfo.Property, error) {
	return b.adapter.Lookup(h.Type(), id)
}

// Read copies the current value of p out of the live object. The caller owns
// the returned buffer and must release it.
func (b *Bridge) Read(h scene.Handle, p *typeinfo.Property) (*Buffer, error) {
	if p.Type == nil || p.Type.Size == 0 {
		return nil, fmt.Errorf("property %08X: %w", p.ID, typeinfo.ErrTypeInfoUnavailable)
	}

	buf := b.alloc.Allocate(p.Type)
	memory := h.Memory()
	end := p.Offset + uintptr(p.Type.Size)
	if p.HasCustomAccessor() {
		if err := p.Get(memory, buf.Bytes()); err != nil {
			buf.Release()
			return nil, fmt.Errorf("property %08X getter: %w", p.ID, err)
		}
		return buf, nil
	}
	if end > uintptr(len(memory)) {
		buf.Release()
		return nil, fmt.Errorf("property %08X lies outside the object (%d > %d): %w",
			p.ID, end, len(memory), typeinfo.ErrTypeInfoUnavailable)
	}
	p.Type.CopyConstruct(buf.Bytes(), memory[p.Offset:end])
	return buf, nil
}

// Write validates a wire value for p and turns it into a Value. On success the
// returned value owns its buffer; on failure nothing stays allocated.
func (b *Bridge) Write(h scene.Handle, p *typeinfo.Property, wire string) (Value, error) {
	if p.Type == nil || p.Type.Size == 0 {
		return Value{}, fmt.Errorf("property %08X: %w", p.ID, typeinfo.ErrTypeInfoUnavailable)
	}
	if p.Type.IsEntityReference() {
		return b.writeReference(p, wire)
	}

	buf := b.alloc.Allocate(p.Type)
	if err := b.adapter.Registry().Decode(p.Type, []byte(wire), buf.Bytes()); err != nil {
		buf.Release()
		b.logger.Debug("rejected property value",
			log.Uint32("property", p.ID),
			log.String("type", p.Type.Name),
			log.Error(err),
		)
		return Value{}, fmt.Errorf("%w: %s: %v", ErrInvalidPropertyValue, p.Type.Name, err)
	}
	return Value{Type: p.Type, Buffer: buf}, nil
}

func (b *Bridge) writeReference(p *typeinfo.Property, wire string) (Value, error) {
	if wire == NullReference {
		return Value{Type: p.Type}, nil
	}
	var sel scene.Selector
	if err := json.Unmarshal([]byte(wire), &sel); err != nil {
		return Value{}, fmt.Errorf("%w: entity selector: %v", ErrInvalidPropertyValue, err)
	}
	target, ok := b.resolver.Resolve(sel)
	if !ok {
		return Value{}, fmt.Errorf("referenced entity %s: %w", sel, scene.ErrEntityNotFound)
	}
	return Value{Type: p.Type, Reference: target}, nil
}

// Encode reads p and renders it as JSON through the type's converter.
func (b *Bridge) Encode(h scene.Handle, p *typeinfo.Property) (json.RawMessage, error) {
	buf, err := b.Read(h, p)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	out, err := b.adapter.Registry().Encode(p.Type, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("property %08X: %w", p.ID, err)
	}
	return out, nil
}
