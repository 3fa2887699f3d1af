package typeinfo

import (
	"fmt"
	"sync"
)

// Converter moves values between their JSON wire form and native memory.
type Converter interface {
	Decode(data []byte, dst []byte) error
	Encode(src []byte) ([]byte, error)
}

// Registry holds the converters by type name and the property name table.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
	names      map[uint32]string
}

func NewRegistry() *Registry {
	return &Registry{
		converters: make(map[string]Converter),
		names:      make(map[uint32]string),
	}
}

// NewDefaultRegistry returns a registry with the primitive converters installed.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerPrimitives(r)
	return r
}

func (r *Registry) RegisterConverter(typeName string, c Converter) {
	r.mu.Lock()
	r.converters[typeName] = c
	r.mu.Unlock()
}

func (r *Registry) Converter(typeName string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[typeName]
	return c, ok
}

// RegisterPropertyNames adds names to the id table under their stable ids.
func (r *Registry) RegisterPropertyNames(names ...string) {
	r.mu.Lock()
	for _, name := range names {
		r.names[PropertyID(name)] = name
	}
	r.mu.Unlock()
}

func (r *Registry) PropertyName(id uint32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Decode converts a JSON payload into dst using the converter of typ.
func (r *Registry) Decode(typ *Descriptor, data []byte, dst []byte) error {
	c, ok := r.Converter(typ.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConverter, typ.Name)
	}
	if len(dst) < int(typ.Size) {
		return fmt.Errorf("buffer of %d bytes is too small for %s", len(dst), typ.Name)
	}
	return c.Decode(data, dst[:typ.Size])
}

// Encode renders the value in src as JSON using the converter of typ.
func (r *Registry) Encode(typ *Descriptor, src []byte) ([]byte, error) {
	c, ok := r.Converter(typ.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoConverter, typ.Name)
	}
	return c.Encode(src[:typ.Size])
}
