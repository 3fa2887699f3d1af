// Package memsim is an in-memory simulation: plain Go entities exposing the
// same capabilities as live simulation objects. It backs the tests and the
// demo scene served by cmd/server.
package memsim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

// Interface names the scanners look for.
const (
	GeomEntity           = "ZGeomEntity"
	PrimitiveProxyEntity = "ZPrimitiveProxyEntity"
	PureWaterAspect      = "ZPureWaterAspect"
	SeedPoint            = "ZPFSeedPoint"
	BoxEntity            = "ZPFBoxEntity"
	SpatialEntity        = "ZSpatialEntity"
)

const CollisionResourceProperty = "m_CollisionResourceID"

// EntityRef describes entity reference properties. Assigned references are
// kept by the entity rather than in its memory.
var EntityRef = &typeinfo.Descriptor{
	Name:      "TEntityRef<ZEntityImpl>",
	Size:      16,
	Alignment: 8,
	Flags:     typeinfo.FlagEntityReference,
}

// Geometry is the capability geometry entities expose.
type Geometry struct {
	Resource resource.Index
}

func (g Geometry) PrimitiveResource() resource.Index {
	return g.Resource
}

// Entity is a simulated live object. Tree and capability builders (Add,
// OwnedBy, Capability, Geometry) are meant for setting up a scene before it is
// handed to a World. Property state is guarded by mu; Type and Memory hand out
// copies so readers never share storage with the appliers.
type Entity struct {
	id        scene.EntityID
	blueprint scene.BlueprintHash
	factory   *scene.BlueprintHash
	caps      map[string]any

	owner    *Entity
	parent   *Entity
	children []*Entity

	mu     sync.RWMutex
	typ    typeinfo.EntityType
	memory []byte
	name   string
	refs   map[uint32]scene.Handle
	pins   map[uint32]bool

	// declaredNames keeps every defined name, including the ones hidden from reflection.
	declaredNames map[uint32]string
}

// New creates an entity implementing the given interfaces, most derived first.
func New(id scene.EntityID, interfaces ...string) *Entity {
	e := &Entity{
		id:   id,
		caps: make(map[string]any),
		refs: make(map[uint32]scene.Handle),
		pins: make(map[uint32]bool),

		declaredNames: make(map[uint32]string),
	}
	e.typ.EntityID = uint64(id)
	for _, name := range interfaces {
		e.typ.Interfaces = append(e.typ.Interfaces, typeinfo.Interface{
			Name: name,
			Type: &typeinfo.Descriptor{Name: name},
		})
		e.caps[name] = e
	}
	return e
}

func (e *Entity) ID() scene.EntityID {
	return e.id
}

func (e *Entity) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// Blueprint sets the blueprint hash recorded for the entity in the scene tree.
func (e *Entity) Blueprint(h scene.BlueprintHash) *Entity {
	e.blueprint = h
	return e
}

// Factory sets the resource id of the factory that spawned the entity.
func (e *Entity) Factory(h scene.BlueprintHash) *Entity {
	e.factory = &h
	return e
}

// Named sets the display name.
func (e *Entity) Named(name string) *Entity {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
	return e
}

// Add appends children in the scene tree. Each child is owned by e unless it
// already has an owner.
func (e *Entity) Add(children ...*Entity) *Entity {
	for _, c := range children {
		c.parent = e
		if c.owner == nil {
			c.owner = e
		}
		e.children = append(e.children, c)
	}
	return e
}

// OwnedBy overrides the owning entity without touching the scene tree.
func (e *Entity) OwnedBy(owner *Entity) *Entity {
	e.owner = owner
	return e
}

// Capability registers a capability value answered by QueryInterface.
func (e *Entity) Capability(name string, v any) *Entity {
	e.caps[name] = v
	return e
}

// Geometry makes the entity a geometry entity backed by the primitive at idx.
func (e *Entity) Geometry(idx resource.Index) *Entity {
	return e.Capability(GeomEntity, Geometry{Resource: idx})
}

// CollisionResource tags the entity with a collision resource pointer.
func (e *Entity) CollisionResource(idx resource.Index) *Entity {
	buf := make([]byte, 4)
	resource.PutPtr(buf, idx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.property(CollisionResourceProperty); !ok {
		e.define(CollisionResourceProperty, resource.PtrType)
	}
	e.set(CollisionResourceProperty, buf)
	return e
}

// Transform sets the entity's local transform, defining the property if needed.
func (e *Entity) Transform(m transform.Matrix43) *Entity {
	e.mu.Lock()
	e.setTransform(m)
	e.mu.Unlock()
	return e
}

func (e *Entity) setTransform(m transform.Matrix43) {
	if _, ok := e.property(transform.TransformPropertyName); !ok {
		e.define(transform.TransformPropertyName, transform.MatrixType)
	}
	raw, _ := m.MarshalBinary()
	e.set(transform.TransformPropertyName, raw)
}

type PropertyOption func(*typeinfo.Property)

// WithInfoID records a property info id different from the declared id, which
// makes the reflection name untrustworthy.
func WithInfoID(id uint32) PropertyOption {
	return func(p *typeinfo.Property) { p.InfoID = id }
}

// WithoutName drops the reflection name.
func WithoutName() PropertyOption {
	return func(p *typeinfo.Property) { p.Name = "" }
}

func WithGetter(g typeinfo.Getter) PropertyOption {
	return func(p *typeinfo.Property) { p.Get = g }
}

// WithoutType simulates a property whose type information was not loaded.
func WithoutType() PropertyOption {
	return func(p *typeinfo.Property) { p.Type = nil }
}

// Define lays out a new property after the existing ones, honoring the type's alignment.
func (e *Entity) Define(name string, typ *typeinfo.Descriptor, opts ...PropertyOption) *Entity {
	e.mu.Lock()
	e.define(name, typ, opts...)
	e.mu.Unlock()
	return e
}

func (e *Entity) define(name string, typ *typeinfo.Descriptor, opts ...PropertyOption) {
	align := uintptr(typ.Alignment)
	if align == 0 {
		align = 1
	}
	offset := (uintptr(len(e.memory)) + align - 1) / align * align
	memory := make([]byte, offset+uintptr(typ.Size))
	copy(memory, e.memory)
	e.memory = memory

	id := typeinfo.PropertyID(name)
	p := typeinfo.Property{ID: id, InfoID: id, Name: name, Offset: offset, Type: typ}
	for _, opt := range opts {
		opt(&p)
	}
	e.typ.Properties = append(e.typ.Properties, p)
	e.declaredNames[id] = name
}

// Set overwrites the raw value of a defined property. It panics when the
// property does not exist.
func (e *Entity) Set(name string, value []byte) *Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set(name, value)
	return e
}

func (e *Entity) set(name string, value []byte) {
	p, ok := e.property(name)
	if !ok {
		panic(fmt.Sprintf("memsim: entity %s has no property %q", e.id, name))
	}
	copy(e.memory[p.Offset:p.Offset+uintptr(len(value))], value)
}

// Get returns a copy of the raw value of a property defined on the entity.
func (e *Entity) Get(name string) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.get(name)
}

func (e *Entity) get(name string) ([]byte, bool) {
	p, ok := e.property(name)
	if !ok || p.Type == nil {
		return nil, false
	}
	return slices.Clone(e.memory[p.Offset : p.Offset+uintptr(p.Type.Size)]), true
}

// Reference returns the entity last assigned to a reference property.
func (e *Entity) Reference(propertyID uint32) (scene.Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.refs[propertyID]
	return h, ok
}

// Pin reports the last value signalled on a pin.
func (e *Entity) Pin(pinID uint32) (output, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	output, ok = e.pins[pinID]
	return output, ok
}

// property looks a property up by name. Callers hold mu.
func (e *Entity) property(name string) (*typeinfo.Property, bool) {
	return e.typ.FindProperty(typeinfo.PropertyID(name))
}

// Type returns a snapshot of the entity's type information.
func (e *Entity) Type() *typeinfo.EntityType {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t := e.typ
	t.Interfaces = slices.Clone(e.typ.Interfaces)
	t.Properties = slices.Clone(e.typ.Properties)
	return &t
}

// Memory returns a copy of the entity's property memory.
func (e *Entity) Memory() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.memory)
}

func (e *Entity) QueryInterface(name string) (any, bool) {
	v, ok := e.caps[name]
	return v, ok
}

func (e *Entity) Owner() scene.Handle {
	if e.owner == nil {
		return nil
	}
	return e.owner
}

func (e *Entity) BlueprintFactory() (scene.BlueprintHash, bool) {
	if e.factory == nil {
		return 0, false
	}
	return *e.factory, true
}

func (e *Entity) live() scene.LiveNode {
	node := scene.LiveNode{ID: e.id, Blueprint: e.blueprint, Handle: e}
	if len(e.children) > 0 {
		node.Children = make([]scene.LiveNode, len(e.children))
		for i, c := range e.children {
			node.Children[i] = c.live()
		}
	}
	return node
}
