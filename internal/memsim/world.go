package memsim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

var (
	ErrStaleHandle     = errors.New("entity no longer exists")
	ErrForeignHandle   = errors.New("handle does not belong to this world")
	ErrUnknownProperty = errors.New("entity has no such property")
)

type resourceEntry struct {
	info resource.Info
	refs []resource.Index
}

// World owns a simulated scene. It enumerates the hierarchy for the scene
// cache, answers resource container queries and applies intents.
type World struct {
	mu        sync.RWMutex
	root      *Entity
	destroyed map[*Entity]struct{}
	resources map[resource.Index]resourceEntry
	selected  map[string]scene.Handle
}

func NewWorld(root *Entity) *World {
	return &World{
		root:      root,
		destroyed: make(map[*Entity]struct{}),
		resources: make(map[resource.Index]resourceEntry),
		selected:  make(map[string]scene.Handle),
	}
}

// SetRoot replaces the loaded scene. Nil unloads it.
func (w *World) SetRoot(root *Entity) {
	w.mu.Lock()
	w.root = root
	w.mu.Unlock()
}

// Enumerate reports the live hierarchy.
func (w *World) Enumerate(ctx context.Context) (*scene.LiveNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.root == nil {
		return nil, nil
	}
	live := w.root.live()
	return &live, nil
}

// AddResource loads a resource at idx with its outgoing references.
func (w *World) AddResource(idx resource.Index, info resource.Info, refs ...resource.Index) {
	w.mu.Lock()
	w.resources[idx] = resourceEntry{info: info, refs: refs}
	w.mu.Unlock()
}

func (w *World) Info(idx resource.Index) (resource.Info, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.resources[idx]
	return r.info, ok
}

func (w *World) References(idx resource.Index) []resource.Index {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.resources[idx].refs)
}

// Destroy removes e and its subtree from the scene. Handles to them go stale.
func (w *World) Destroy(e *Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e.parent != nil {
		e.parent.children = slices.DeleteFunc(e.parent.children, func(c *Entity) bool { return c == e })
	}
	if w.root == e {
		w.root = nil
	}
	var mark func(*Entity)
	mark = func(n *Entity) {
		w.destroyed[n] = struct{}{}
		for _, c := range n.children {
			mark(c)
		}
	}
	mark(e)
}

// Selected returns the entity last selected by a client. The empty client id
// stands for selections without a client.
func (w *World) Selected(clientID string) (scene.Handle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.selected[clientID]
	return h, ok
}

// RegisterPropertyNames adds every property name defined in the scene to the
// registry's name table.
func (w *World) RegisterPropertyNames(r *typeinfo.Registry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.root == nil {
		return
	}
	var visit func(*Entity)
	visit = func(e *Entity) {
		e.mu.RLock()
		for _, p := range e.typ.Properties {
			if name, ok := e.declaredNames[p.ID]; ok {
				r.RegisterPropertyNames(name)
			}
		}
		e.mu.RUnlock()
		for _, c := range e.children {
			visit(c)
		}
	}
	visit(w.root)
}

func (w *World) OnSelectEntity(h scene.Handle, clientID *string) error {
	e, err := w.entity(h)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.selected[clientKey(clientID)] = e
	w.mu.Unlock()
	return nil
}

func (w *World) OnEntityTransformChange(h scene.Handle, m transform.Matrix43, relative bool, _ *string) error {
	e, err := w.entity(h)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if relative {
		if raw, ok := e.get(transform.TransformPropertyName); ok {
			var current transform.Matrix43
			if err := current.UnmarshalBinary(raw); err != nil {
				return err
			}
			m = m.Mul(current)
		}
	}
	e.setTransform(m)
	return nil
}

func (w *World) OnEntityNameChange(h scene.Handle, name string, _ *string) error {
	e, err := w.entity(h)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
	return nil
}

func (w *World) OnSetPropertyValue(h scene.Handle, propertyID uint32, v property.Value, _ *string) error {
	defer v.Release()
	e, err := w.entity(h)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.typ.FindProperty(propertyID)
	if !ok || p.Type == nil {
		return fmt.Errorf("property %08X: %w", propertyID, ErrUnknownProperty)
	}
	if v.IsReference() {
		if v.Reference == nil {
			delete(e.refs, propertyID)
		} else {
			e.refs[propertyID] = v.Reference
		}
		return nil
	}
	data := v.Buffer.Bytes()
	if data == nil {
		return property.ErrBufferReleased
	}
	p.Type.CopyConstruct(e.memory[p.Offset:], data)
	return nil
}

func (w *World) OnSignalEntityPin(h scene.Handle, pinID uint32, output bool) error {
	e, err := w.entity(h)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.pins[pinID] = output
	e.mu.Unlock()
	return nil
}

func (w *World) entity(h scene.Handle) (*Entity, error) {
	e, ok := h.(*Entity)
	if !ok {
		return nil, ErrForeignHandle
	}
	w.mu.RLock()
	_, gone := w.destroyed[e]
	w.mu.RUnlock()
	if gone {
		return nil, fmt.Errorf("entity %s: %w", e.id, ErrStaleHandle)
	}
	return e, nil
}

func clientKey(clientID *string) string {
	if clientID == nil {
		return ""
	}
	return *clientID
}
