package typeinfo

import "fmt"

// Adapter answers reflection questions about entity properties.
type Adapter struct {
	registry *Registry
}

func NewAdapter(registry *Registry) *Adapter {
	return &Adapter{registry: registry}
}

func (a *Adapter) Registry() *Registry {
	return a.registry
}

// PropertyName resolves the name of p. Resource-typed properties and properties
// whose info id disagrees with their declared id carry no usable reflection
// name, so the name table is consulted instead.
func (a *Adapter) PropertyName(p *Property) (string, bool) {
	if !trustworthyName(p) {
		return a.registry.PropertyName(p.ID)
	}
	return p.Name, true
}

func trustworthyName(p *Property) bool {
	return p.Type != nil && !p.Type.IsResource() && p.InfoID == p.ID && p.Name != ""
}

// FindByReflectionName looks a property up using only names recorded in the
// reflection metadata, skipping properties whose reflection name is unusable.
func (a *Adapter) FindByReflectionName(t *EntityType, name string) (*Property, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		if trustworthyName(p) && p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// FindByName looks a property up by its resolved name.
func (a *Adapter) FindByName(t *EntityType, name string) (*Property, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Properties {
		if n, ok := a.PropertyName(&t.Properties[i]); ok && n == name {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// Lookup finds the property with the given id and checks that its type is known.
func (a *Adapter) Lookup(t *EntityType, id uint32) (*Property, error) {
	if t == nil {
		return nil, fmt.Errorf("entity has no type: %w", ErrTypeInfoUnavailable)
	}
	p, ok := t.FindProperty(id)
	if !ok {
		return nil, fmt.Errorf("property %08X: %w", id, ErrPropertyNotFound)
	}
	if p.Type == nil || p.Type.Size == 0 {
		return nil, fmt.Errorf("property %08X: %w", id, ErrTypeInfoUnavailable)
	}
	return p, nil
}
