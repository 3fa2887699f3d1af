// Package typeinfo adapts the simulation's reflection metadata: type
// descriptors, entity property tables and the JSON converters registered per
// type name.
package typeinfo

import "hash/crc32"

type Flags uint8

const (
	FlagEntityReference Flags = 1 << iota
	FlagResource
)

// Descriptor describes a native type by name, size and alignment.
type Descriptor struct {
	Name      string
	Size      uint16
	Alignment uint16
	Flags     Flags

	// Copy copy-constructs a value from src into dst. Nil means a plain byte copy.
	Copy func(dst, src []byte)
}

func (d *Descriptor) IsEntityReference() bool {
	return d.Flags&FlagEntityReference != 0
}

func (d *Descriptor) IsResource() bool {
	return d.Flags&FlagResource != 0
}

// CopyConstruct copies one value of this type from src into dst.
func (d *Descriptor) CopyConstruct(dst, src []byte) {
	if d.Copy != nil {
		d.Copy(dst, src)
		return
	}
	copy(dst[:d.Size], src[:d.Size])
}

// Getter reads a property through the type's custom accessor into dst.
type Getter func(object []byte, dst []byte) error

// Property is one entry of an entity type's property table.
type Property struct {
	// ID is the id the property is declared with on the entity type.
	ID uint32
	// InfoID is the id recorded in the property info. It differs from ID for
	// properties whose reflection name is not trustworthy.
	InfoID uint32
	// Name is the reflection name. It may be empty.
	Name   string
	Offset uintptr
	// Type is nil when the loaded data carries no type information.
	Type *Descriptor
	Get  Getter
}

func (p *Property) HasCustomAccessor() bool {
	return p.Get != nil
}

// Interface is one capability an entity type implements, most derived first.
type Interface struct {
	Name string
	Type *Descriptor
}

type EntityType struct {
	EntityID   uint64
	Interfaces []Interface
	Properties []Property
}

func (t *EntityType) FindProperty(id uint32) (*Property, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Properties {
		if t.Properties[i].ID == id {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// PrimaryInterface returns the most derived interface, which names the entity's category.
func (t *EntityType) PrimaryInterface() (Interface, bool) {
	if t == nil || len(t.Interfaces) == 0 {
		return Interface{}, false
	}
	return t.Interfaces[0], true
}

func (t *EntityType) Implements(name string) bool {
	if t == nil {
		return false
	}
	for _, iface := range t.Interfaces {
		if iface.Name == name {
			return true
		}
	}
	return false
}

// PropertyID returns the stable id of a property name.
func PropertyID(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name))
}
