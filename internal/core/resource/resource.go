// Package resource describes the simulation's loaded resource container as seen
// by the scene bridge: indices into the container, their runtime ids and the
// reference graph between them.
package resource

import (
	"encoding/binary"
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

// Index addresses a loaded resource in the container. Negative values mean "no resource".
type Index int32

const None Index = -1

func (i Index) Valid() bool {
	return i >= 0
}

// ID is the 64-bit runtime resource id.
type ID uint64

// String renders the id the way hashes are exchanged with editor clients.
func (id ID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}

// Type is the four character resource type, e.g. "ALOC" or "PRIM".
type Type string

const (
	TypeCollision Type = "ALOC"
	TypePrimitive Type = "PRIM"
)

type Info struct {
	ID   ID
	Type Type
}

// Graph answers resource container queries. Implementations must be safe for
// concurrent use.
type Graph interface {
	Info(idx Index) (Info, bool)
	References(idx Index) []Index
}

// PtrType describes a resource pointer property: the int32 container index of
// the referenced resource.
var PtrType = &typeinfo.Descriptor{Name: "ZResourcePtr", Size: 4, Alignment: 4, Flags: typeinfo.FlagResource}

// ReadPtr decodes a resource pointer value.
func ReadPtr(b []byte) Index {
	if len(b) < 4 {
		return None
	}
	return Index(int32(binary.LittleEndian.Uint32(b)))
}

// PutPtr encodes idx as a resource pointer value.
func PutPtr(dst []byte, idx Index) {
	binary.LittleEndian.PutUint32(dst, uint32(int32(idx)))
}
