package dispatch

import (
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

// Event types published on the bus, one per intent kind.
const (
	EventSelectEntity    = "entity.select"
	EventTransformChange = "entity.transform"
	EventNameChange      = "entity.name"
	EventPropertyChange  = "entity.property"
	EventPinSignal       = "entity.pin"
)

// Intent is a validated mutation request for the apply layer.
type Intent interface {
	EventType() string
	IntentID() string
	Target() scene.Handle
	Client() *string
}

// Header carries what every intent has in common.
type Header struct {
	ID     string
	Entity scene.Handle
	// ClientID names the client that asked for the change, if any.
	ClientID *string
}

func (h Header) IntentID() string     { return h.ID }
func (h Header) Target() scene.Handle { return h.Entity }
func (h Header) Client() *string      { return h.ClientID }

type SelectEntity struct {
	Header
}

type TransformChange struct {
	Header
	Transform transform.Matrix43
	Relative  bool
}

type NameChange struct {
	Header
	Name string
}

// PropertyChange owns Value. The applier releases it once applied.
type PropertyChange struct {
	Header
	PropertyID uint32
	Value      property.Value
}

type PinSignal struct {
	Header
	PinID  uint32
	Output bool
}

func (SelectEntity) EventType() string    { return EventSelectEntity }
func (TransformChange) EventType() string { return EventTransformChange }
func (NameChange) EventType() string      { return EventNameChange }
func (PropertyChange) EventType() string  { return EventPropertyChange }
func (PinSignal) EventType() string       { return EventPinSignal }
