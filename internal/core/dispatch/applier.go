package dispatch

import (
	"fmt"

	"github.com/zeusync/scenebridge/internal/core/events/bus"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

// Applier is the host's apply layer. It performs the actual writes into the
// simulation and must reject stale handles itself.
type Applier interface {
	OnSelectEntity(h scene.Handle, clientID *string) error
	OnEntityTransformChange(h scene.Handle, m transform.Matrix43, relative bool, clientID *string) error
	OnEntityNameChange(h scene.Handle, name string, clientID *string) error
	// OnSetPropertyValue takes ownership of v and must release it.
	OnSetPropertyValue(h scene.Handle, propertyID uint32, v property.Value, clientID *string) error
	OnSignalEntityPin(h scene.Handle, pinID uint32, output bool) error
}

// Attach subscribes a to every intent type on b. The returned function detaches it.
func Attach(b bus.EventBus, a Applier) (func(), error) {
	handlers := map[string]bus.EventHandler{
		EventSelectEntity: func(e bus.Event) error {
			i := e.Data().(SelectEntity)
			return a.OnSelectEntity(i.Entity, i.ClientID)
		},
		EventTransformChange: func(e bus.Event) error {
			i := e.Data().(TransformChange)
			return a.OnEntityTransformChange(i.Entity, i.Transform, i.Relative, i.ClientID)
		},
		EventNameChange: func(e bus.Event) error {
			i := e.Data().(NameChange)
			return a.OnEntityNameChange(i.Entity, i.Name, i.ClientID)
		},
		EventPropertyChange: func(e bus.Event) error {
			i := e.Data().(PropertyChange)
			return a.OnSetPropertyValue(i.Entity, i.PropertyID, i.Value, i.ClientID)
		},
		EventPinSignal: func(e bus.Event) error {
			i := e.Data().(PinSignal)
			return a.OnSignalEntityPin(i.Entity, i.PinID, i.Output)
		},
	}

	subs := make([]bus.Subscription, 0, len(handlers))
	detach := func() {
		for _, s := range subs {
			_ = b.Unsubscribe(s)
		}
	}
	for eventType, h := range handlers {
		s, err := b.Subscribe(eventType, h)
		if err != nil {
			detach()
			return nil, fmt.Errorf("subscribe %s: %w", eventType, err)
		}
		subs = append(subs, s)
	}
	return detach, nil
}
