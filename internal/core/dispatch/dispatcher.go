// Package dispatch turns resolved targets and validated payloads into intents
// and hands them to the host's apply layer over the event bus. It never
// touches simulation memory itself.
package dispatch

import (
	"errors"

	"github.com/google/uuid"

	"github.com/zeusync/scenebridge/internal/core/events/bus"
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

const source = "scenebridge"

// Dispatcher publishes intents. Delivery is fire-and-forget: apply errors are
// logged, never reported back to the caller. A property value that reaches no
// applier is released here.
type Dispatcher struct {
	bus     bus.EventBus
	async   bool
	logger  log.Log
	metrics *metrics.Collector
}

type Option func(*Dispatcher)

// WithAsync publishes each intent from its own goroutine.
func WithAsync(async bool) Option {
	return func(d *Dispatcher) { d.async = async }
}

func WithLogger(l log.Log) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func New(b bus.EventBus, opts ...Option) *Dispatcher {
	d := &Dispatcher{bus: b, logger: log.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("dispatch")
	return d
}

func (d *Dispatcher) Bus() bus.EventBus {
	return d.bus
}

func (d *Dispatcher) SelectEntity(h scene.Handle, clientID *string) {
	d.Dispatch(SelectEntity{Header: header(h, clientID)})
}

func (d *Dispatcher) TransformChange(h scene.Handle, m transform.Matrix43, relative bool, clientID *string) {
	d.Dispatch(TransformChange{Header: header(h, clientID), Transform: m, Relative: relative})
}

func (d *Dispatcher) NameChange(h scene.Handle, name string, clientID *string) {
	d.Dispatch(NameChange{Header: header(h, clientID), Name: name})
}

func (d *Dispatcher) PropertyChange(h scene.Handle, propertyID uint32, v property.Value, clientID *string) {
	d.Dispatch(PropertyChange{Header: header(h, clientID), PropertyID: propertyID, Value: v})
}

func (d *Dispatcher) PinSignal(h scene.Handle, pinID uint32, output bool) {
	d.Dispatch(PinSignal{Header: header(h, nil), PinID: pinID, Output: output})
}

// Dispatch publishes an intent.
func (d *Dispatcher) Dispatch(intent Intent) {
	var meta map[string]any
	if c := intent.Client(); c != nil {
		meta = map[string]any{"client": *c}
	}
	event := bus.NewEvent(intent.EventType(), source, intent, meta)
	d.metrics.IncIntent(intent.EventType())

	if d.async {
		ch := d.bus.PublishAsync(event)
		go func() {
			if err := <-ch; err != nil {
				d.applyFailed(intent, err)
			}
		}()
		return
	}
	if err := d.bus.Publish(event); err != nil {
		d.applyFailed(intent, err)
	}
}

func (d *Dispatcher) applyFailed(intent Intent, err error) {
	if errors.Is(err, bus.ErrNoHandlers) {
		// Nobody took ownership, so the payload is ours to free.
		if pc, ok := intent.(PropertyChange); ok {
			pc.Value.Release()
		}
		d.logger.Warn("no apply layer attached",
			log.String("intent", intent.EventType()),
			log.String("id", intent.IntentID()),
		)
		return
	}
	d.logger.Warn("apply layer rejected intent",
		log.String("intent", intent.EventType()),
		log.String("id", intent.IntentID()),
		log.Error(err),
	)
}

func header(h scene.Handle, clientID *string) Header {
	return Header{ID: uuid.NewString(), Entity: h, ClientID: clientID}
}
