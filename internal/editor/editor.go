// Package editor is the inbound surface of the scene bridge. Every mutation
// resolves its selector against the current snapshot first and aborts with
// scene.ErrEntityNotFound before anything is dispatched.
package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/scenebridge/internal/core/dispatch"
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/resolver"
	"github.com/zeusync/scenebridge/internal/core/scanner"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

type Editor struct {
	cache      *scene.Cache
	registry   *scene.Registry
	resolver   *resolver.Resolver
	bridge     *property.Bridge
	scanner    *scanner.Scanner
	dispatcher *dispatch.Dispatcher
	navp       *navpStore
	logger     log.Log
}

func New(
	cache *scene.Cache,
	registry *scene.Registry,
	res *resolver.Resolver,
	bridge *property.Bridge,
	scan *scanner.Scanner,
	dispatcher *dispatch.Dispatcher,
	logger log.Log,
) *Editor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Editor{
		cache:      cache,
		registry:   registry,
		resolver:   res,
		bridge:     bridge,
		scanner:    scan,
		dispatcher: dispatcher,
		navp:       &navpStore{},
		logger:     logger.Named("editor"),
	}
}

// Snapshot returns the scene tree the editor currently resolves against.
func (e *Editor) Snapshot() *scene.Snapshot {
	return e.cache.Snapshot()
}

func (e *Editor) Resolve(sel scene.Selector) (scene.Handle, error) {
	h, ok := e.resolver.Resolve(sel)
	if !ok {
		e.logger.Debug("entity not found", log.String("selector", sel.String()))
		return nil, fmt.Errorf("%s: %w", sel, scene.ErrEntityNotFound)
	}
	return h, nil
}

func (e *Editor) SelectEntity(sel scene.Selector, clientID *string) error {
	h, err := e.Resolve(sel)
	if err != nil {
		return err
	}
	e.dispatcher.SelectEntity(h, clientID)
	return nil
}

func (e *Editor) SetEntityTransform(sel scene.Selector, m transform.Matrix43, relative bool, clientID *string) error {
	h, err := e.Resolve(sel)
	if err != nil {
		return err
	}
	e.dispatcher.TransformChange(h, m, relative, clientID)
	return nil
}

func (e *Editor) SetEntityName(sel scene.Selector, name string, clientID *string) error {
	h, err := e.Resolve(sel)
	if err != nil {
		return err
	}
	e.dispatcher.NameChange(h, name, clientID)
	return nil
}

// SetEntityProperty validates wire for the property and dispatches the change.
// Entity reference values are either "null" or a nested selector.
func (e *Editor) SetEntityProperty(sel scene.Selector, propertyID uint32, wire string, clientID *string) error {
	h, err := e.Resolve(sel)
	if err != nil {
		return err
	}
	p, err := e.bridge.Lookup(h, propertyID)
	if err != nil {
		return err
	}
	v, err := e.bridge.Write(h, p, wire)
	if err != nil {
		return err
	}
	e.dispatcher.PropertyChange(h, propertyID, v, clientID)
	return nil
}

// GetEntityProperty reads a property and renders it as JSON.
func (e *Editor) GetEntityProperty(sel scene.Selector, propertyID uint32) (json.RawMessage, error) {
	h, err := e.Resolve(sel)
	if err != nil {
		return nil, err
	}
	p, err := e.bridge.Lookup(h, propertyID)
	if err != nil {
		return nil, err
	}
	return e.bridge.Encode(h, p)
}

func (e *Editor) SignalEntityPin(sel scene.Selector, pinID uint32, output bool) error {
	h, err := e.Resolve(sel)
	if err != nil {
		return err
	}
	e.dispatcher.PinSignal(h, pinID, output)
	return nil
}

func (e *Editor) RebuildTree(ctx context.Context) (*scene.Snapshot, error) {
	return e.cache.Rebuild(ctx)
}

// RegisterSpawned makes a dynamically spawned entity addressable by id alone.
func (e *Editor) RegisterSpawned(id scene.EntityID, h scene.Handle) {
	e.registry.Register(id, h)
}

func (e *Editor) UnregisterSpawned(id scene.EntityID) {
	e.registry.Unregister(id)
}

func (e *Editor) ScanCollisionCorrelations(emit scanner.EmitFunc) int {
	return e.scanner.CollisionCorrelations(emit)
}

func (e *Editor) ScanSeedPoints() []scanner.Record {
	return e.scanner.SeedPoints()
}

func (e *Editor) ScanBoxEntities() []scanner.Record {
	return e.scanner.BoxEntities()
}

// ScanNavigation gathers seed points and box entities concurrently.
func (e *Editor) ScanNavigation(ctx context.Context) (seeds, boxes []scanner.Record, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seeds = e.scanner.SeedPoints()
		return ctx.Err()
	})
	g.Go(func() error {
		boxes = e.scanner.BoxEntities()
		return ctx.Err()
	})
	if err = g.Wait(); err != nil {
		return nil, nil, err
	}
	return seeds, boxes, nil
}
