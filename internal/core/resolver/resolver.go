// Package resolver turns entity selectors into live handles.
package resolver

import (
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
	"github.com/zeusync/scenebridge/internal/core/scene"
)

const (
	pathRegistry = "registry"
	pathTree     = "tree"
)

// Resolver finds entities either in the runtime registry of spawned entities
// or in the current scene tree snapshot.
type Resolver struct {
	cache    *scene.Cache
	registry *scene.Registry
	logger   log.Log
	metrics  *metrics.Collector
}

func New(cache *scene.Cache, registry *scene.Registry, logger log.Log, m *metrics.Collector) *Resolver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{cache: cache, registry: registry, logger: logger.Named("resolver"), metrics: m}
}

// Resolve looks sel up against the current snapshot.
func (r *Resolver) Resolve(sel scene.Selector) (scene.Handle, bool) {
	return r.ResolveIn(r.cache.Snapshot(), sel)
}

// ResolveIn looks sel up against snap. Nothing resolves before the first tree
// has been built, not even spawned entities.
func (r *Resolver) ResolveIn(snap *scene.Snapshot, sel scene.Selector) (scene.Handle, bool) {
	if snap.Empty() {
		return nil, false
	}

	if sel.Blueprint == nil {
		h, ok := r.registry.Lookup(sel.ID)
		r.metrics.ObserveResolve(pathRegistry, ok)
		return h, ok
	}

	node, ok := find(snap, sel.ID, *sel.Blueprint)
	r.metrics.ObserveResolve(pathTree, ok)
	if !ok {
		r.logger.Debug("selector did not resolve", log.String("selector", sel.String()))
		return nil, false
	}
	return node.Handle(), true
}

// find walks the tree in level order. A node with the right id matches when
// its own blueprint, its owner's blueprint factory or its own blueprint
// factory equals tblu; the first such node wins. Without any such match the
// last node carrying the id is returned.
func find(snap *scene.Snapshot, id scene.EntityID, tblu scene.BlueprintHash) (*scene.Node, bool) {
	var fallback *scene.Node
	for node := range snap.Walk() {
		if node.ID() != id {
			continue
		}
		if matches(node, tblu) {
			return node, true
		}
		fallback = node
	}
	return fallback, fallback != nil
}

func matches(node *scene.Node, tblu scene.BlueprintHash) bool {
	if node.Blueprint() == tblu {
		return true
	}
	h := node.Handle()
	if h == nil {
		return false
	}
	if owner := h.Owner(); owner != nil {
		if factory, ok := owner.BlueprintFactory(); ok && factory == tblu {
			return true
		}
	}
	if factory, ok := h.BlueprintFactory(); ok && factory == tblu {
		return true
	}
	return false
}
