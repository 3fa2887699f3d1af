package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
)

// Enumerator reports the current live hierarchy. A nil root means nothing is loaded.
type Enumerator interface {
	Enumerate(ctx context.Context) (*LiveNode, error)
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func(ctx context.Context) (*LiveNode, error)

func (f EnumeratorFunc) Enumerate(ctx context.Context) (*LiveNode, error) {
	return f(ctx)
}

// Cache owns the current scene tree snapshot. Readers take the shared lock only
// to copy the snapshot pointer; rebuilds build the new tree without holding any
// lock and take the exclusive lock only for the swap.
type Cache struct {
	mu      sync.RWMutex
	current *Snapshot

	enumerator Enumerator
	rebuilds   singleflight.Group
	generation uint64 // guarded by mu

	logger  log.Log
	metrics *metrics.Collector
}

type CacheOption func(*Cache)

func WithLogger(logger log.Log) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(m *metrics.Collector) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

func NewCache(enumerator Enumerator, opts ...CacheOption) *Cache {
	c := &Cache{
		current:    emptySnapshot,
		enumerator: enumerator,
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("scene")
	return c
}

// Snapshot returns the current tree. It never returns nil; before the first
// rebuild the snapshot is empty.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Rebuild enumerates the live hierarchy and installs a new snapshot. Concurrent
// calls share a single enumeration.
func (c *Cache) Rebuild(ctx context.Context) (*Snapshot, error) {
	if c.enumerator == nil {
		return nil, ErrNoEnumerator
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Joined callers share one enumeration, so it runs detached from any single
	// caller's cancellation. Each caller still stops waiting on its own context.
	shared := context.WithoutCancel(ctx)
	ch := c.rebuilds.DoChan("rebuild", func() (any, error) {
		start := time.Now()
		live, err := c.enumerator.Enumerate(shared)
		if err != nil {
			return nil, fmt.Errorf("enumerate live hierarchy: %w", err)
		}
		snap := c.install(live, start)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Error("scene tree rebuild failed", log.Error(res.Err))
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("scene tree rebuild shared with a concurrent caller")
		}
		return res.Val.(*Snapshot), nil
	}
}

// Install builds a snapshot from an already enumerated hierarchy and makes it current.
func (c *Cache) Install(live *LiveNode) *Snapshot {
	return c.install(live, time.Now())
}

func (c *Cache) install(live *LiveNode, start time.Time) *Snapshot {
	snap := &Snapshot{builtAt: time.Now()}
	if live != nil {
		snap.root, snap.nodes = build(live)
		snap.fingerprint = fingerprint(snap.root)
	}

	c.mu.Lock()
	previous := c.current
	c.generation++
	snap.generation = c.generation
	c.current = snap
	c.mu.Unlock()

	elapsed := time.Since(start)
	c.metrics.ObserveRebuild(elapsed, snap.nodes)
	c.logger.Info("scene tree rebuilt",
		log.Uint64("generation", snap.generation),
		log.Int("nodes", snap.nodes),
		log.Hex("fingerprint", snap.fingerprint),
		log.Bool("unchanged", !previous.Empty() && previous.fingerprint == snap.fingerprint),
		log.Duration("elapsed", elapsed),
	)
	return snap
}
