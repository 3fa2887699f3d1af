// Package scanner walks the current scene tree snapshot and correlates nodes
// with the resources an editor client needs to mirror them, streaming results
// in bounded batches.
package scanner

import (
	"github.com/zeusync/scenebridge/internal/core/observability/log"
	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
)

const DefaultBatchSize = 10

// Record is one correlated node.
type Record struct {
	ID        scene.EntityID
	Blueprint scene.BlueprintHash
	// Hashes are the correlated resource ids, formatted as 16 hex digits.
	Hashes []string
	// Rotation is the node's world orientation.
	Rotation transform.Quat
	Handle   scene.Handle
}

// Classifier decides whether a node qualifies and builds its record. parent is
// nil for the root.
type Classifier func(parent, node *scene.Node) (Record, bool)

// EmitFunc receives a batch. The batch belongs to the callee. The last call of
// a scan has final set, even when the batch is empty.
type EmitFunc func(batch []Record, final bool)

type Scanner struct {
	cache      *scene.Cache
	bridge     *property.Bridge
	compositor *transform.Compositor
	resources  resource.Graph
	batchSize  int

	logger  log.Log
	metrics *metrics.Collector
}

type Option func(*Scanner)

// WithBatchSize sets the number of records per emitted batch. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(s *Scanner) { s.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) { s.metrics = m }
}

func New(cache *scene.Cache, bridge *property.Bridge, compositor *transform.Compositor, resources resource.Graph, opts ...Option) *Scanner {
	s := &Scanner{
		cache:      cache,
		bridge:     bridge,
		compositor: compositor,
		resources:  resources,
		batchSize:  DefaultBatchSize,
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scanner")
	return s
}

// Scan walks the current snapshot in level order and emits every record
// classify produces. A batch is emitted as soon as it is full; the scan always
// ends with a final emit. It returns the number of records emitted.
func (s *Scanner) Scan(classify Classifier, emit EmitFunc) int {
	snap := s.cache.Snapshot()
	batch := make([]Record, 0, s.batchSize)
	total := 0
	for edge := range snap.Edges() {
		rec, ok := classify(edge.Parent, edge.Node)
		if !ok {
			continue
		}
		batch = append(batch, rec)
		total++
		if len(batch) == s.batchSize {
			emit(batch, false)
			batch = make([]Record, 0, s.batchSize)
		}
	}
	emit(batch, true)
	return total
}

// orientation computes the record rotation, logging and skipping nodes whose
// transforms cannot be read.
func (s *Scanner) orientation(node *scene.Node) (transform.Quat, bool) {
	q, err := s.compositor.Orientation(node.Handle())
	if err != nil {
		s.logger.Warn("skipping node with unreadable transform",
			log.String("entity", node.ID().String()),
			log.Error(err),
		)
		return transform.Identity(), false
	}
	return q, true
}

func newRecord(node *scene.Node, hashes []string, rotation transform.Quat) Record {
	return Record{
		ID:        node.ID(),
		Blueprint: node.Blueprint(),
		Hashes:    hashes,
		Rotation:  rotation,
		Handle:    node.Handle(),
	}
}

func primaryInterface(node *scene.Node) (string, bool) {
	h := node.Handle()
	if h == nil {
		return "", false
	}
	iface, ok := h.Type().PrimaryInterface()
	return iface.Name, ok
}
