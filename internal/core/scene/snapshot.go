package scene

import (
	"encoding/binary"
	"iter"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/scenebridge/pkg/sequence"
)

// Snapshot is one immutable scene tree produced by a rebuild. It stays valid
// for as long as any holder keeps it, regardless of later rebuilds.
type Snapshot struct {
	root        *Node
	generation  uint64
	nodes       int
	fingerprint uint64
	builtAt     time.Time
}

var emptySnapshot = &Snapshot{}

// Root returns the root node, or nil when no tree has been built.
func (s *Snapshot) Root() *Node {
	return s.root
}

func (s *Snapshot) Empty() bool {
	return s.root == nil
}

// Generation counts installed snapshots, starting at 1. Zero means never built.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

func (s *Snapshot) Nodes() int {
	return s.nodes
}

// Fingerprint hashes the tree shape (ids and blueprints in level order). Two
// snapshots of an unchanged hierarchy share a fingerprint.
func (s *Snapshot) Fingerprint() uint64 {
	return s.fingerprint
}

func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Walk yields every node in level order.
func (s *Snapshot) Walk() iter.Seq[*Node] {
	if s.root == nil {
		return func(func(*Node) bool) {}
	}
	return sequence.LevelOrder(s.root, childrenOf)
}

// Edges yields every node in level order together with its tree parent.
func (s *Snapshot) Edges() iter.Seq[sequence.Edge[*Node]] {
	if s.root == nil {
		return func(func(sequence.Edge[*Node]) bool) {}
	}
	return sequence.LevelOrderEdges(s.root, childrenOf)
}

func fingerprint(root *Node) uint64 {
	d := xxhash.New()
	var buf [24]byte
	for edge := range sequence.LevelOrderEdges(root, childrenOf) {
		var parent EntityID
		if edge.Parent != nil {
			parent = edge.Parent.id
		}
		binary.LittleEndian.PutUint64(buf[0:], uint64(parent))
		binary.LittleEndian.PutUint64(buf[8:], uint64(edge.Node.id))
		binary.LittleEndian.PutUint64(buf[16:], uint64(edge.Node.blueprint))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
