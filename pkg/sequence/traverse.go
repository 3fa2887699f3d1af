package sequence

import "iter"

// LevelOrder walks a tree breadth-first starting at root. children yields the
// direct descendants of a node in the order they should be visited. Stopping
// the iteration early stops the walk.
func LevelOrder[T any](root T, children func(T) iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		queue := NewQueue[T](16)
		queue.Enqueue(root)
		for {
			node, ok := queue.Dequeue()
			if !ok {
				return
			}
			if !yield(node) {
				return
			}
			for child := range children(node) {
				queue.Enqueue(child)
			}
		}
	}
}

// Edge pairs a visited node with the node it was reached from. Parent is the
// zero value for the root.
type Edge[T any] struct {
	Parent T
	Node   T
}

// LevelOrderEdges is LevelOrder carrying the parent of every visited node.
func LevelOrderEdges[T any](root T, children func(T) iter.Seq[T]) iter.Seq[Edge[T]] {
	var none T
	return LevelOrder(Edge[T]{Parent: none, Node: root}, func(e Edge[T]) iter.Seq[Edge[T]] {
		return func(yield func(Edge[T]) bool) {
			for child := range children(e.Node) {
				if !yield(Edge[T]{Parent: e.Node, Node: child}) {
					return
				}
			}
		}
	})
}
