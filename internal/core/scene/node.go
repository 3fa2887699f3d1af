package scene

import (
	"cmp"
	"iter"
	"slices"

	"github.com/zeusync/scenebridge/pkg/sequence"
)

// LiveNode is one entry of the live hierarchy as reported by an Enumerator.
type LiveNode struct {
	ID        EntityID
	Blueprint BlueprintHash
	Handle    Handle
	Children  []LiveNode
}

// Node is an immutable scene tree node. Once built, a node and everything
// reachable from it never changes.
type Node struct {
	id        EntityID
	blueprint BlueprintHash
	handle    Handle
	children  []*Node // ordered by id
}

func (n *Node) ID() EntityID {
	return n.id
}

func (n *Node) Blueprint() BlueprintHash {
	return n.blueprint
}

func (n *Node) Handle() Handle {
	return n.handle
}

func (n *Node) Len() int {
	return len(n.children)
}

// Children yields the direct children ordered by entity id.
func (n *Node) Children() iter.Seq[*Node] {
	return slices.Values(n.children)
}

func (n *Node) Child(id EntityID) (*Node, bool) {
	i, ok := slices.BinarySearchFunc(n.children, id, func(c *Node, id EntityID) int {
		return cmp.Compare(c.id, id)
	})
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

func childrenOf(n *Node) iter.Seq[*Node] {
	return n.Children()
}

// build copies a live description into a fresh immutable tree. Children are
// keyed by id; when ids collide among siblings the later entry wins.
func build(live *LiveNode) (*Node, int) {
	node := &Node{id: live.ID, blueprint: live.Blueprint, handle: live.Handle}
	count := 1
	if len(live.Children) == 0 {
		return node, count
	}

	byID := make(map[EntityID]*Node, len(live.Children))
	for i := range live.Children {
		child, n := build(&live.Children[i])
		if prev, ok := byID[child.id]; ok {
			count -= countNodes(prev)
		}
		byID[child.id] = child
		count += n
	}
	node.children = make([]*Node, 0, len(byID))
	for _, child := range byID {
		node.children = append(node.children, child)
	}
	slices.SortFunc(node.children, func(a, b *Node) int {
		return cmp.Compare(a.id, b.id)
	})
	return node, count
}

func countNodes(root *Node) int {
	n := 0
	for range sequence.LevelOrder(root, childrenOf) {
		n++
	}
	return n
}
