package sequence

import (
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testNode struct {
	name     string
	children []*testNode
}

func childrenOf(n *testNode) iter.Seq[*testNode] {
	return slices.Values(n.children)
}

func buildTree() *testNode {
	return &testNode{name: "root", children: []*testNode{
		{name: "a", children: []*testNode{{name: "a1"}, {name: "a2"}}},
		{name: "b", children: []*testNode{{name: "b1"}}},
	}}
}

func TestLevelOrder(t *testing.T) {
	var names []string
	for n := range LevelOrder(buildTree(), childrenOf) {
		names = append(names, n.name)
	}
	assert.Equal(t, []string{"root", "a", "b", "a1", "a2", "b1"}, names)
}

func TestLevelOrderStopsEarly(t *testing.T) {
	var names []string
	for n := range LevelOrder(buildTree(), childrenOf) {
		names = append(names, n.name)
		if n.name == "b" {
			break
		}
	}
	assert.Equal(t, []string{"root", "a", "b"}, names)
}

func TestLevelOrderEdges(t *testing.T) {
	parents := map[string]string{}
	for e := range LevelOrderEdges(buildTree(), childrenOf) {
		if e.Parent == nil {
			parents[e.Node.name] = ""
			continue
		}
		parents[e.Node.name] = e.Parent.name
	}
	assert.Equal(t, map[string]string{
		"root": "", "a": "root", "b": "root", "a1": "a", "a2": "a", "b1": "b",
	}, parents)
}

func TestQueueGrowsAndKeepsOrder(t *testing.T) {
	q := NewQueue[int](2)
	for i := 0; i < 5; i++ {
		q.Enqueue(i)
	}
	v, _ := q.Dequeue()
	assert.Equal(t, 0, v)
	q.Enqueue(5)
	q.Enqueue(6)

	var got []int
	for !q.IsEmpty() {
		v, _ := q.Dequeue()
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)

	_, ok := q.Dequeue()
	assert.False(t, ok)
}
