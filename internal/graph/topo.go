package graph

import (
	"container/heap"
	"fmt"
)

// idHeap is a min-heap of node ids.
type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalOrder returns node ids with every parent before its children
// (Kahn's algorithm, lowest ready id first). A graph built through
// AddOperator is acyclic, so an error here means the topology was corrupted.
func (g *Graph) TopologicalOrder() ([]int, error) {
	inDegree := make([]int, len(g.nodes))
	ready := &idHeap{}
	for _, n := range g.nodes {
		inDegree[n.ID] = len(n.parents)
		if inDegree[n.ID] == 0 {
			*ready = append(*ready, n.ID)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		order = append(order, id)
		for c := range g.nodes[id].children {
			inDegree[c]--
			if inDegree[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph contains a cycle: ordered %d of %d nodes", len(order), len(g.nodes))
	}
	return order, nil
}

// Validate checks the structural invariants: dense ids, mutually consistent
// parent/child sets and a resolution table that points at real outputs.
func (g *Graph) Validate() error {
	for i, n := range g.nodes {
		if n.ID != i {
			return fmt.Errorf("node at position %d has id %d", i, n.ID)
		}
		for p := range n.parents {
			if p < 0 || p >= len(g.nodes) || !g.nodes[p].HasChild(i) {
				return fmt.Errorf("node %d lists parent %d which does not list it as a child", i, p)
			}
		}
		for c := range n.children {
			if c < 0 || c >= len(g.nodes) || !g.nodes[c].HasParent(i) {
				return fmt.Errorf("node %d lists child %d which does not list it as a parent", i, c)
			}
		}
	}
	for ref, src := range g.sources {
		n := g.Node(src.Node)
		if n == nil || src.Output >= len(n.Spec.Outputs) || n.Spec.Outputs[src.Output] != ref {
			return fmt.Errorf("tensor %s resolves to a missing output (%d, %d)", ref, src.Node, src.Output)
		}
	}
	_, err := g.TopologicalOrder()
	return err
}
