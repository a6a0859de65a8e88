package graph

import (
	"sort"

	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// Node is one operator instance in the graph. Its ID is dense and only
// stable until the next prune.
type Node struct {
	ID    int
	Name  string
	Stage opspec.Stage
	Spec  *opspec.Spec

	parents  map[int]struct{}
	children map[int]struct{}
}

func newNode(id int, name string, spec *opspec.Spec) *Node {
	return &Node{
		ID:       id,
		Name:     name,
		Stage:    spec.Stage,
		Spec:     spec,
		parents:  make(map[int]struct{}),
		children: make(map[int]struct{}),
	}
}

// Outputs returns the tensors the node produces, in output-index order.
func (n *Node) Outputs() []tensorref.Ref {
	return n.Spec.Outputs
}

// Inputs returns the tensors the node consumes, in input-index order.
func (n *Node) Inputs() []tensorref.Ref {
	return n.Spec.Inputs
}

// Parents returns the parent ids in ascending order.
func (n *Node) Parents() []int {
	return sortedIDs(n.parents)
}

// Children returns the child ids in ascending order.
func (n *Node) Children() []int {
	return sortedIDs(n.children)
}

// HasParent reports whether id is a parent of n.
func (n *Node) HasParent(id int) bool {
	_, ok := n.parents[id]
	return ok
}

// HasChild reports whether id is a child of n.
func (n *Node) HasChild(id int) bool {
	_, ok := n.children[id]
	return ok
}

// NumParents returns the number of distinct parents.
func (n *Node) NumParents() int { return len(n.parents) }

// NumChildren returns the number of distinct children.
func (n *Node) NumChildren() int { return len(n.children) }

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
