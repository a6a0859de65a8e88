package graph

import (
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// Prune removes every node that is not a transitive dependency of outputs.
// Survivors are re-indexed densely in their original relative order, and
// adjacency, the resolution table and the stage counters are rebuilt.
// If any output does not resolve the graph is left untouched.
func (g *Graph) Prune(outputs []tensorref.Ref) error {
	roots := make([]int, 0, len(outputs))
	for _, out := range outputs {
		src, ok := g.sources[out]
		if !ok {
			return Errorf(UnknownOutput, "requested output %s is not produced by any operator", out)
		}
		roots = append(roots, src.Node)
	}

	keep := g.ancestors(roots)
	if len(keep) == len(g.nodes) {
		return nil
	}
	g.rebuild(keep)
	return nil
}

// PruneNames parses canonical `<name>_<device>` output names and prunes.
// A name that does not parse is reported as UnknownOutput.
func (g *Graph) PruneNames(names []string) error {
	refs := make([]tensorref.Ref, 0, len(names))
	for _, n := range names {
		ref, err := tensorref.Parse(n)
		if err != nil {
			return Errorf(UnknownOutput, "requested output %q: %v", n, err)
		}
		refs = append(refs, ref)
	}
	return g.Prune(refs)
}

// ancestors walks parent edges backwards from roots and returns the set of
// reached node ids, roots included.
func (g *Graph) ancestors(roots []int) map[int]struct{} {
	keep := make(map[int]struct{}, len(g.nodes))
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := keep[id]; seen {
			continue
		}
		keep[id] = struct{}{}
		for p := range g.nodes[id].parents {
			if _, seen := keep[p]; !seen {
				stack = append(stack, p)
			}
		}
	}
	return keep
}

func (g *Graph) rebuild(keep map[int]struct{}) {
	remap := make(map[int]int, len(keep))
	kept := make([]*Node, 0, len(keep))
	for _, n := range g.nodes {
		if _, ok := keep[n.ID]; ok {
			remap[n.ID] = len(kept)
			kept = append(kept, n)
		}
	}

	nodes := make([]*Node, len(kept))
	sources := make(map[tensorref.Ref]TensorSource)
	names := make(map[string]int, len(kept))
	var counts [opspec.NumStages]int

	for newID, old := range kept {
		n := newNode(newID, old.Name, old.Spec)
		for p := range old.parents {
			// every parent of a kept node is itself kept
			n.parents[remap[p]] = struct{}{}
		}
		for c := range old.children {
			if id, ok := remap[c]; ok {
				n.children[id] = struct{}{}
			}
		}
		for idx, out := range old.Spec.Outputs {
			sources[out] = TensorSource{Node: newID, Output: idx}
		}
		names[n.Name] = newID
		counts[n.Stage]++
		nodes[newID] = n
	}

	g.nodes = nodes
	g.sources = sources
	g.names = names
	g.stageCounts = counts
}
