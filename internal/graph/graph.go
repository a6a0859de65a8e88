package graph

import (
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// TensorSource identifies the node and output index that produce a tensor.
type TensorSource struct {
	Node   int
	Output int
}

// Graph is the operator DAG plus its tensor resolution table.
type Graph struct {
	nodes       []*Node
	sources     map[tensorref.Ref]TensorSource
	names       map[string]int
	stageCounts [opspec.NumStages]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		sources: make(map[tensorref.Ref]TensorSource),
		names:   make(map[string]int),
	}
}

// AddOperator appends a node for spec and wires it to the producers of its
// inputs. When name is empty a name of the form `<Type>_<id>` is generated.
// The spec is copied; later changes by the caller do not affect the graph.
func (g *Graph) AddOperator(spec *opspec.Spec, name string) error {
	if err := spec.Validate(); err != nil {
		return Errorf(InvalidSpec, "%v", err)
	}
	spec = spec.Clone()

	id := len(g.nodes)
	if name == "" {
		name = fmt.Sprintf("%s_%d", spec.Type, id)
	}
	if prev, exists := g.names[name]; exists {
		return Errorf(DuplicateName, "operator name %q already used by node %d", name, prev)
	}

	if err := checkDevices(spec, name); err != nil {
		return err
	}

	parents := make(map[int]struct{}, len(spec.Inputs))
	for _, in := range spec.Inputs {
		src, ok := g.sources[in]
		if !ok {
			return Errorf(UnresolvedInput, "operator %q: input %s is not produced by any earlier operator%s",
				name, in, g.otherDeviceHint(in))
		}
		parents[src.Node] = struct{}{}
	}

	seen := make(map[tensorref.Ref]struct{}, len(spec.Outputs))
	for _, out := range spec.Outputs {
		if src, ok := g.sources[out]; ok {
			return Errorf(DuplicateTensor, "operator %q: output %s is already produced by node %d", name, out, src.Node)
		}
		if _, dup := seen[out]; dup {
			return Errorf(DuplicateTensor, "operator %q: output %s is declared twice", name, out)
		}
		seen[out] = struct{}{}
	}

	n := newNode(id, name, spec)
	for p := range parents {
		n.parents[p] = struct{}{}
		g.nodes[p].children[id] = struct{}{}
	}
	for idx, out := range spec.Outputs {
		g.sources[out] = TensorSource{Node: id, Output: idx}
	}
	g.nodes = append(g.nodes, n)
	g.names[name] = id
	g.stageCounts[spec.Stage]++
	return nil
}

// checkDevices enforces which devices each stage may read and write.
func checkDevices(spec *opspec.Spec, name string) error {
	switch spec.Stage {
	case opspec.Host:
		for _, r := range spec.Inputs {
			if r.Device != tensorref.Host {
				return Errorf(InvalidDevice, "host operator %q cannot read %s", name, r)
			}
		}
		for _, r := range spec.Outputs {
			if r.Device != tensorref.Host {
				return Errorf(InvalidDevice, "host operator %q cannot produce %s", name, r)
			}
		}
	case opspec.Staging:
		for _, r := range spec.Inputs {
			if r.Device != tensorref.Host {
				return Errorf(InvalidDevice, "staging operator %q cannot read %s", name, r)
			}
		}
	case opspec.Accelerator:
		for _, r := range spec.Outputs {
			if r.Device != tensorref.Accelerator {
				return Errorf(InvalidDevice, "accelerator operator %q cannot produce %s", name, r)
			}
		}
	}
	return nil
}

func (g *Graph) otherDeviceHint(ref tensorref.Ref) string {
	for _, d := range []tensorref.Device{tensorref.Host, tensorref.Accelerator} {
		if d == ref.Device {
			continue
		}
		if _, ok := g.sources[tensorref.New(ref.Name, d)]; ok {
			return fmt.Sprintf(" (it exists on device %s)", d)
		}
	}
	return ""
}

// TensorSource resolves a tensor reference to its producer.
func (g *Graph) TensorSource(ref tensorref.Ref) (TensorSource, error) {
	src, ok := g.sources[ref]
	if !ok {
		return TensorSource{}, Errorf(UnknownTensor, "tensor %s was never produced", ref)
	}
	return src, nil
}

// HasTensor reports whether ref is produced by some node.
func (g *Graph) HasTensor(ref tensorref.Ref) bool {
	_, ok := g.sources[ref]
	return ok
}

// Node returns the node with the given id, or nil when out of range.
func (g *Graph) Node(id int) *Node {
	if id < 0 || id >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// NodeByName returns the node with the given name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	id, ok := g.names[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in id order. The slice must not be modified.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NumNodes returns the total node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumHostOps returns the number of host-stage nodes.
func (g *Graph) NumHostOps() int { return g.stageCounts[opspec.Host] }

// NumStagingOps returns the number of staging-stage nodes.
func (g *Graph) NumStagingOps() int { return g.stageCounts[opspec.Staging] }

// NumAcceleratorOps returns the number of accelerator-stage nodes.
func (g *Graph) NumAcceleratorOps() int { return g.stageCounts[opspec.Accelerator] }

// NumOps returns the number of nodes in the given stage.
func (g *Graph) NumOps(stage opspec.Stage) int {
	if !stage.Valid() {
		return 0
	}
	return g.stageCounts[stage]
}

// StageNodes returns the ids of the nodes in stage, in ascending order.
func (g *Graph) StageNodes(stage opspec.Stage) []int {
	ids := make([]int, 0, g.NumOps(stage))
	for _, n := range g.nodes {
		if n.Stage == stage {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Clone returns a deep copy of the graph's topology. Specs are shared.
func (g *Graph) Clone() *Graph {
	c := New()
	c.nodes = make([]*Node, len(g.nodes))
	for i, n := range g.nodes {
		cn := newNode(n.ID, n.Name, n.Spec)
		for p := range n.parents {
			cn.parents[p] = struct{}{}
		}
		for ch := range n.children {
			cn.children[ch] = struct{}{}
		}
		c.nodes[i] = cn
	}
	for k, v := range g.sources {
		c.sources[k] = v
	}
	for k, v := range g.names {
		c.names[k] = v
	}
	c.stageCounts = g.stageCounts
	return c
}
