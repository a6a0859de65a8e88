package workspace

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/opspec"
)

// Sets holds every workspace the executor uses: one per (stage, slot, node).
type Sets struct {
	depth     int
	batchSize int
	// byStage[stage][slot] lists the stage's workspaces in node id order.
	byStage [opspec.NumStages][][]*Workspace
	// byNode[slot][nodeID] indexes the same workspaces by node.
	byNode [][]*Workspace
}

// Depth returns the number of slots.
func (s *Sets) Depth() int { return s.depth }

// BatchSize returns the batch size outputs were sized to.
func (s *Sets) BatchSize() int { return s.batchSize }

// Stage returns the workspaces of one stage in one slot, in node id order.
func (s *Sets) Stage(stage opspec.Stage, slot int) []*Workspace {
	if !stage.Valid() || slot < 0 || slot >= s.depth {
		return nil
	}
	return s.byStage[stage][slot]
}

// Node returns the workspace of node id in slot.
func (s *Sets) Node(slot, id int) *Workspace {
	if slot < 0 || slot >= s.depth || id < 0 || id >= len(s.byNode[slot]) {
		return nil
	}
	return s.byNode[slot][id]
}

// Output returns the buffer behind a tensor source in slot.
func (s *Sets) Output(slot int, src graph.TensorSource) *buffer.TensorList {
	ws := s.Node(slot, src.Node)
	if ws == nil || src.Output < 0 || src.Output >= ws.NumOutput() {
		return nil
	}
	return ws.Output(src.Output)
}

// Allocate builds depth independent workspace sets for g. Each node gets
// fresh output buffers tagged with the declared device and sized to
// batchSize; each input is bound to its producer's output buffer in the
// same slot. Data flowing from a later stage into an earlier one is
// rejected with InvalidStageOrder.
func Allocate(ctx context.Context, g *graph.Graph, depth, batchSize int) (*Sets, error) {
	logger := ctxlog.FromContext(ctx)
	if depth < 1 {
		return nil, fmt.Errorf("buffer depth must be at least 1, got %d", depth)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", batchSize)
	}

	if err := checkStageOrder(g); err != nil {
		return nil, err
	}

	sets := &Sets{
		depth:     depth,
		batchSize: batchSize,
		byNode:    make([][]*Workspace, depth),
	}
	for _, stage := range opspec.Stages() {
		sets.byStage[stage] = make([][]*Workspace, depth)
	}

	for slot := 0; slot < depth; slot++ {
		sets.byNode[slot] = make([]*Workspace, g.NumNodes())
		for _, n := range g.Nodes() {
			ws := &Workspace{
				NodeID:     n.ID,
				NodeName:   n.Name,
				Stage:      n.Stage,
				Slot:       slot,
				BatchSize:  batchSize,
				inputRefs:  n.Inputs(),
				outputRefs: n.Outputs(),
			}
			for _, out := range n.Outputs() {
				l := buffer.New(out.Device)
				l.Resize(batchSize)
				ws.outputs = append(ws.outputs, l)
			}
			for _, in := range n.Inputs() {
				src, err := g.TensorSource(in)
				if err != nil {
					return nil, err
				}
				// ids are topological, so the producer is already allocated
				producer := sets.byNode[slot][src.Node]
				if producer == nil {
					return nil, fmt.Errorf("node %q reads %s from node %d which is not allocated yet", n.Name, in, src.Node)
				}
				ws.inputs = append(ws.inputs, producer.outputs[src.Output])
			}
			sets.byNode[slot][n.ID] = ws
			sets.byStage[n.Stage][slot] = append(sets.byStage[n.Stage][slot], ws)
		}
	}

	logger.Debug("Allocate: workspaces built.",
		"depth", depth,
		"batch_size", batchSize,
		"node_count", g.NumNodes(),
		"host", g.NumHostOps(),
		"staging", g.NumStagingOps(),
		"accelerator", g.NumAcceleratorOps(),
	)
	return sets, nil
}

func checkStageOrder(g *graph.Graph) error {
	for _, n := range g.Nodes() {
		for _, p := range n.Parents() {
			parent := g.Node(p)
			if parent.Stage > n.Stage {
				return graph.Errorf(graph.InvalidStageOrder,
					"%s node %q reads from %s node %q: data may not flow backwards through stages",
					n.Stage, n.Name, parent.Stage, parent.Name)
			}
		}
	}
	return nil
}
