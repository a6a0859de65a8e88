package scheduler

import (
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/opspec"
)

// Plan is the static execution plan for one stage.
type Plan struct {
	Stage opspec.Stage
	// Order lists the stage's node ids, parents before children.
	Order []int

	deps       map[int]int
	dependents map[int][]int
	roots      []int
}

// NewStagePlan builds the plan for stage from g.
func NewStagePlan(g *graph.Graph, stage opspec.Stage) (*Plan, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("planning %s stage: %w", stage, err)
	}

	p := &Plan{
		Stage:      stage,
		deps:       make(map[int]int),
		dependents: make(map[int][]int),
	}
	for _, id := range order {
		n := g.Node(id)
		if n.Stage != stage {
			continue
		}
		p.Order = append(p.Order, id)

		count := 0
		for _, parent := range n.Parents() {
			if g.Node(parent).Stage == stage {
				count++
				p.dependents[parent] = append(p.dependents[parent], id)
			}
		}
		p.deps[id] = count
		if count == 0 {
			p.roots = append(p.roots, id)
		}
	}
	return p, nil
}

// Len returns the number of nodes in the stage.
func (p *Plan) Len() int { return len(p.Order) }

// Roots returns the nodes with no same-stage parents.
func (p *Plan) Roots() []int { return p.roots }

// NumDeps returns how many same-stage parents id waits for.
func (p *Plan) NumDeps(id int) int { return p.deps[id] }

// Dependents returns the same-stage children of id.
func (p *Plan) Dependents(id int) []int { return p.dependents[id] }
