package config

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/opspec"
)

// Model is the unified, format-agnostic representation of a pipeline.
type Model struct {
	// Operators in declaration order.
	Operators []*OperatorDecl
	// Outputs are canonical `<name>_<device>` tensor names.
	Outputs []string
}

// OperatorDecl is one declared operator.
type OperatorDecl struct {
	Name string
	Spec *opspec.Spec
	// Source is where the declaration came from, for error messages.
	Source string
}

// Graph adds every declared operator to a new graph, in declaration order.
func (m *Model) Graph(ctx context.Context) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := graph.New()
	for _, decl := range m.Operators {
		if err := g.AddOperator(decl.Spec, decl.Name); err != nil {
			if decl.Source != "" {
				return nil, fmt.Errorf("operator %q (%s): %w", decl.Name, decl.Source, err)
			}
			return nil, fmt.Errorf("operator %q: %w", decl.Name, err)
		}
	}
	logger.Debug("Graph: operators added.",
		"node_count", g.NumNodes(),
		"host", g.NumHostOps(),
		"staging", g.NumStagingOps(),
		"accelerator", g.NumAcceleratorOps(),
	)
	return g, nil
}
