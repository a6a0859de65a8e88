// Package make_contiguous provides the MakeContiguous operator: the staging
// node that materializes a private copy of host data, optionally moving it
// to the accelerator.
package make_contiguous

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// Type is the operator type name used in pipeline definitions.
const Type = "MakeContiguous"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the MakeContiguous operator for the staging stage.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Type, &registry.RegisteredOperator{
		Stages:      []opspec.Stage{opspec.Staging},
		Description: "Materializes a private, uniformly typed copy of a host batch.",
		New:         New,
	})
}

type makeContiguous struct{}

// New creates a MakeContiguous operator with exactly one input and output.
func New(spec *opspec.Spec) (operator.Operator, error) {
	if len(spec.Inputs) != 1 || len(spec.Outputs) != 1 {
		return nil, fmt.Errorf("%s needs exactly one input and one output", Type)
	}
	return makeContiguous{}, nil
}

func (makeContiguous) Run(ctx context.Context, ws *workspace.Workspace) error {
	in, out := ws.Input(0), ws.Output(0)
	if in.Len() == 0 {
		return fmt.Errorf("input %s is empty", ws.InputRef(0))
	}

	for i := 0; i < in.Len(); i++ {
		s := in.Sample(i)
		if s == nil {
			return fmt.Errorf("input %s sample %d is empty", ws.InputRef(0), i)
		}
		if dtype := in.Sample(0).DType(); s.DType() != dtype {
			return fmt.Errorf("input %s mixes %s and %s samples", ws.InputRef(0), dtype, s.DType())
		}
	}

	if err := out.CopyFrom(in); err != nil {
		return fmt.Errorf("materializing %s: %w", ws.OutputRef(0), err)
	}
	ctxlog.FromContext(ctx).Debug("MakeContiguous: batch materialized.",
		"node", ws.NodeName,
		"slot", ws.Slot,
		"bytes", out.TotalBytes(),
		"device", buffer.BornDevice(out.Device()).String(),
	)
	return nil
}
