// Package dummy provides the Dummy operator, which fills every output with
// constant uint8 samples. It is used to build test and benchmark graphs.
package dummy

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// Type is the operator type name used in pipeline definitions.
const Type = "Dummy"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the Dummy operator. It runs in any stage.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Type, &registry.RegisteredOperator{
		Description: "Fills each output with constant samples of a configurable shape.",
		New:         New,
	})
}

type dummy struct {
	shape []int
	fill  uint8
}

// New reads the `shape` (default [1]) and `fill` (default 0) arguments. If
// `num_outputs` is set it must match the declared outputs.
func New(spec *opspec.Spec) (operator.Operator, error) {
	shape, err := spec.IntListArg("shape", []int{1})
	if err != nil {
		return nil, err
	}
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("shape dimensions must be positive, got %v", shape)
		}
	}
	fill, err := spec.IntArg("fill", 0)
	if err != nil {
		return nil, err
	}
	if fill < 0 || fill > 255 {
		return nil, fmt.Errorf("fill must be in [0, 255], got %d", fill)
	}
	numOutputs, err := spec.IntArg("num_outputs", len(spec.Outputs))
	if err != nil {
		return nil, err
	}
	if numOutputs != len(spec.Outputs) {
		return nil, fmt.Errorf("num_outputs is %d but %d outputs are declared", numOutputs, len(spec.Outputs))
	}
	return &dummy{shape: shape, fill: uint8(fill)}, nil
}

func (d *dummy) Run(_ context.Context, ws *workspace.Workspace) error {
	for o := 0; o < ws.NumOutput(); o++ {
		out := ws.Output(o)
		for i := 0; i < out.Len(); i++ {
			raw, err := buffer.NewFilledSample(d.shape, d.fill, out.Device())
			if err != nil {
				return err
			}
			if err := out.SetSample(i, raw); err != nil {
				return err
			}
		}
	}
	return nil
}
