// Package copy_tensors provides the Copy operator, which deep-copies each
// input into the output at the same position.
package copy_tensors

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// Type is the operator type name used in pipeline definitions.
const Type = "Copy"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the Copy operator. It runs in any stage.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Type, &registry.RegisteredOperator{
		Description: "Deep-copies input i into output i on the output's device.",
		New:         New,
	})
}

type copyOp struct{}

// New creates a Copy operator. It needs one output per input.
func New(spec *opspec.Spec) (operator.Operator, error) {
	if len(spec.Inputs) == 0 {
		return nil, fmt.Errorf("%s needs at least one input", Type)
	}
	if len(spec.Inputs) != len(spec.Outputs) {
		return nil, fmt.Errorf("%s needs one output per input, got %d inputs and %d outputs", Type, len(spec.Inputs), len(spec.Outputs))
	}
	return copyOp{}, nil
}

func (copyOp) Run(_ context.Context, ws *workspace.Workspace) error {
	for i := 0; i < ws.NumInput(); i++ {
		if err := ws.Output(i).CopyFrom(ws.Input(i)); err != nil {
			return fmt.Errorf("copying %s: %w", ws.InputRef(i), err)
		}
	}
	return nil
}
