// Package operator defines the contract between the executor and the code
// that computes an operator's outputs.
package operator

import (
	"context"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// Operator computes one batch. Run reads ws inputs and fills every ws
// output; it must not modify inputs.
type Operator interface {
	Run(ctx context.Context, ws *workspace.Workspace) error
}

// Func adapts a plain function to Operator.
type Func func(ctx context.Context, ws *workspace.Workspace) error

// Run calls f.
func (f Func) Run(ctx context.Context, ws *workspace.Workspace) error {
	return f(ctx, ws)
}

// ExternalDataAcceptor is implemented by operators whose data is supplied
// by the caller instead of computed from parents. The driving loop feeds
// them before each host stage; the executor checks Pending to decide
// whether the host stage can run.
type ExternalDataAcceptor interface {
	// SetDataSource queues one batch for a future host stage.
	SetDataSource(batch *buffer.TensorList) error
	// Pending returns the number of queued, not yet consumed batches.
	Pending() int
}

// AsExternal reports whether op accepts external data.
func AsExternal(op Operator) (ExternalDataAcceptor, bool) {
	ext, ok := op.(ExternalDataAcceptor)
	return ext, ok
}
