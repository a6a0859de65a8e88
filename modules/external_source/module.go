// Package external_source provides the ExternalSource operator: a host-stage
// node whose batches are supplied by the driving loop rather than computed.
package external_source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// Type is the operator type name used in pipeline definitions.
const Type = "ExternalSource"

// ErrNoData is returned by Run when no batch has been supplied.
var ErrNoData = errors.New("no external data supplied")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the ExternalSource operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(Type, &registry.RegisteredOperator{
		Stages:      []opspec.Stage{opspec.Host},
		Description: "Emits batches supplied by the caller, one per host stage.",
		New:         New,
	})
}

// Source queues caller-supplied batches and emits them in FIFO order.
type Source struct {
	mu    sync.Mutex
	queue []*buffer.TensorList
}

var (
	_ operator.Operator             = (*Source)(nil)
	_ operator.ExternalDataAcceptor = (*Source)(nil)
)

// New creates a Source for spec. It must declare exactly one host output
// and no inputs.
func New(spec *opspec.Spec) (operator.Operator, error) {
	if len(spec.Inputs) != 0 {
		return nil, fmt.Errorf("%s takes no inputs, got %d", Type, len(spec.Inputs))
	}
	if len(spec.Outputs) != 1 {
		return nil, fmt.Errorf("%s must declare exactly one output, got %d", Type, len(spec.Outputs))
	}
	return &Source{}, nil
}

// SetDataSource queues a private copy of batch for the next host stage that
// has none. The caller may reuse batch as soon as this returns.
func (s *Source) SetDataSource(batch *buffer.TensorList) error {
	if batch == nil || batch.Len() == 0 {
		return errors.New("external batch cannot be empty")
	}
	if batch.Device() != tensorref.Host {
		return fmt.Errorf("external batch must be on the host, got %s", batch.Device())
	}
	if !batch.Ready() {
		return errors.New("external batch has unassigned samples")
	}
	owned := buffer.New(tensorref.Host)
	if err := owned.CopyFrom(batch); err != nil {
		return fmt.Errorf("copying external batch: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, owned)
	return nil
}

// Pending returns the number of queued batches.
func (s *Source) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Run publishes the oldest queued batch as the node's output. The queued
// copy is shared with the workspace, so each slot owns its samples.
func (s *Source) Run(ctx context.Context, ws *workspace.Workspace) error {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return ErrNoData
	}
	batch := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.mu.Unlock()

	defer batch.Reset()
	if batch.Len() > ws.BatchSize {
		return fmt.Errorf("external batch has %d samples, batch size is %d", batch.Len(), ws.BatchSize)
	}
	if err := ws.Output(0).ShareFrom(batch); err != nil {
		return fmt.Errorf("publishing external batch: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("ExternalSource: batch published.", "node", ws.NodeName, "slot", ws.Slot, "samples", batch.Len())
	return nil
}
