package executor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunHostStage advances to the next slot and runs every host-stage node for
// it on the worker pool. It returns once all host work for the slot is
// done. Every external source must have a batch queued.
func (e *Executor) RunHostStage(ctx context.Context) error {
	e.mu.Lock()
	if err := e.usable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("%w: another stage is running", ErrSequence)
	}

	next := 0
	if e.started {
		if st := e.states[e.slot]; st == SlotHostDone || st == SlotStagingDone {
			e.mu.Unlock()
			return fmt.Errorf("%w: slot %d has not finished its stage cycle (state %s)", ErrSequence, e.slot, st)
		}
		next = (e.slot + 1) % len(e.states)
	}
	if st := e.states[next]; st != SlotEmpty {
		e.mu.Unlock()
		return fmt.Errorf("%w: slot %d still holds unread outputs (state %s)", ErrSequence, next, st)
	}
	if missing := e.missingExternalData(); len(missing) > 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: no batch supplied to external sources %v", ErrDataNotReady, missing)
	}

	e.slot = next
	e.started = true
	e.running = true
	e.mu.Unlock()

	err := e.runStage(ctx, opspec.Host, next, e.runHostPool)
	e.finishStage(next, SlotHostDone, err)
	return err
}

// RunStagingStage runs the staging-stage nodes of the current slot. The
// slot's host stage must have completed.
func (e *Executor) RunStagingStage(ctx context.Context) error {
	slot, err := e.beginStage(SlotHostDone, "RunHostStage")
	if err != nil {
		return err
	}
	err = e.runStage(ctx, opspec.Staging, slot, e.runSequential)
	e.finishStage(slot, SlotStagingDone, err)
	return err
}

// RunAcceleratorStage runs the accelerator-stage nodes of the current slot
// and queues the slot for Outputs. The slot's staging stage must have
// completed.
func (e *Executor) RunAcceleratorStage(ctx context.Context) error {
	slot, err := e.beginStage(SlotStagingDone, "RunStagingStage")
	if err != nil {
		return err
	}
	err = e.runStage(ctx, opspec.Accelerator, slot, e.runSequential)
	e.finishStage(slot, SlotAcceleratorDone, err)
	return err
}

func (e *Executor) beginStage(want SlotState, previous string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return 0, err
	}
	if e.running {
		return 0, fmt.Errorf("%w: another stage is running", ErrSequence)
	}
	if !e.started || e.states[e.slot] != want {
		state := SlotEmpty
		if e.started {
			state = e.states[e.slot]
		}
		return 0, fmt.Errorf("%w: %s must complete first (slot %d is %s)", ErrSequence, previous, e.slot, state)
	}
	e.running = true
	return e.slot, nil
}

func (e *Executor) finishStage(slot int, done SlotState, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	if err != nil {
		e.broken = err
		return
	}
	e.states[slot] = done
	if done == SlotAcceleratorDone {
		e.completed = append(e.completed, slot)
	}
}

// missingExternalData lists external sources with nothing queued. Callers hold e.mu.
func (e *Executor) missingExternalData() []string {
	var missing []string
	for name, ext := range e.externals {
		if ext.Pending() == 0 {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

type stageRunner func(ctx context.Context, stage opspec.Stage, slot int) error

func (e *Executor) runStage(ctx context.Context, stage opspec.Stage, slot int, run stageRunner) error {
	ctx, span := tracer.Start(ctx, "executor.Run"+stageSpanName(stage),
		trace.WithAttributes(
			attribute.String("build.id", e.buildID),
			attribute.String("stage", stage.String()),
			attribute.Int("slot", slot),
			attribute.Int("nodes", e.plans[stage].Len()),
		),
	)
	defer span.End()
	logger := ctxlog.FromContext(ctx).With("build_id", e.buildID, "stage", stage.String(), "slot", slot)
	logger.Debug("Stage started.", "node_count", e.plans[stage].Len())

	start := time.Now()
	err := run(ctx, stage, slot)
	e.metrics.recordStage(ctx, stage, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Stage failed.", "error", err)
		return fmt.Errorf("%s stage (slot %d): %w", stage, slot, err)
	}
	logger.Debug("Stage finished.", "duration", time.Since(start))
	return nil
}

func stageSpanName(stage opspec.Stage) string {
	switch stage {
	case opspec.Host:
		return "HostStage"
	case opspec.Staging:
		return "StagingStage"
	default:
		return "AcceleratorStage"
	}
}

// runSequential runs the stage's nodes one by one in topological order.
func (e *Executor) runSequential(ctx context.Context, stage opspec.Stage, slot int) error {
	for _, id := range e.plans[stage].Order {
		if err := e.runNode(ctx, slot, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runNode(ctx context.Context, slot, id int) error {
	ws := e.sets.Node(slot, id)
	ws.PrepareOutputs()

	start := time.Now()
	err := e.ops[id].Run(ctx, ws)
	e.metrics.recordNode(ctx, ws.Stage, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("operator %q (node %d): %w", ws.NodeName, id, err)
	}
	return nil
}
