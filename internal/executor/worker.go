package executor

import (
	"context"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// runHostPool runs the host stage on up to cfg.Workers goroutines. Nodes
// are dispatched as soon as their last same-stage parent completes.
func (e *Executor) runHostPool(ctx context.Context, stage opspec.Stage, slot int) error {
	plan := e.plans[stage]
	if plan.Len() == 0 {
		return nil
	}

	// capacity covers every node, so sends never block
	readyChan := make(chan int, plan.Len())
	for _, id := range plan.Roots() {
		readyChan <- id
	}
	tracker := plan.Tracker()

	workers := min(e.cfg.Workers, plan.Len())
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		workerID := w
		g.Go(func() error {
			return e.worker(gctx, slot, workerID, readyChan, tracker)
		})
	}
	return g.Wait()
}

// worker is the processing loop for a single host-stage worker.
func (e *Executor) worker(ctx context.Context, slot, workerID int, readyChan chan int, tracker *scheduler.Tracker) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID, "slot", slot)

	for {
		select {
		case <-ctx.Done():
			// another worker failed, or the caller gave up
			return ctx.Err()
		case id, ok := <-readyChan:
			if !ok {
				logger.Debug("Worker finished.", "workerID", workerID, "slot", slot)
				return nil
			}

			if err := e.runNode(ctx, slot, id); err != nil {
				logger.Error("Node execution failed.", "workerID", workerID, "nodeID", id, "error", err)
				return err
			}

			ready, done := tracker.Complete(id)
			for _, dependent := range ready {
				logger.Debug("Unlocking dependent node.", "nodeID", id, "dependentID", dependent)
				readyChan <- dependent
			}
			if done {
				close(readyChan)
			}
		}
	}
}
