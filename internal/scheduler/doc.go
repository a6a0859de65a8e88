// Package scheduler turns one stage of a pruned graph into an execution plan.
//
// # Why Scheduler Exists
//
// The executor runs the host stage on a worker pool and the staging and
// accelerator stages sequentially. Both need the same facts about a stage:
// a valid topological order, and for each node the number of same-stage
// parents it must wait for plus the same-stage children it unlocks. Parents
// in earlier stages have already completed for the slot by the time the
// stage runs, so they never count as pending dependencies.
//
// # How It Works
//
//  1. NewStagePlan filters the graph's topological order down to the stage.
//  2. For every run, Plan.Tracker creates fresh atomic dependency counters.
//  3. Each completed node is reported with Tracker.Complete, which returns
//     the children that just became ready and whether the stage is finished.
//
// A Plan is immutable and may be shared across slots and runs. A Tracker is
// single-use and safe for concurrent Complete calls.
package scheduler
