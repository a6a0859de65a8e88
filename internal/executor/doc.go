// Package executor runs a pruned operator graph as a three-stage pipeline
// (host, staging, accelerator) over a ring of buffer slots.
//
// # Lifecycle
//
//  1. New validates the configuration.
//  2. Build prunes a copy of the graph to the requested outputs, creates one
//     operator per node, allocates PrefetchDepth independent workspace sets
//     and computes a per-stage plan.
//  3. The driving loop repeats: feed external sources, RunHostStage,
//     RunStagingStage, RunAcceleratorStage, and eventually Outputs.
//
// # Slots
//
// RunHostStage advances to the next slot before it runs, so the results of
// the previous slot stay readable through Outputs while the next batch is
// being produced. Each slot walks the state machine
//
//	Empty -> HostDone -> StagingDone -> AcceleratorDone -> Empty
//
// and the last transition happens when Outputs hands the slot to the
// caller. Completed slots are handed out oldest first.
//
// # Errors
//
// Out-of-order calls fail with ErrSequence, missing external data or
// results with ErrDataNotReady, and any call on an executor that is not
// built (or whose last stage run failed) with ErrLogic. Graph problems found
// during Build are *graph.GraphError values.
package executor
