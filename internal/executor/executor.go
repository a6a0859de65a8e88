package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/scheduler"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/specialistvlad/stagegrid/internal/workspace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor drives a built graph through the host, staging and accelerator
// stages. Stage calls must come from one driving goroutine at a time;
// Outputs and the introspection accessors may be called from another.
type Executor struct {
	cfg      Config
	registry *registry.Registry

	mu sync.Mutex

	built   bool
	broken  error
	buildID string
	graph   *graph.Graph
	ops     []operator.Operator
	sets    *workspace.Sets
	plans   [opspec.NumStages]*scheduler.Plan

	outputNames   []string
	outputRefs    []tensorref.Ref
	outputSources []graph.TensorSource
	externals     map[string]operator.ExternalDataAcceptor

	slot      int
	started   bool
	running   bool
	states    []SlotState
	completed []int

	metrics *metricSet
}

// New creates an un-built executor. Operators are instantiated from reg
// during Build.
func New(cfg Config, reg *registry.Registry) (*Executor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid executor config: %w", err)
	}
	if reg == nil {
		return nil, errors.New("executor requires an operator registry")
	}
	return &Executor{
		cfg:      cfg,
		registry: reg,
		metrics:  newMetricSet(),
	}, nil
}

// Config returns the effective configuration.
func (e *Executor) Config() Config { return e.cfg }

// Build prunes a copy of g to outputs (`<name>_<device>` names, device
// aliases allowed), instantiates operators and allocates workspaces.
//
// g itself is never modified, so one graph can back several executors with
// different outputs. The pruned graph the executor runs is available from
// Graph. On failure the executor is left un-built.
func (e *Executor) Build(ctx context.Context, g *graph.Graph, outputs []string) (err error) {
	if g == nil {
		g = graph.New()
	}
	ctx, span := tracer.Start(ctx, "executor.Build",
		trace.WithAttributes(
			attribute.Int("graph.nodes", g.NumNodes()),
			attribute.StringSlice("outputs", outputs),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("%w: cannot build while a stage is running", ErrLogic)
	}
	e.reset()

	logger.Debug("Build: started.", "node_count", g.NumNodes(), "outputs", outputs)

	if len(outputs) == 0 {
		return graph.Errorf(graph.UnknownOutput, "at least one output must be requested")
	}
	refs := make([]tensorref.Ref, 0, len(outputs))
	names := make([]string, 0, len(outputs))
	for _, name := range outputs {
		ref, err := tensorref.Parse(name)
		if err != nil {
			return graph.Errorf(graph.UnknownOutput, "requested output %q: %v", name, err)
		}
		refs = append(refs, ref)
		names = append(names, ref.String())
	}

	pruned := g.Clone()
	if err := pruned.Prune(refs); err != nil {
		return fmt.Errorf("pruning graph: %w", err)
	}
	logger.Debug("Build: graph pruned.",
		"kept", pruned.NumNodes(),
		"dropped", g.NumNodes()-pruned.NumNodes(),
		"host", pruned.NumHostOps(),
		"staging", pruned.NumStagingOps(),
		"accelerator", pruned.NumAcceleratorOps(),
	)

	ops, externals, err := e.instantiate(pruned)
	if err != nil {
		return err
	}

	sets, err := workspace.Allocate(ctx, pruned, e.cfg.PrefetchDepth, e.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("allocating workspaces: %w", err)
	}

	var plans [opspec.NumStages]*scheduler.Plan
	for _, stage := range opspec.Stages() {
		p, err := scheduler.NewStagePlan(pruned, stage)
		if err != nil {
			return err
		}
		plans[stage] = p
	}

	sources := make([]graph.TensorSource, 0, len(refs))
	for _, ref := range refs {
		src, err := pruned.TensorSource(ref)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	e.graph = pruned
	e.ops = ops
	e.externals = externals
	e.sets = sets
	e.plans = plans
	e.outputNames = names
	e.outputRefs = refs
	e.outputSources = sources
	e.states = make([]SlotState, e.cfg.PrefetchDepth)
	e.buildID = uuid.NewString()[:12]
	e.built = true

	span.SetAttributes(attribute.String("build.id", e.buildID), attribute.Int("graph.kept", pruned.NumNodes()))
	logger.Info("Executor built.",
		slog.String("build_id", e.buildID),
		slog.Int("nodes", pruned.NumNodes()),
		slog.Int("depth", e.cfg.PrefetchDepth),
		slog.Int("batch_size", e.cfg.BatchSize),
		slog.Int("external_sources", len(externals)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (e *Executor) instantiate(g *graph.Graph) ([]operator.Operator, map[string]operator.ExternalDataAcceptor, error) {
	ops := make([]operator.Operator, g.NumNodes())
	externals := make(map[string]operator.ExternalDataAcceptor)
	for _, n := range g.Nodes() {
		op, err := e.registry.Instantiate(n.Spec)
		if err != nil {
			kind := graph.InvalidSpec
			if errors.Is(err, registry.ErrUnknownType) || errors.Is(err, registry.ErrUnsupportedStage) {
				kind = graph.UnknownOperator
			}
			return nil, nil, graph.Errorf(kind, "node %q: %v", n.Name, err)
		}
		ops[n.ID] = op
		if ext, ok := operator.AsExternal(op); ok {
			externals[n.Name] = ext
		}
	}
	return ops, externals, nil
}

// reset returns the executor to the un-built state. Callers hold e.mu.
func (e *Executor) reset() {
	e.built = false
	e.broken = nil
	e.buildID = ""
	e.graph = nil
	e.ops = nil
	e.sets = nil
	e.plans = [opspec.NumStages]*scheduler.Plan{}
	e.outputNames = nil
	e.outputRefs = nil
	e.outputSources = nil
	e.externals = nil
	e.slot = 0
	e.started = false
	e.states = nil
	e.completed = nil
}

// usable reports why run and output calls cannot proceed. Callers hold e.mu.
func (e *Executor) usable() error {
	if !e.built {
		return fmt.Errorf("%w: executor is not built", ErrLogic)
	}
	if e.broken != nil {
		return fmt.Errorf("%w: a previous stage failed, rebuild the executor: %v", ErrLogic, e.broken)
	}
	return nil
}

// Built reports whether Build has succeeded.
func (e *Executor) Built() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.built
}

// BuildID identifies the current build in logs and traces.
func (e *Executor) BuildID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildID
}

// Graph returns the pruned graph of the current build, or nil.
func (e *Executor) Graph() *graph.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph
}

// Workspaces returns the workspaces of stage in slot, for diagnostics.
func (e *Executor) Workspaces(stage opspec.Stage, slot int) []*workspace.Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sets == nil {
		return nil
	}
	return e.sets.Stage(stage, slot)
}

// CurrentSlot returns the slot the last host stage ran in.
func (e *Executor) CurrentSlot() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot
}

// SlotState returns the state of slot.
func (e *Executor) SlotState(slot int) SlotState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= len(e.states) {
		return SlotEmpty
	}
	return e.states[slot]
}

// ExternalSources returns the operators accepting external data, keyed by
// node name.
func (e *Executor) ExternalSources() map[string]operator.ExternalDataAcceptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]operator.ExternalDataAcceptor, len(e.externals))
	for k, v := range e.externals {
		out[k] = v
	}
	return out
}

// FeedExternal queues batch on the external source named name. Batches
// larger than the configured batch size are rejected here rather than
// failing the next host stage.
func (e *Executor) FeedExternal(name string, batch *buffer.TensorList) error {
	e.mu.Lock()
	if err := e.usable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if batch != nil && batch.Len() > e.cfg.BatchSize {
		e.mu.Unlock()
		return fmt.Errorf("external batch for %q has %d samples, batch size is %d", name, batch.Len(), e.cfg.BatchSize)
	}
	ext, ok := e.externals[name]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no external source named %q", name)
	}
	return ext.SetDataSource(batch)
}
