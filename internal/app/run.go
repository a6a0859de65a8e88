package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/executor"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/telemetry"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"golang.org/x/sync/errgroup"
)

// Result summarizes one batch read from the executor.
type Result struct {
	// Iteration is the cycle the batch was produced in.
	Iteration int
	Slot      int
	Outputs   []OutputSummary
}

// OutputSummary describes one requested output of a batch.
type OutputSummary struct {
	Name    string
	Device  tensorref.Device
	Samples int
	Bytes   int
	// FirstByte is the first byte of sample 0, or 0 when it is empty.
	FirstByte byte
}

// Run builds the executor and drives Iterations stage cycles. When
// HealthcheckPort is set, the health and metrics server runs until the
// loop ends.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "stagegrid",
		TraceExporter:  a.config.TraceExporter,
		MetricExporter: a.config.MetricExporter,
		Writer:         a.outW,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	exec, err := executor.New(executor.Config{
		BatchSize:     a.config.BatchSize,
		Workers:       a.config.Workers,
		PrefetchDepth: a.config.PrefetchDepth,
	}, a.registry)
	if err != nil {
		return err
	}
	if err := exec.Build(ctx, a.graph, a.outputs()); err != nil {
		return fmt.Errorf("failed to build executor: %w", err)
	}

	if a.config.HealthcheckPort <= 0 {
		a.logger.Debug("Health check server not started: disabled")
		return a.drive(ctx, exec)
	}

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()
	g.Go(func() error {
		return a.serveHealthcheck(loopCtx)
	})
	g.Go(func() error {
		defer stopServer()
		return a.drive(gctx, exec)
	})
	return g.Wait()
}

// drive runs the iterations, reading results once every slot is in use,
// then drains what is left.
func (a *App) drive(ctx context.Context, exec *executor.Executor) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🚀 Starting pipeline.", "iterations", a.config.Iterations, "build_id", exec.BuildID())

	for i := 0; i < a.config.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.feed(exec, i); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if err := a.cycle(ctx, exec); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		iterationsTotal.Inc()

		if exec.Ready() >= a.config.PrefetchDepth {
			if err := a.consume(ctx, exec); err != nil {
				return err
			}
		}
	}
	for exec.Ready() > 0 {
		if err := a.consume(ctx, exec); err != nil {
			return err
		}
	}

	logger.Info("🏁 Pipeline finished.", "batches", len(a.results))
	return nil
}

// feed gives every external source one synthetic batch tagged with the
// iteration number.
func (a *App) feed(exec *executor.Executor, iteration int) error {
	sources := exec.ExternalSources()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		samples := make([][]byte, a.config.BatchSize)
		for i := range samples {
			sample := make([]byte, a.config.SampleBytes)
			for j := range sample {
				sample[j] = byte(iteration)
			}
			samples[i] = sample
		}
		batch, err := buffer.FromBytes(tensorref.Host, samples...)
		if err != nil {
			return err
		}
		if err := exec.FeedExternal(name, batch); err != nil {
			return fmt.Errorf("feeding %q: %w", name, err)
		}
	}
	return nil
}

func (a *App) cycle(ctx context.Context, exec *executor.Executor) error {
	steps := []struct {
		stage opspec.Stage
		run   func(context.Context) error
	}{
		{opspec.Host, exec.RunHostStage},
		{opspec.Staging, exec.RunStagingStage},
		{opspec.Accelerator, exec.RunAcceleratorStage},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			stageErrorsTotal.WithLabelValues(step.stage.String()).Inc()
			return err
		}
	}
	return nil
}

func (a *App) consume(ctx context.Context, exec *executor.Executor) error {
	v, err := exec.Outputs()
	if err != nil {
		return err
	}
	outputsTotal.Inc()

	res := Result{Iteration: len(a.results), Slot: v.Slot()}
	attrs := []any{"iteration", res.Iteration, "slot", res.Slot}
	for i, name := range v.Names() {
		l := v.Tensor(i)
		sum := OutputSummary{
			Name:    name,
			Device:  l.Device(),
			Samples: l.Len(),
			Bytes:   l.TotalBytes(),
		}
		if l.Len() > 0 && l.Sample(0) != nil {
			if data := l.Sample(0).AsUint8(); len(data) > 0 {
				sum.FirstByte = data[0]
			}
		}
		res.Outputs = append(res.Outputs, sum)
		attrs = append(attrs, name, fmt.Sprintf("%d samples, %d bytes", sum.Samples, sum.Bytes))
	}
	a.results = append(a.results, res)

	ctxlog.FromContext(ctx).Info("Batch ready.", attrs...)
	return nil
}
