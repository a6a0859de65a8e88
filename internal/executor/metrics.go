package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/specialistvlad/stagegrid/internal/opspec"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("stagegrid.executor")
	meter  = otel.Meter("stagegrid.executor")
)

// metricSet holds the executor's OpenTelemetry instruments, created lazily
// so that a meter provider installed after New is still picked up.
type metricSet struct {
	once          sync.Once
	stageLatency  metric.Float64Histogram
	stageFailures metric.Int64Counter
	nodeLatency   metric.Float64Histogram
	nodeRuns      metric.Int64Counter
}

func newMetricSet() *metricSet {
	return &metricSet{}
}

func (m *metricSet) init() {
	m.once.Do(func() {
		var initErrors []string
		var err error

		m.stageLatency, err = meter.Float64Histogram("stagegrid_stage_duration_seconds",
			metric.WithDescription("Time spent running one stage for one slot"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "stage_latency: "+err.Error())
		}

		m.stageFailures, err = meter.Int64Counter("stagegrid_stage_failures_total",
			metric.WithDescription("Number of failed stage runs"),
		)
		if err != nil {
			initErrors = append(initErrors, "stage_failures: "+err.Error())
		}

		m.nodeLatency, err = meter.Float64Histogram("stagegrid_node_duration_seconds",
			metric.WithDescription("Time spent running one operator for one slot"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "node_latency: "+err.Error())
		}

		m.nodeRuns, err = meter.Int64Counter("stagegrid_node_runs_total",
			metric.WithDescription("Number of operator runs by stage and outcome"),
		)
		if err != nil {
			initErrors = append(initErrors, "node_runs: "+err.Error())
		}

		if len(initErrors) > 0 {
			slog.Error("failed to initialize some executor metrics (observability degraded)",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}

func (m *metricSet) recordStage(ctx context.Context, stage opspec.Stage, d time.Duration, err error) {
	m.init()
	attrs := metric.WithAttributes(attribute.String("stage", stage.String()))
	if m.stageLatency != nil {
		m.stageLatency.Record(ctx, d.Seconds(), attrs)
	}
	if err != nil && m.stageFailures != nil {
		m.stageFailures.Add(ctx, 1, attrs)
	}
}

func (m *metricSet) recordNode(ctx context.Context, stage opspec.Stage, d time.Duration, err error) {
	m.init()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	if m.nodeLatency != nil {
		m.nodeLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage.String())))
	}
	if m.nodeRuns != nil {
		m.nodeRuns.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage.String()),
			attribute.String("outcome", outcome),
		))
	}
}
