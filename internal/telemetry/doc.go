// Package telemetry installs the global OpenTelemetry tracer and meter
// providers used by the executor and exposes the Prometheus scrape handler.
//
// Usage:
//
//	shutdown, err := telemetry.Init(ctx, telemetry.Config{
//	    ServiceName:    "stagegrid",
//	    TraceExporter:  "none",
//	    MetricExporter: "prometheus",
//	})
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
package telemetry
