package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/stagegrid/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type flagValues struct {
	configFile      string
	pipeline        string
	outputs         []string
	batchSize       int
	prefetchDepth   int
	workers         int
	iterations      int
	sampleBytes     int
	logFormat       string
	logLevel        string
	healthcheckPort int
	traceExporter   string
	metricExporter  string
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Values come from DefaultConfig, then the --config file, then flags.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	defaults := app.DefaultConfig()
	var fv flagValues
	var parsed *app.Config
	ran := false

	cmd := &cobra.Command{
		Use:   "stagegrid [flags] [PIPELINE_PATH]",
		Short: "Pipelined host/staging/accelerator operator executor",
		Long: `StageGrid - runs a DAG of operators through host, staging and
accelerator stages with double-buffered workspaces.

PIPELINE_PATH is a single .hcl file or a directory containing .hcl files.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ran = true
			cfg, err := resolve(cmd, fv, args)
			if err != nil {
				return err
			}
			if cfg.PipelinePath == "" {
				slog.Debug("No pipeline path provided, printing usage and exiting.")
				return cmd.Usage()
			}
			parsed, err = app.NewConfig(cfg)
			return err
		},
	}
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringVar(&fv.configFile, "config", "", "Path to a YAML config file providing defaults.")
	flags.StringVarP(&fv.pipeline, "pipeline", "p", "", "Path to the pipeline file or directory.")
	flags.StringSliceVar(&fv.outputs, "outputs", nil, "Outputs to produce, overriding the pipeline block (e.g. frames_accelerator).")
	flags.IntVar(&fv.batchSize, "batch-size", defaults.BatchSize, "Samples per batch.")
	flags.IntVar(&fv.prefetchDepth, "prefetch-depth", defaults.PrefetchDepth, "Number of buffer slots.")
	flags.IntVar(&fv.workers, "workers", defaults.Workers, "Number of host-stage workers.")
	flags.IntVar(&fv.iterations, "iterations", defaults.Iterations, "Number of stage cycles to run.")
	flags.IntVar(&fv.sampleBytes, "sample-bytes", defaults.SampleBytes, "Bytes per synthetic sample fed to external sources.")
	flags.StringVar(&fv.logFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&fv.logLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.IntVar(&fv.healthcheckPort, "healthcheck-port", defaults.HealthcheckPort, "Port for the HTTP health and metrics server. 0 is disabled.")
	flags.StringVar(&fv.traceExporter, "trace-exporter", defaults.TraceExporter, "Trace exporter. Options: 'none' or 'stdout'.")
	flags.StringVar(&fv.metricExporter, "metric-exporter", defaults.MetricExporter, "Metric exporter. Options: 'none', 'stdout' or 'prometheus'.")

	if err := cmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if !ran || parsed == nil {
		// help was printed
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "pipeline", parsed.PipelinePath)
	return parsed, false, nil
}

// resolve layers the config file and explicitly set flags over the defaults.
func resolve(cmd *cobra.Command, fv flagValues, args []string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if fv.configFile != "" {
		fileCfg, err := app.LoadConfigFile(fv.configFile)
		if err != nil {
			return cfg, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = fileCfg
	}

	changed := cmd.Flags().Changed
	switch {
	case fv.pipeline != "":
		cfg.PipelinePath = fv.pipeline
	case len(args) > 0:
		cfg.PipelinePath = args[0]
	}
	if changed("outputs") {
		cfg.Outputs = fv.outputs
	}
	if changed("batch-size") {
		cfg.BatchSize = fv.batchSize
	}
	if changed("prefetch-depth") {
		cfg.PrefetchDepth = fv.prefetchDepth
	}
	if changed("workers") {
		cfg.Workers = fv.workers
	}
	if changed("iterations") {
		cfg.Iterations = fv.iterations
	}
	if changed("sample-bytes") {
		cfg.SampleBytes = fv.sampleBytes
	}
	if changed("log-format") {
		cfg.LogFormat = strings.ToLower(fv.logFormat)
	}
	if changed("log-level") {
		cfg.LogLevel = strings.ToLower(fv.logLevel)
	}
	if changed("healthcheck-port") {
		cfg.HealthcheckPort = fv.healthcheckPort
	}
	if changed("trace-exporter") {
		cfg.TraceExporter = fv.traceExporter
	}
	if changed("metric-exporter") {
		cfg.MetricExporter = fv.metricExporter
	}
	return cfg, nil
}
