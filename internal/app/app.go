package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/stagegrid/internal/config"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/graph"
	"github.com/specialistvlad/stagegrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model
	graph    *graph.Graph

	httpServer *http.Server
	results    []Result
}

// NewApp loads the pipeline, registers modules and builds the operator
// graph. With no modules given, the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	logger.Debug("Pipeline loaded and translated into unified model.", "operators", len(model.Operators))

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWithModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "types", reg.Types())

	for _, decl := range model.Operators {
		if _, err := reg.Check(decl.Spec); err != nil {
			return nil, fmt.Errorf("operator %q: %w", decl.Name, err)
		}
	}
	logger.Debug("Registry validation passed.")

	g, err := model.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build operator graph: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		model:    model,
		graph:    g,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the full, unpruned operator graph.
func (a *App) Graph() *graph.Graph {
	return a.graph
}

// Results returns the summaries of every batch read so far, in order.
func (a *App) Results() []Result {
	return a.results
}

// outputs returns the configured override or the pipeline's outputs.
func (a *App) outputs() []string {
	if len(a.config.Outputs) > 0 {
		return a.config.Outputs
	}
	return a.model.Outputs
}
