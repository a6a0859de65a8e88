package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// iterationsTotal counts completed stage cycles.
	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagegrid_iterations_total",
		Help: "Total completed host/staging/accelerator cycles",
	})

	// outputsTotal counts batches handed out by Outputs.
	outputsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagegrid_outputs_total",
		Help: "Total output batches read",
	})

	// stageErrorsTotal counts failed stage runs by stage.
	stageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagegrid_stage_errors_total",
		Help: "Total failed stage runs by stage",
	}, []string{"stage"})
)
