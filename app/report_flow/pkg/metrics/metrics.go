package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysisCallsTotal counts model round trips by operation and outcome.
	AnalysisCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "report_flow",
		Subsystem: "analysis",
		Name:      "calls_total",
		Help:      "Total number of analysis calls, labeled by operation and outcome.",
	}, []string{"op", "outcome"})

	// AnalysisCallDurationSeconds is wall time per model round trip.
	AnalysisCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "report_flow",
		Subsystem: "analysis",
		Name:      "call_duration_seconds",
		Help:      "Time spent waiting for the model, per operation.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120, 300},
	}, []string{"op"})

	// ReportsStored is the size of the in-memory report collection.
	ReportsStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "report_flow",
		Name:      "reports_stored",
		Help:      "Number of structured reports currently held by the store.",
	})

	// PersistErrorsTotal counts failed full-collection rewrites.
	PersistErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "report_flow",
		Subsystem: "store",
		Name:      "persist_errors_total",
		Help:      "Total number of failed persistence writes.",
	})
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_input"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
)

// Register registers report_flow metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysisCallsTotal,
			AnalysisCallDurationSeconds,
			ReportsStored,
			PersistErrorsTotal,
		)
	})
}
