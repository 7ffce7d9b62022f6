package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the authorization core
type Metrics struct {
	// Decision metrics
	DecisionsTotal   *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec

	// Resolution metrics
	ResolutionsTotal    *prometheus.CounterVec
	ResolutionDuration  *prometheus.HistogramVec
	ClaimsFastPathTotal *prometheus.CounterVec
	ResolutionRetries   prometheus.Counter

	// Tuple store metrics
	TupleOperationsTotal *prometheus.CounterVec
	TupleErrorsTotal     *prometheus.CounterVec

	// Audit metrics
	DecisionRecordsTotal   prometheus.Counter
	DecisionRecordFailures prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseward_decisions_total",
				Help: "Total enforcement decisions by outcome and reason code",
			},
			[]string{"allowed", "reason"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caseward_decision_duration_seconds",
				Help:    "Enforcement decision latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"reason"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseward_resolutions_total",
				Help: "Total context resolutions by operating mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caseward_resolution_duration_seconds",
				Help:    "Context resolution latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		ClaimsFastPathTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseward_claims_fast_path_total",
				Help: "Fast-path claim adapter outcomes (hit, stale, miss, forced_fresh)",
			},
			[]string{"outcome"},
		),
		ResolutionRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "caseward_resolution_retries_total",
				Help: "Directory lookups retried after a transient failure",
			},
		),
		TupleOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseward_tuple_operations_total",
				Help: "Relation tuple store operations",
			},
			[]string{"operation"},
		),
		TupleErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseward_tuple_errors_total",
				Help: "Relation tuple store operation failures",
			},
			[]string{"operation"},
		),
		DecisionRecordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "caseward_decision_records_total",
				Help: "Policy decisions recorded to the audit sink",
			},
		),
		DecisionRecordFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "caseward_decision_record_failures_total",
				Help: "Policy decision audit writes that failed (best effort)",
			},
		),
	}

	registry.MustRegister(
		m.DecisionsTotal,
		m.DecisionDuration,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ClaimsFastPathTotal,
		m.ResolutionRetries,
		m.TupleOperationsTotal,
		m.TupleErrorsTotal,
		m.DecisionRecordsTotal,
		m.DecisionRecordFailures,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
