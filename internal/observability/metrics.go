package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// exclusion engine and its collaborators.
type Metrics struct {
	CallsEvaluated  prometheus.Counter
	CallsExcluded   *prometheus.CounterVec // labels: strategy={weather_spatial,weather_text}
	EvaluationError prometheus.Counter

	// Batch processing metrics.
	BatchDuration prometheus.Histogram
	BatchSize     prometheus.Histogram
	SchedulerRuns prometheus.Counter
	BacklogSize   prometheus.Gauge

	// Isochrone client metrics.
	IsochroneRequests *prometheus.CounterVec // labels: outcome={success,error}
	IsochroneCache    *prometheus.CounterVec // labels: result={hit,miss}
	IsochroneDuration prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.CallsEvaluated,
		m.CallsExcluded,
		m.EvaluationError,
		m.BatchDuration,
		m.BatchSize,
		m.SchedulerRuns,
		m.BacklogSize,
		m.IsochroneRequests,
		m.IsochroneCache,
		m.IsochroneDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registry registration to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CallsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "calls_evaluated_total",
			Help:      "Total calls run through the exclusion engine.",
		}),
		CallsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "calls_excluded_total",
			Help:      "Calls auto-excluded, by matching strategy.",
		}, []string{"strategy"}),
		EvaluationError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "evaluation_errors_total",
			Help:      "Per-call evaluation failures (batch continues).",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exclusion_engine",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one batch of unevaluated-call processing.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exclusion_engine",
			Name:      "batch_size",
			Help:      "Number of calls pulled per batch.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500},
		}),
		SchedulerRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "scheduler_runs_total",
			Help:      "Safety-net scheduler invocations.",
		}),
		BacklogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exclusion_engine",
			Name:      "unevaluated_backlog",
			Help:      "Unevaluated calls remaining after the last batch run.",
		}),
		IsochroneRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "isochrone_requests_total",
			Help:      "Routing-service isochrone requests by outcome.",
		}, []string{"outcome"}),
		IsochroneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exclusion_engine",
			Name:      "isochrone_cache_total",
			Help:      "Isochrone cache lookups by result.",
		}, []string{"result"}),
		IsochroneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exclusion_engine",
			Name:      "isochrone_request_duration_seconds",
			Help:      "Routing-service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
