package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EvaluationsCreated *prometheus.CounterVec
	EvaluationsDeleted prometheus.Counter
	LegalGateBlocked   prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
	CatalogCacheHits   prometheus.Counter
	CatalogCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EvaluationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sdagate_evaluations_created_total",
			Help: "Total evaluations created, labeled by conclusion code",
		}, []string{"conclusion"}),
		EvaluationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdagate_evaluations_deleted_total",
			Help: "Total evaluations deleted",
		}),
		LegalGateBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdagate_legal_gate_blocked_total",
			Help: "Total legal gate checks that blocked a prohibited service",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sdagate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
		CatalogCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdagate_catalog_cache_hits_total",
			Help: "Service catalog cache hits",
		}),
		CatalogCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdagate_catalog_cache_misses_total",
			Help: "Service catalog cache misses",
		}),
	}
}

// ObserveEvaluationCreated records a created evaluation by conclusion code.
func (m *Metrics) ObserveEvaluationCreated(conclusion string) {
	if m == nil {
		return
	}
	m.EvaluationsCreated.WithLabelValues(conclusion).Inc()
}

// ObserveGateBlocked increments the blocked counter.
func (m *Metrics) ObserveGateBlocked() {
	if m == nil {
		return
	}
	m.LegalGateBlocked.Inc()
}

// ObserveEvaluationDeleted increments the deletion counter.
func (m *Metrics) ObserveEvaluationDeleted() {
	if m == nil {
		return
	}
	m.EvaluationsDeleted.Inc()
}

// ObserveCacheHit and ObserveCacheMiss record catalog cache outcomes.
func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.CatalogCacheHits.Inc()
}

func (m *Metrics) ObserveCacheMiss() {
	if m == nil {
		return
	}
	m.CatalogCacheMisses.Inc()
}
