// Package metrics defines the Prometheus metric collectors used across the
// matching service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	MatchRunsTotal       *prometheus.CounterVec
	MatchRunDuration     prometheus.Histogram
	StudentsMatched      prometheus.Counter
	MatchResultsCount    prometheus.Histogram
	IndexBuildSeconds    prometheus.Histogram
	IndexCacheHitsTotal  prometheus.Counter
	IndexCacheMissTotal  prometheus.Counter
	IndexedDocuments     prometheus.Gauge
	AuditEventsTotal     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		MatchRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_runs_total",
				Help: "Total match runs by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		MatchRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "match_run_duration_seconds",
				Help:    "Full match-run latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		StudentsMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "students_matched_total",
				Help: "Total student profiles processed by the matcher.",
			},
		),
		MatchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "match_results_count",
				Help:    "Number of results returned per student.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		IndexBuildSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_build_seconds",
				Help:    "BM25 index build (or cache load) latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		IndexCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_cache_hits_total",
				Help: "Total index cache hits.",
			},
		),
		IndexCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_cache_misses_total",
				Help: "Total index cache misses (including corrupt artifacts).",
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexed_documents",
				Help: "Number of job documents in the active BM25 index.",
			},
		),
		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_events_total",
				Help: "Audit events by sink and status (published, dropped, failed).",
			},
			[]string{"sink", "status"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.MatchRunsTotal,
		m.MatchRunDuration,
		m.StudentsMatched,
		m.MatchResultsCount,
		m.IndexBuildSeconds,
		m.IndexCacheHitsTotal,
		m.IndexCacheMissTotal,
		m.IndexedDocuments,
		m.AuditEventsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
