// Package metrics defines the Prometheus collectors for index builds,
// lookups, the ranking cache and the HTTP surface, and exposes an HTTP
// handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocsIndexedTotal     prometheus.Counter
	VocabularySize       prometheus.Gauge
	BuildDuration        *prometheus.HistogramVec
	BuildsTotal          *prometheus.CounterVec
	LookupsTotal         *prometheus.CounterVec
	LookupLatency        *prometheus.HistogramVec
	RecordBytesRead      prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
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
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tfindex_docs_indexed_total",
				Help: "Total documents written to the forward index.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tfindex_vocabulary_size",
				Help: "Distinct terms in the most recently published index.",
			},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tfindex_build_phase_duration_seconds",
				Help:    "Duration of each index build phase.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"phase"},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tfindex_builds_total",
				Help: "Index builds by status.",
			},
			[]string{"status"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tfindex_lookups_total",
				Help: "Index lookups by kind (document, term, text) and result (hit, empty, not_found, error).",
			},
			[]string{"kind", "result"},
		),
		LookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tfindex_lookup_latency_seconds",
				Help:    "Index lookup latency in seconds.",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"kind"},
		),
		RecordBytesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tfindex_record_bytes_read_total",
				Help: "Bytes read from the flat index files.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tfindex_rank_cache_hits_total",
				Help: "Total number of ranking cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tfindex_rank_cache_misses_total",
				Help: "Total number of ranking cache misses.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocsIndexedTotal,
		m.VocabularySize,
		m.BuildDuration,
		m.BuildsTotal,
		m.LookupsTotal,
		m.LookupLatency,
		m.RecordBytesRead,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
