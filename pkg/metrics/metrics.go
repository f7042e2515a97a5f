// Package metrics holds the Prometheus instruments shared by the journal
// stores and the HTTP server.
//
// Every method is safe on a nil *Metrics so adapters can be built without
// instrumentation (tests, library use).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission results.
const (
	ResultSaved    = "saved"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Metrics holds Prometheus metrics for the journal.
//
// Metrics:
//   - journal_store_appends_total{adapter,result} - appends by outcome
//   - journal_store_append_duration_seconds{adapter} - append latency incl. lock wait
//   - journal_store_corrupt_reads_total{adapter} - reads that found an undecodable document
//   - journal_store_quarantined_total - corrupt documents moved aside before overwrite
//   - journal_store_entries{adapter} - entries after the last append
//   - journal_submissions_total{result} - service submissions by outcome
//   - journal_http_requests_total{method,route,status} - HTTP requests
//   - journal_http_request_duration_seconds{method,route} - HTTP latency
type Metrics struct {
	registry *prometheus.Registry

	Appends        *prometheus.CounterVec
	AppendDuration *prometheus.HistogramVec
	CorruptReads   *prometheus.CounterVec
	Quarantined    prometheus.Counter
	Entries        *prometheus.GaugeVec
	Submissions    *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// New registers the journal metrics on reg. A nil reg gets a fresh registry,
// so several instances (e.g. in tests) never collide on registration.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Appends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_store_appends_total",
				Help: "Total number of store appends by outcome",
			},
			[]string{"adapter", "result"},
		),
		AppendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "journal_store_append_duration_seconds",
				Help:    "Duration of store appends in seconds, including lock wait",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"adapter"},
		),
		CorruptReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_store_corrupt_reads_total",
				Help: "Total number of reads that found an undecodable backing document",
			},
			[]string{"adapter"},
		),
		Quarantined: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "journal_store_quarantined_total",
				Help: "Total number of corrupt documents moved aside before being overwritten",
			},
		),
		Entries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "journal_store_entries",
				Help: "Number of entries in the store after the last append",
			},
			[]string{"adapter"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_submissions_total",
				Help: "Total number of reflection submissions by outcome",
			},
			[]string{"result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "journal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAppend records the outcome and latency of one append.
func (m *Metrics) ObserveAppend(adapter string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Appends.WithLabelValues(adapter, result).Inc()
	m.AppendDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

// CorruptRead counts a read that found an undecodable document.
func (m *Metrics) CorruptRead(adapter string) {
	if m == nil {
		return
	}
	m.CorruptReads.WithLabelValues(adapter).Inc()
}

// Quarantine counts a corrupt document moved aside.
func (m *Metrics) Quarantine() {
	if m == nil {
		return
	}
	m.Quarantined.Inc()
}

// SetEntries records the entry count after an append.
func (m *Metrics) SetEntries(adapter string, n int) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues(adapter).Set(float64(n))
}

// Submission counts a service submission by result.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
