// Package metrics exposes tracker health as Prometheus metrics.
//
// All recording methods are safe to call on a nil *Metrics, so callers that
// run without an exporter need no guards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeIngestFailed  = "ingest_failed"
	OutcomeMatchFailed   = "match_failed"
	OutcomeDispatchError = "dispatch_failed"
)

// Metrics holds the tracker's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	recordsIngested prometheus.Counter
	matches         *prometheus.CounterVec
	dispatchErrors  prometheus.Counter
	fetchErrors     prometheus.Counter
	cycles          *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
}

// New creates and registers the tracker metrics.
func New() *Metrics {
	return newMetrics(prometheus.NewRegistry(), true)
}

func newMetrics(registry *prometheus.Registry, runtime bool) *Metrics {
	m := &Metrics{
		registry: registry,
		recordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rwtracker_records_ingested_total",
			Help: "Feed records stored for the first time.",
		}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rwtracker_matches_total",
			Help: "Newly discovered matches by party.",
		}, []string{"party"}),
		dispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rwtracker_dispatch_errors_total",
			Help: "Notifications that could not be delivered.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rwtracker_fetch_errors_total",
			Help: "Feed fetches that failed after retries.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rwtracker_cycles_total",
			Help: "Completed ingest/match/notify cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rwtracker_cycle_duration_seconds",
			Help:    "Wall time of one ingest/match/notify cycle.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}

	registry.MustRegister(
		m.recordsIngested,
		m.matches,
		m.dispatchErrors,
		m.fetchErrors,
		m.cycles,
		m.cycleDuration,
	)
	if runtime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AddRecordsIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsIngested.Add(float64(n))
}

func (m *Metrics) AddMatches(party string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matches.WithLabelValues(party).Add(float64(n))
}

func (m *Metrics) IncDispatchErrors() {
	if m == nil {
		return
	}
	m.dispatchErrors.Inc()
}

func (m *Metrics) IncFetchErrors() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

// ObserveCycle counts one cycle and records its duration.
func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(d.Seconds())
}
