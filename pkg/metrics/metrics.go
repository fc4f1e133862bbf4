// Package metrics holds the Prometheus collectors for the reading service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Progress update results.
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	SessionSeconds  prometheus.Histogram
	ProgressUpdates *prometheus.CounterVec
	BooksCompleted  prometheus.Counter
	ReaperClosed    prometheus.Counter
	StreamClients   prometheus.Gauge
}

// New creates the collectors on a fresh registry, alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reading_sessions_started_total",
			Help: "Reading sessions opened.",
		}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reading_sessions_ended_total",
			Help: "Reading sessions closed, by closer.",
		}, []string{"closed_by"}),
		SessionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reading_session_seconds",
			Help:    "Elapsed seconds of closed reading sessions.",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600, 7200, 14400},
		}),
		ProgressUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_updates_total",
			Help: "Progress posts, by whether the row was created or updated.",
		}, []string{"result"}),
		BooksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "books_completed_total",
			Help: "Complete-book requests accepted.",
		}),
		ReaperClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reaper_sessions_closed_total",
			Help: "Orphaned sessions closed by the reaper.",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progress_stream_clients",
			Help: "Connected progress stream websocket clients.",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.SessionsEnded,
		m.SessionSeconds,
		m.ProgressUpdates,
		m.BooksCompleted,
		m.ReaperClosed,
		m.StreamClients,
	)
	return m
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
