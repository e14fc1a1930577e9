package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

// Field fetch outcomes.
const (
	FetchFound  = "found"
	FetchNoData = "no_data"
	FetchError  = "error"
)

// Submission outcomes.
const (
	SubmissionComplete = "complete"
	SubmissionPartial  = "partial"
	SubmissionFailed   = "failed"
	SubmissionInvalid  = "invalid"
	SubmissionBusy     = "busy"
)

// Metrics owns the profiler's prometheus collectors on a dedicated registry.
type Metrics struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
}

// New registers the profiler collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiler",
			Name:      "field_fetch_total",
			Help:      "Field fetches by field and outcome.",
		}, []string{"field", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "profiler",
			Name:      "field_fetch_duration_seconds",
			Help:      "Latency of field fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"field"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiler",
			Name:      "submissions_total",
			Help:      "Submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.submissions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one field fetch.
func (m *Metrics) ObserveFetch(field domain.Field, outcome string, elapsed time.Duration) {
	m.fetches.WithLabelValues(string(field), outcome).Inc()
	m.fetchDuration.WithLabelValues(string(field)).Observe(elapsed.Seconds())
}

// ObserveSubmission records the outcome of one submit attempt.
func (m *Metrics) ObserveSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
