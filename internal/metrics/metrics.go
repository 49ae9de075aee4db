// Package metrics exposes Prometheus metrics for the onboarding service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/onboard/internal/suggest"
)

// SessionCounter reports the number of live sessions.
type SessionCounter func() (int, error)

// Suggestion outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Metrics holds the service collectors and the registry they live in.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	suggestionsTotal  *prometheus.CounterVec
	celebrationsTotal prometheus.Counter
	submissionsTotal  prometheus.Counter
}

// New creates the collectors and registers them with a fresh registry.
// When sessions is non-nil the live session count is reported on every scrape.
func New(sessions SessionCounter) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status code.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboard_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onboard_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed.",
		}),

		suggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_suggestions_total",
				Help: "Machine suggestion requests by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		celebrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboard_celebrations_total",
			Help: "Celebration messages shown.",
		}),
		submissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboard_submissions_total",
			Help: "Onboarding forms submitted.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.suggestionsTotal,
		m.celebrationsTotal,
		m.submissionsTotal,
	)
	if sessions != nil {
		m.registry.MustRegister(&sessionCollector{
			count: sessions,
			desc: prometheus.NewDesc(
				"onboard_sessions",
				"Number of onboarding sessions currently stored.",
				nil, nil,
			),
		})
	}
	return m
}

// sessionCollector queries the session store on each scrape.
type sessionCollector struct {
	count SessionCounter
	desc  *prometheus.Desc
}

func (c *sessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *sessionCollector) Collect(ch chan<- prometheus.Metric) {
	n, err := c.count()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n))
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Suggestion counts one suggestion request.
func (m *Metrics) Suggestion(source, outcome string) {
	if m == nil {
		return
	}
	m.suggestionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveSuggestion counts the result of a suggestion provider call.
func (m *Metrics) ObserveSuggestion(res suggest.Result, err error) {
	switch {
	case err != nil:
		m.Suggestion(string(suggest.SourceRemote), OutcomeError)
	case res.Degraded:
		m.Suggestion(string(res.Source), OutcomeDegraded)
	default:
		m.Suggestion(string(res.Source), OutcomeOK)
	}
}

// Celebrated counts one celebration message.
func (m *Metrics) Celebrated() {
	if m == nil {
		return
	}
	m.celebrationsTotal.Inc()
}

// Submitted counts one form submission.
func (m *Metrics) Submitted() {
	if m == nil {
		return
	}
	m.submissionsTotal.Inc()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "POST /machines/{id}")
// so the path label has bounded cardinality.
func (m *Metrics) Middleware(pattern string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			m.httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			m.httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			m.httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
