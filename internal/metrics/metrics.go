// Package metrics defines the Prometheus instrumentation surface.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GitHubMetrics observes outbound GitHub API calls.
type GitHubMetrics struct {
	requests  *prometheus.CounterVec
	remaining prometheus.Gauge
}

// NewGitHubMetrics registers GitHub client metrics on reg.
func NewGitHubMetrics(reg prometheus.Registerer) *GitHubMetrics {
	m := &GitHubMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitgaze_github_requests_total",
			Help: "Outbound GitHub API requests by resource and status class.",
		}, []string{"resource", "status"}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gitgaze_github_rate_limit_remaining",
			Help: "Most recently observed X-RateLimit-Remaining value.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.remaining)
	}
	return m
}

// ObserveRequest records one completed or failed outbound call. statusCode 0
// indicates a transport-level failure.
func (m *GitHubMetrics) ObserveRequest(resource string, statusCode int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(resource, statusClass(statusCode)).Inc()
}

// ObserveRemaining records the latest rate-limit remaining header value.
func (m *GitHubMetrics) ObserveRemaining(raw string) {
	if m == nil {
		return
	}
	remaining, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	m.remaining.Set(remaining)
}

// HTTPMetrics observes inbound dashboard API traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers HTTP server metrics on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitgaze_http_requests_total",
			Help: "Inbound HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gitgaze_http_request_duration_seconds",
			Help:    "Inbound HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// ObserveRequest records one served request.
func (m *HTTPMetrics) ObserveRequest(route string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, statusClass(statusCode)).Inc()
	m.duration.WithLabelValues(route).Observe(seconds)
}

// NewRegistry creates a registry preloaded with process and Go runtime
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler renders reg on /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func statusClass(statusCode int) string {
	switch {
	case statusCode == 0:
		return "error"
	case statusCode < 300:
		return "2xx"
	case statusCode < 400:
		return "3xx"
	case statusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
