// Package metrics defines the Prometheus collectors of the shortener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors updated by middleware and service code.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Shortened    prometheus.Counter
	Redirects    *prometheus.CounterVec
	Conflicts    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shortener_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"route"}),
		Shortened: factory.NewCounter(prometheus.CounterOpts{
			Name: "shortener_urls_shortened_total",
			Help: "Short codes allocated.",
		}),
		Redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_redirects_total",
			Help: "Resolution attempts by outcome.",
		}, []string{"outcome"}), // outcome: hit, miss, error
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "shortener_code_conflicts_total",
			Help: "Short code collisions retried by the allocator.",
		}),
	}
}

// NewNop returns collectors registered on a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
