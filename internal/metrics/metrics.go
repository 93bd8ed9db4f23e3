// Package metrics holds the Prometheus collectors for the store, the mirror
// and the HTTP API. Every method is safe on a nil *Collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitualize/backend/mirror"
)

// Collectors groups the registered metrics.
type Collectors struct {
	Registry *prometheus.Registry

	MirrorOperations *prometheus.CounterVec
	StoreDuration    *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		MirrorOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitualize_mirror_operations_total",
				Help: "Pulls and pushes against the remote, by result",
			},
			[]string{"direction", "table", "result"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habitualize_store_operation_duration_seconds",
				Help:    "Store operation duration, remote round trips included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitualize_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habitualize_http_request_duration_seconds",
				Help:    "HTTP request duration seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	c.Registry.MustRegister(
		c.MirrorOperations,
		c.StoreDuration,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveStore records the time since start under operation.
func (c *Collectors) ObserveStore(operation string, start time.Time) {
	if c == nil {
		return
	}
	c.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveMirror counts one pull or push.
func (c *Collectors) ObserveMirror(direction mirror.Direction, tableID string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.MirrorOperations.WithLabelValues(string(direction), tableID, result).Inc()
}

// ObserveHTTP counts one request and its latency.
func (c *Collectors) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})
}
