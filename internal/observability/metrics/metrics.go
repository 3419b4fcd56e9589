// Package metrics exposes Prometheus instrumentation on a private registry,
// so only this service's series appear on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysesTotal  *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	ordersTotal    prometheus.Counter
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "procurement",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "procurement",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "procurement",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "procurement",
			Subsystem:   "workflow",
			Name:        "analyses_total",
			Help:        "Total document analyses by outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)
	mutationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "procurement",
			Subsystem:   "workflow",
			Name:        "mutations_total",
			Help:        "Total remote mutations by operation and outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"operation", "status"},
	)
	ordersTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "procurement",
			Subsystem:   "workflow",
			Name:        "orders_created_total",
			Help:        "Total purchase orders created.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		analysesTotal,
		mutationsTotal,
		ordersTotal,
	)

	return &Metrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		analysesTotal:   analysesTotal,
		mutationsTotal:  mutationsTotal,
		ordersTotal:     ordersTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts, durations and in-flight gauge for every
// route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) RecordAnalysis(status string) {
	m.analysesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordMutation(operation, status string) {
	m.mutationsTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) RecordOrderCreated() {
	m.ordersTotal.Inc()
}

// normalizePath collapses session identifiers so path cardinality stays flat.
func normalizePath(path string) string {
	const prefix = "/api/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + "{session_id}" + rest[i:]
	}
	return prefix + "{session_id}"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush passes through so SSE responses keep streaming under the middleware.
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
