package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/psm-app/psm/pkg/metrics"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics creates a new Prometheus-backed HTTP metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMetrics() *httpMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &httpMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "psm_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "psm_http_request_duration_seconds",
				Help:    "HTTP request latency distribution by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "psm_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
	}
}

// RecordRequest records a completed request.
func (m *httpMetrics) RecordRequest(method string, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight request counter.
func (m *httpMetrics) RecordRequestStart() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RecordRequestEnd decrements the in-flight request counter.
func (m *httpMetrics) RecordRequestEnd() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
