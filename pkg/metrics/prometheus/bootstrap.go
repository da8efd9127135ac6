package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/psm-app/psm/pkg/metrics"
)

// bootstrapMetrics is the Prometheus implementation of metrics.BootstrapMetrics.
type bootstrapMetrics struct {
	stepDuration *prometheus.HistogramVec
	stepTotal    *prometheus.CounterVec
	seededRows   *prometheus.CounterVec
}

// NewBootstrapMetrics creates a new Prometheus-backed bootstrap metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBootstrapMetrics() *bootstrapMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &bootstrapMetrics{
		stepDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "psm_bootstrap_step_duration_seconds",
				Help:    "Startup step latency distribution by step name",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"step"},
		),
		stepTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "psm_bootstrap_steps_total",
				Help: "Total number of executed startup steps by step name and result",
			},
			[]string{"step", "result"}, // result: "success", "failure"
		),
		seededRows: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "psm_bootstrap_seeded_rows_total",
				Help: "Total number of rows created by seeding steps by module",
			},
			[]string{"module"}, // "permissions", "configs"
		),
	}
}

// RecordStep records a completed startup step.
func (m *bootstrapMetrics) RecordStep(step string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
	m.stepTotal.WithLabelValues(step, result).Inc()
}

// RecordSeededRows records how many rows a seeding step created.
func (m *bootstrapMetrics) RecordSeededRows(module string, created int) {
	if m == nil {
		return
	}
	m.seededRows.WithLabelValues(module).Add(float64(created))
}
