package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/psm-app/psm/pkg/metrics"
)

// authMetrics is the Prometheus implementation of metrics.AuthMetrics.
type authMetrics struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewAuthMetrics creates a new Prometheus-backed auth metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewAuthMetrics() *authMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &authMetrics{
		logins: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "psm_auth_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"}, // "success", "invalid_credentials", "disabled"
		),
		refreshes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "psm_auth_token_refreshes_total",
				Help: "Total number of refresh token exchanges by outcome",
			},
			[]string{"outcome"}, // "success", "invalid_token"
		),
	}
}

// RecordLogin records a login attempt.
func (m *authMetrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordTokenRefresh records a refresh token exchange.
func (m *authMetrics) RecordTokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}
