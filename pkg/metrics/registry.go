package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
	enabled      bool
)

// InitRegistry initializes the global Prometheus registry with standard
// Go runtime and process collectors. Must be called before creating any
// metrics instances; constructors return nil (no-op) otherwise.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		enabled = true
	})
}

// GetRegistry returns the global registry. Returns nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns whether metrics collection is enabled.
func IsEnabled() bool {
	return enabled
}

// Handler returns an http.Handler serving the registered metrics in
// Prometheus exposition format. Returns a 404 handler if metrics are
// not enabled.
func Handler() http.Handler {
	if !enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
