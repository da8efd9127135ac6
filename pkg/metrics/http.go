package metrics

import (
	"time"
)

// HTTPMetrics provides observability for API request handling.
//
// Implementations can collect metrics about request counts, latency and
// in-flight requests. This interface is optional - pass nil to disable
// metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	m := prometheus.NewHTTPMetrics()
//	router := api.NewRouter(store, cfg, m)
//
//	// Without metrics (pass nil for zero overhead)
//	router := api.NewRouter(store, cfg, nil)
type HTTPMetrics interface {
	// RecordRequest records a completed request with its method, route
	// pattern, response status and duration.
	//
	// Parameters:
	//   - method: HTTP method (e.g., "GET", "POST")
	//   - route: Route pattern (e.g., "/api/v1/users/{id}"), not the raw path
	//   - status: HTTP response status code
	//   - duration: Time taken to serve the request
	RecordRequest(method string, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request counter.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request counter.
	RecordRequestEnd()
}

// AuthMetrics provides observability for authentication outcomes.
type AuthMetrics interface {
	// RecordLogin records a login attempt.
	//
	// Parameters:
	//   - outcome: "success", "invalid_credentials" or "disabled"
	RecordLogin(outcome string)

	// RecordTokenRefresh records a refresh token exchange.
	//
	// Parameters:
	//   - outcome: "success" or "invalid_token"
	RecordTokenRefresh(outcome string)
}
