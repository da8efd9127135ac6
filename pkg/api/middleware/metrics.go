package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/psm-app/psm/pkg/metrics"
)

// Metrics records request counts, latency and in-flight gauge for every
// request. Routes are labelled by chi route pattern, not raw path, to keep
// label cardinality bounded. Pass nil to disable with zero overhead.
func Metrics(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.RecordRequestStart()
			defer m.RecordRequestEnd()

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}
