// Package api provides the PSM HTTP server: health probes, authentication,
// user and permission management, system configs and the audit log.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/api/handlers"
	apimiddleware "github.com/psm-app/psm/pkg/api/middleware"
	"github.com/psm-app/psm/pkg/metrics"
	"github.com/psm-app/psm/pkg/store"
)

// RouterDeps bundles the dependencies of the router. HTTPMetrics and
// AuthMetrics may be nil.
type RouterDeps struct {
	Store       *store.Store
	JWTService  *auth.JWTService
	HTTPMetrics metrics.HTTPMetrics
	AuthMetrics metrics.AuthMetrics
	Version     string
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Prometheus request metrics (when enabled)
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (404 when metrics disabled)
//   - POST /api/v1/auth/login - User authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - POST /api/v1/auth/register - Self-registration (if enabled)
//   - GET /api/v1/auth/me - Current user info
//   - POST /api/v1/users/me/password - Change own password
//   - /api/v1/users/* - User management (permission gated)
//   - /api/v1/permissions/* - Permission catalog and grants (manage_permissions)
//   - /api/v1/configs/* - System configs (super only)
//   - GET /api/v1/activity - Audit log (view_activity_logs)
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(apimiddleware.Metrics(deps.HTTPMetrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Version)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus metrics - unauthenticated, 404 when disabled
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(deps.Store, deps.JWTService, deps.AuthMetrics)
	userHandler := handlers.NewUserHandler(deps.Store)
	permissionHandler := handlers.NewPermissionHandler(deps.Store)
	configHandler := handlers.NewConfigHandler(deps.Store)
	activityHandler := handlers.NewActivityHandler(deps.Store)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/register", authHandler.Register)

			// Authenticated endpoint
			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.JWTAuth(deps.JWTService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Password change - authenticated but exempt from MustChangePassword check
		// This allows users who must change their password to actually change it
		r.Route("/users/me/password", func(r chi.Router) {
			r.Use(apimiddleware.JWTAuth(deps.JWTService))
			r.Post("/", userHandler.ChangeOwnPassword)
		})

		// Protected routes - require authentication and password change complete
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.JWTAuth(deps.JWTService))
			r.Use(apimiddleware.RequirePasswordChange("/api/v1/users/me/password"))

			// User management
			r.Route("/users", func(r chi.Router) {
				// Self-access allowed; others need view_users
				r.With(apimiddleware.RequirePermissionOrSelf(deps.Store, "view_users", "username")).
					Get("/{username}", userHandler.Get)

				r.With(apimiddleware.RequirePermission(deps.Store, "view_users")).
					Get("/", userHandler.List)
				r.With(apimiddleware.RequirePermission(deps.Store, "edit_user_role")).
					Put("/{username}", userHandler.Update)

				// Account lifecycle is admin territory
				r.Group(func(r chi.Router) {
					r.Use(apimiddleware.RequireRole("admin"))

					r.Post("/", userHandler.Create)
					r.Delete("/{username}", userHandler.Delete)
					r.Post("/{username}/password", userHandler.ResetPassword)
				})
			})

			// Permission catalog and grants
			r.Route("/permissions", func(r chi.Router) {
				r.Use(apimiddleware.RequirePermission(deps.Store, "manage_permissions"))

				r.Get("/", permissionHandler.List)
				r.Get("/roles/{role}", permissionHandler.GetRoleGrants)
				r.Put("/roles/{role}", permissionHandler.SetRoleGrants)
				r.Put("/users/{username}", permissionHandler.SetUserOverride)
			})

			// System configs (super only)
			r.Route("/configs", func(r chi.Router) {
				r.Use(apimiddleware.RequireSuper())

				r.Get("/", configHandler.List)
				r.Get("/{key}", configHandler.Get)
				r.Put("/{key}", configHandler.Set)
				r.Delete("/{key}", configHandler.Delete)
			})

			// Audit log
			r.With(apimiddleware.RequirePermission(deps.Store, "view_activity_logs")).
				Get("/activity", activityHandler.List)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck and metrics requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		// Seed a log context so authenticated handlers can attach the caller
		lc := logger.NewLogContext(requestID, r.Method, r.URL.Path, r.RemoteAddr)
		ctx := logger.WithContext(r.Context(), lc)
		r = r.WithContext(ctx)

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
