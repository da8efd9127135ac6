package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/config"
	"github.com/psm-app/psm/pkg/metrics"
	"github.com/psm-app/psm/pkg/store"
)

// Server provides the PSM HTTP server.
//
// The server exposes health probes, Prometheus metrics, and the
// authentication, user, permission, config and activity APIs. It supports
// graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	store        *store.Store
	jwtService   *auth.JWTService
	config       config.ServerConfig
	shutdownOnce sync.Once
}

// ServerDeps bundles optional server dependencies. Metrics fields may be nil.
type ServerDeps struct {
	HTTPMetrics metrics.HTTPMetrics
	AuthMetrics metrics.AuthMetrics
	Version     string
}

// NewServer creates a new API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// The JWT service is created internally from the auth config. The JWT secret
// must be at least 32 characters, set via config or the PSM_AUTH_JWT_SECRET
// environment variable.
func NewServer(cfg *config.Config, s *store.Store, deps ServerDeps) (*Server, error) {
	jwtSecret := cfg.Auth.GetJWTSecret()
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters; set via %s env var or config", config.EnvJWTSecret)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               jwtSecret,
		Issuer:               "psm",
		AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
		RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := NewRouter(RouterDeps{
		Store:       s,
		JWTService:  jwtService,
		HTTPMetrics: deps.HTTPMetrics,
		AuthMetrics: deps.AuthMetrics,
		Version:     deps.Version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		server:     server,
		store:      s,
		jwtService: jwtService,
		config:     cfg.Server,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
			"ready", fmt.Sprintf("http://localhost:%d/health/ready", s.config.Port),
			"metrics", fmt.Sprintf("http://localhost:%d/metrics", s.config.Port),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Don't use the cancelled ctx as it would cause immediate shutdown
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}
