package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	RequestID string    // chi request ID
	Method    string    // HTTP method
	Path      string    // request path
	ClientIP  string    // client IP address (without port)
	Username  string    // authenticated username, if any
	Role      string    // authenticated role, if any
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an incoming request
func NewLogContext(requestID, method, path, clientIP string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		Method:    method,
		Path:      path,
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// WithUser returns a copy with the authenticated user set
func (lc *LogContext) WithUser(username, role string) *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	clone.Username = username
	clone.Role = role
	return &clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
