package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs can be
// aggregated and queried uniformly.
const (
	// Request identification
	KeyRequestID = "request_id" // per-request correlation ID
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // request path
	KeyStatus    = "status"     // HTTP status code
	KeyClientIP  = "client_ip"  // client IP address

	// Identity
	KeyUsername = "username" // authenticated username
	KeyRole     = "role"     // authenticated role

	// Bootstrap / setup steps
	KeyStep = "step" // setup step name

	// Operation metadata
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyModule     = "module"      // application module name
	KeyKey        = "key"         // config key
	KeyPermission = "permission"  // permission name
)

// Field constructors for the most common attributes.

// RequestID returns a slog.Attr for the request correlation ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Status returns a slog.Attr for an HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Username returns a slog.Attr for the authenticated username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Step returns a slog.Attr for a bootstrap step name
func Step(name string) slog.Attr {
	return slog.String(KeyStep, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error (nil-safe)
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
