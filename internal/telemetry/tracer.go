package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for traced operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// HTTP attributes
	// ========================================================================
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"
	AttrClientIP   = "client.address"

	// ========================================================================
	// User attributes
	// ========================================================================
	AttrUserID   = "user.id"
	AttrUsername = "user.name"
	AttrUserRole = "user.role"

	// ========================================================================
	// Database attributes
	// ========================================================================
	AttrDBSystem    = "db.system"
	AttrDBOperation = "db.operation.name"
	AttrDBTable     = "db.collection.name"

	// ========================================================================
	// Bootstrap attributes
	// ========================================================================
	AttrBootstrapStep = "bootstrap.step"
	AttrSeedModule    = "seed.module"
	AttrSeedCreated   = "seed.created"

	// ========================================================================
	// Config attributes
	// ========================================================================
	AttrConfigKey = "config.key"
)

// ============================================================================
// Attribute constructors
// ============================================================================

// HTTPMethod creates an HTTP request method attribute
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPRoute creates an HTTP route attribute
func HTTPRoute(route string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, route)
}

// HTTPStatus creates an HTTP status code attribute
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// ClientIP creates a client address attribute
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// UserID creates a user ID attribute
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// Username creates a username attribute
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UserRole creates a user role attribute
func UserRole(role string) attribute.KeyValue {
	return attribute.String(AttrUserRole, role)
}

// DBOperation creates a database operation attribute
func DBOperation(op string) attribute.KeyValue {
	return attribute.String(AttrDBOperation, op)
}

// DBTable creates a database table attribute
func DBTable(table string) attribute.KeyValue {
	return attribute.String(AttrDBTable, table)
}

// BootstrapStep creates a bootstrap step attribute
func BootstrapStep(name string) attribute.KeyValue {
	return attribute.String(AttrBootstrapStep, name)
}

// SeedModule creates a seed module attribute
func SeedModule(module string) attribute.KeyValue {
	return attribute.String(AttrSeedModule, module)
}

// SeedCreated creates an attribute recording how many rows a seed pass created
func SeedCreated(n int) attribute.KeyValue {
	return attribute.Int(AttrSeedCreated, n)
}

// ConfigKey creates a config key attribute
func ConfigKey(key string) attribute.KeyValue {
	return attribute.String(AttrConfigKey, key)
}

// ============================================================================
// Span helpers
// ============================================================================

// StartHTTPSpan starts a span for an HTTP request with standard attributes.
func StartHTTPSpan(ctx context.Context, method, route string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := []attribute.KeyValue{
		HTTPMethod(method),
		HTTPRoute(route),
	}
	spanAttrs = append(spanAttrs, attrs...)
	return StartSpan(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(spanAttrs...),
	)
}

// StartBootstrapSpan starts a span for a startup orchestration step.
func StartBootstrapSpan(ctx context.Context, step string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := []attribute.KeyValue{BootstrapStep(step)}
	spanAttrs = append(spanAttrs, attrs...)
	return StartSpan(ctx, "bootstrap."+step, trace.WithAttributes(spanAttrs...))
}

// StartStoreSpan starts a span for a database operation.
func StartStoreSpan(ctx context.Context, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := []attribute.KeyValue{
		DBOperation(operation),
		DBTable(table),
	}
	spanAttrs = append(spanAttrs, attrs...)
	return StartSpan(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(spanAttrs...),
	)
}
