package auth

import (
	"context"
)

// claimsContextKey is a private type for context keys to avoid collisions.
type claimsContextKey struct{}

// ContextWithClaims returns a context carrying validated JWT claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the validated JWT claims stored in the context,
// or nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
