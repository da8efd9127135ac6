// Package middleware provides HTTP middleware for the PSM API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/api/handlers"
	"github.com/psm-app/psm/pkg/models"
)

// PermissionChecker resolves fine-grained permission checks against the
// store. Checks run per request since per-user overrides can change
// between token issue and use.
type PermissionChecker interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UserCan(ctx context.Context, user *models.User, permissionName string) (bool, error)
}

// GetClaimsFromContext returns the validated JWT claims stored by JWTAuth,
// or nil if the request was not authenticated.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	return auth.ClaimsFromContext(ctx)
}

// extractBearerToken extracts the token from an "Authorization: Bearer ..."
// header. The scheme match is case-insensitive.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// JWTAuth validates the Authorization header and stores the claims in the
// request context. Requests without a valid access token get 401.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				handlers.Unauthorized(w, "Missing or malformed Authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if err == auth.ErrExpiredToken {
					handlers.Unauthorized(w, "Token has expired")
					return
				}
				handlers.Unauthorized(w, "Invalid token")
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)

			// Enrich the log context so downstream handlers log the caller
			if lc := logger.FromContext(ctx); lc != nil {
				ctx = logger.WithContext(ctx, lc.WithUser(claims.Username, claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only callers whose role is one of the given roles.
// The super role always passes. Must run after JWTAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				handlers.Unauthorized(w, "Authentication required")
				return
			}

			if claims.IsSuper() || claims.HasRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}

			handlers.Forbidden(w, "Insufficient role")
		})
	}
}

// RequireSuper allows only the super role. Must run after JWTAuth.
func RequireSuper() func(http.Handler) http.Handler {
	return RequireRole(string(models.RoleSuper))
}

// RequirePermission allows only callers holding the given permission,
// resolved against the store (super bypass, per-user override, then role
// default). Must run after JWTAuth.
func RequirePermission(checker PermissionChecker, permissionName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				handlers.Unauthorized(w, "Authentication required")
				return
			}

			user, err := checker.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				handlers.Unauthorized(w, "User not found")
				return
			}

			allowed, err := checker.UserCan(r.Context(), user, permissionName)
			if err != nil {
				handlers.InternalServerError(w, "Permission check failed")
				return
			}
			if !allowed {
				handlers.Forbidden(w, "Missing permission: "+permissionName)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissionOrSelf is like RequirePermission but lets callers
// through when the route's {userParam} URL parameter names themselves.
// Must run after JWTAuth, inside a chi route.
func RequirePermissionOrSelf(checker PermissionChecker, permissionName, userParam string) func(http.Handler) http.Handler {
	permissionGate := RequirePermission(checker, permissionName)
	return func(next http.Handler) http.Handler {
		gated := permissionGate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				handlers.Unauthorized(w, "Authentication required")
				return
			}

			if chi.URLParam(r, userParam) == claims.Username {
				next.ServeHTTP(w, r)
				return
			}

			gated.ServeHTTP(w, r)
		})
	}
}

// RequirePasswordChange blocks callers flagged with MustChangePassword,
// pointing them at the password change endpoint. Must run after JWTAuth.
func RequirePasswordChange(passwordChangePath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				handlers.Unauthorized(w, "Authentication required")
				return
			}

			if claims.MustChangePassword {
				handlers.Forbidden(w, "Password change required; use "+passwordChangePath)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
