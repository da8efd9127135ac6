package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/models"
)

func createTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	cfg := auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
		Issuer: "test",
	}
	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

// fakeChecker is an in-memory PermissionChecker for middleware tests.
type fakeChecker struct {
	users   map[string]*models.User
	allowed map[string]map[string]bool
}

func (f *fakeChecker) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeChecker) UserCan(_ context.Context, user *models.User, permissionName string) (bool, error) {
	if user.Role == models.RoleSuper {
		return true, nil
	}
	return f.allowed[user.ID][permissionName], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGetClaimsFromContext(t *testing.T) {
	t.Run("no claims in context", func(t *testing.T) {
		ctx := context.Background()
		claims := GetClaimsFromContext(ctx)
		if claims != nil {
			t.Error("expected nil claims for empty context")
		}
	})

	t.Run("claims present in context", func(t *testing.T) {
		expectedClaims := &auth.Claims{
			UserID:   "user-123",
			Username: "testuser",
			Role:     "admin",
		}
		ctx := auth.ContextWithClaims(context.Background(), expectedClaims)
		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			t.Fatal("expected claims to be present")
		}
		if claims.UserID != expectedClaims.UserID {
			t.Errorf("expected UserID %s, got %s", expectedClaims.UserID, claims.UserID)
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		wantToken   string
		wantSuccess bool
	}{
		{"empty header", "", "", false},
		{"bearer token", "Bearer abc123", "abc123", true},
		{"bearer lowercase", "bearer abc123", "abc123", true},
		{"BEARER uppercase", "BEARER abc123", "abc123", true},
		{"missing token", "Bearer", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"no space", "Bearerabc123", "", false},
		{"token with spaces", "Bearer token with spaces", "token with spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			token, ok := extractBearerToken(req)
			if ok != tt.wantSuccess {
				t.Errorf("extractBearerToken() success = %v, want %v", ok, tt.wantSuccess)
			}
			if token != tt.wantToken {
				t.Errorf("extractBearerToken() token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestJWTAuth(t *testing.T) {
	jwtService := createTestJWTService(t)

	testUser := &models.User{ID: "user-123", Username: "testuser", Role: models.RoleMember}
	tokens, err := jwtService.GenerateTokenPair(testUser)
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}

	var capturedClaims *auth.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedClaims = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := JWTAuth(jwtService)(inner)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid access token", "Bearer " + tokens.AccessToken, http.StatusOK},
		{"refresh token rejected", "Bearer " + tokens.RefreshToken, http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"no header", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capturedClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if capturedClaims == nil {
					t.Fatal("expected claims in context")
				}
				if capturedClaims.Username != "testuser" {
					t.Errorf("expected username testuser, got %s", capturedClaims.Username)
				}
			}
		})
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:              "test-secret-key-that-is-at-least-32-characters-long",
		AccessTokenDuration: -1,
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	tokens, _ := svc.GenerateTokenPair(&models.User{ID: "u", Username: "u", Role: models.RoleMember})

	handler := JWTAuth(svc)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		claims     *auth.Claims
		roles      []string
		wantStatus int
	}{
		{"matching role", &auth.Claims{Role: "admin"}, []string{"admin"}, http.StatusOK},
		{"one of several", &auth.Claims{Role: "leader"}, []string{"admin", "leader"}, http.StatusOK},
		{"super bypasses", &auth.Claims{Role: "super"}, []string{"admin"}, http.StatusOK},
		{"wrong role", &auth.Claims{Role: "member"}, []string{"admin"}, http.StatusForbidden},
		{"no claims", nil, []string{"admin"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.roles...)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.ContextWithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	checker := &fakeChecker{
		users: map[string]*models.User{
			"member-1": {ID: "member-1", Username: "alice", Role: models.RoleMember},
			"super-1":  {ID: "super-1", Username: "super", Role: models.RoleSuper},
		},
		allowed: map[string]map[string]bool{
			"member-1": {"view_users": true},
		},
	}

	tests := []struct {
		name       string
		claims     *auth.Claims
		permission string
		wantStatus int
	}{
		{"granted", &auth.Claims{UserID: "member-1", Username: "alice", Role: "member"}, "view_users", http.StatusOK},
		{"denied", &auth.Claims{UserID: "member-1", Username: "alice", Role: "member"}, "manage_permissions", http.StatusForbidden},
		{"super bypasses", &auth.Claims{UserID: "super-1", Username: "super", Role: "super"}, "manage_permissions", http.StatusOK},
		{"unknown user", &auth.Claims{UserID: "ghost", Username: "ghost", Role: "member"}, "view_users", http.StatusUnauthorized},
		{"no claims", nil, "view_users", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequirePermission(checker, tt.permission)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.ContextWithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequirePermissionOrSelf(t *testing.T) {
	checker := &fakeChecker{
		users:   map[string]*models.User{"member-1": {ID: "member-1", Username: "alice", Role: models.RoleMember}},
		allowed: map[string]map[string]bool{},
	}

	handler := RequirePermissionOrSelf(checker, "view_users", "username")(okHandler())

	makeReq := func(param string, claims *auth.Claims) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("username", param)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		if claims != nil {
			req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
		}
		return req
	}

	t.Run("self access allowed without permission", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeReq("alice", &auth.Claims{UserID: "member-1", Username: "alice", Role: "member"}))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("other user denied without permission", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeReq("bob", &auth.Claims{UserID: "member-1", Username: "alice", Role: "member"}))
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

func TestRequirePasswordChange(t *testing.T) {
	handler := RequirePasswordChange("/api/v1/users/me/password")(okHandler())

	t.Run("flag set blocks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{Username: "u", MustChangePassword: true}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("flag clear passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{Username: "u"}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
