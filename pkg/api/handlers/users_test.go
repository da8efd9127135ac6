//go:build integration

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

func setupUserTest(t *testing.T) (*store.Store, *UserHandler) {
	t.Helper()
	s := newTestStore(t)
	return s, NewUserHandler(s)
}

// withURLParam injects a chi URL parameter into the request context.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// withClaims injects authenticated claims into the request context.
func withClaims(req *http.Request, user *models.User) *http.Request {
	claims := &auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
	return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
}

func TestUserHandler_Create(t *testing.T) {
	_, handler := setupUserTest(t)

	tests := []struct {
		name       string
		body       CreateUserRequest
		wantStatus int
	}{
		{
			name:       "valid member",
			body:       CreateUserRequest{Username: "alice", Password: "password123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "valid leader",
			body:       CreateUserRequest{Username: "bob", Password: "password123", Role: "leader"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			body:       CreateUserRequest{Username: "alice", Password: "password123"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "super role rejected",
			body:       CreateUserRequest{Username: "carol", Password: "password123", Role: "super"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid role",
			body:       CreateUserRequest{Username: "dave", Password: "password123", Role: "wizard"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "short password",
			body:       CreateUserRequest{Username: "erin", Password: "123"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing username",
			body:       CreateUserRequest{Password: "password123"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Create(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Create() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	s, handler := setupUserTest(t)

	createTestUser(t, s, "alice", "password123", models.RoleMember, true)
	createTestUser(t, s, "bob", "password123", models.RoleLeader, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("Expected 2 users, got %d", len(resp))
	}
}

func TestUserHandler_Get(t *testing.T) {
	s, handler := setupUserTest(t)

	createTestUser(t, s, "alice", "password123", models.RoleMember, true)

	tests := []struct {
		name       string
		username   string
		wantStatus int
	}{
		{"existing user", "alice", http.StatusOK},
		{"missing user", "ghost", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+tt.username, nil)
			req = withURLParam(req, "username", tt.username)
			w := httptest.NewRecorder()

			handler.Get(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Get() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestUserHandler_Update(t *testing.T) {
	s, handler := setupUserTest(t)
	ctx := context.Background()

	createTestUser(t, s, "alice", "password123", models.RoleMember, true)

	role := "leader"
	body, _ := json.Marshal(UpdateUserRequest{Role: &role})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice", bytes.NewReader(body))
	req = withURLParam(req, "username", "alice")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}

	updated, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if updated.Role != models.RoleLeader {
		t.Errorf("Expected role leader, got %s", updated.Role)
	}
}

func TestUserHandler_Update_SuperRoleRejected(t *testing.T) {
	s, handler := setupUserTest(t)

	createTestUser(t, s, "alice", "password123", models.RoleMember, true)

	role := "super"
	body, _ := json.Marshal(UpdateUserRequest{Role: &role})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice", bytes.NewReader(body))
	req = withURLParam(req, "username", "alice")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Update() status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	s, handler := setupUserTest(t)

	admin := createTestUser(t, s, "admin1", "password123", models.RoleAdmin, true)
	createTestUser(t, s, "alice", "password123", models.RoleMember, true)

	tests := []struct {
		name       string
		username   string
		wantStatus int
	}{
		{"delete existing", "alice", http.StatusNoContent},
		{"delete missing", "alice", http.StatusNotFound},
		{"superuser protected", "super", http.StatusForbidden},
		{"self-delete blocked", "admin1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+tt.username, nil)
			req = withURLParam(req, "username", tt.username)
			req = withClaims(req, admin)
			w := httptest.NewRecorder()

			handler.Delete(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Delete() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestUserHandler_ResetPassword(t *testing.T) {
	s, handler := setupUserTest(t)
	ctx := context.Background()

	createTestUser(t, s, "alice", "oldpassword", models.RoleMember, true)

	body, _ := json.Marshal(PasswordRequest{NewPassword: "newpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/password", bytes.NewReader(body))
	req = withURLParam(req, "username", "alice")
	w := httptest.NewRecorder()

	handler.ResetPassword(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("ResetPassword() status = %d, want %d, body = %s", w.Code, http.StatusNoContent, w.Body.String())
	}

	// New password works and the change-on-next-login flag is set
	user, err := s.ValidateCredentials(ctx, "alice", "newpassword")
	if err != nil {
		t.Fatalf("New password rejected: %v", err)
	}
	if !user.MustChangePassword {
		t.Error("Expected MustChangePassword to be set after admin reset")
	}
}

func TestUserHandler_ChangeOwnPassword(t *testing.T) {
	s, handler := setupUserTest(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice", "oldpassword", models.RoleMember, true)

	tests := []struct {
		name       string
		body       PasswordRequest
		wantStatus int
	}{
		{
			name:       "wrong current password",
			body:       PasswordRequest{CurrentPassword: "bogus", NewPassword: "newpassword"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing current password",
			body:       PasswordRequest{NewPassword: "newpassword"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "same password",
			body:       PasswordRequest{CurrentPassword: "oldpassword", NewPassword: "oldpassword"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "valid change",
			body:       PasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword"},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/password", bytes.NewReader(body))
			req = withClaims(req, user)
			w := httptest.NewRecorder()

			handler.ChangeOwnPassword(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ChangeOwnPassword() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	if _, err := s.ValidateCredentials(ctx, "alice", "newpassword"); err != nil {
		t.Fatalf("New password rejected: %v", err)
	}
}
