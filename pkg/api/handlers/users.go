package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

// UserHandler handles user management API endpoints.
type UserHandler struct {
	store *store.Store
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s *store.Store) *UserHandler {
	return &UserHandler{store: s}
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email,omitempty"`
	Role               string     `json:"role"`
	Enabled            bool       `json:"enabled"`
	MustChangePassword bool       `json:"must_change_password"`
	AvatarURL          string     `json:"avatar_url,omitempty"`
	TeamLeaderID       *string    `json:"team_leader_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
}

// userToResponse converts a user model to its API representation.
func userToResponse(user *models.User) UserResponse {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return UserResponse{
		ID:                 user.ID,
		Username:           user.Username,
		Email:              email,
		Role:               string(user.Role),
		Enabled:            user.Enabled,
		MustChangePassword: user.MustChangePassword,
		AvatarURL:          user.AvatarURL,
		TeamLeaderID:       user.TeamLeaderID,
		CreatedAt:          user.CreatedAt,
		LastLogin:          user.LastLogin,
	}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// UpdateUserRequest is the request body for PUT /api/v1/users/{username}.
type UpdateUserRequest struct {
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	TeamLeaderID *string `json:"team_leader_id,omitempty"`
}

// PasswordRequest is the request body for password endpoints.
type PasswordRequest struct {
	// CurrentPassword is required when changing your own password.
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password"`
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}
	if len(req.Password) < 6 {
		UnprocessableEntity(w, "Password must be at least 6 characters")
		return
	}

	role := models.RoleMember
	if req.Role != "" {
		role = models.Role(req.Role)
		if !role.IsValid() {
			UnprocessableEntity(w, "Invalid role: "+req.Role)
			return
		}
	}
	if role == models.RoleSuper {
		Forbidden(w, "The super role cannot be assigned")
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        models.OptionalString(req.Email),
		Role:         role,
		Enabled:      enabled,
	}

	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "Username or email already exists")
			return
		}
		InternalServerError(w, "Failed to create user")
		return
	}

	recordActivity(r, h.store, callerName(r), "users", "create:"+user.Username)

	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userToResponse(user))
	}

	WriteJSONOK(w, responses)
}

// Get handles GET /api/v1/users/{username}.
// Users can fetch themselves; anything else requires the view_users
// permission (enforced by the router).
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.store.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to fetch user")
		return
	}

	WriteJSONOK(w, userToResponse(user))
}

// Update handles PUT /api/v1/users/{username}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.store.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to fetch user")
		return
	}

	var req UpdateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.IsValid() {
			UnprocessableEntity(w, "Invalid role: "+*req.Role)
			return
		}
		// The bootstrap superuser keeps its role; nobody else gets it.
		if user.Role == models.RoleSuper || role == models.RoleSuper {
			Forbidden(w, "The super role cannot be assigned or removed")
			return
		}
		user.Role = role
	}
	if req.Email != nil {
		user.Email = models.OptionalString(*req.Email)
	}
	if req.Enabled != nil {
		if user.Username == models.SuperuserUsername && !*req.Enabled {
			Forbidden(w, "The superuser cannot be disabled")
			return
		}
		user.Enabled = *req.Enabled
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.TeamLeaderID != nil {
		if *req.TeamLeaderID == "" {
			user.TeamLeaderID = nil
		} else {
			user.TeamLeaderID = req.TeamLeaderID
		}
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "Email already exists")
			return
		}
		InternalServerError(w, "Failed to update user")
		return
	}

	recordActivity(r, h.store, callerName(r), "users", "update:"+user.Username)

	WriteJSONOK(w, userToResponse(user))
}

// Delete handles DELETE /api/v1/users/{username}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if username == models.SuperuserUsername {
		Forbidden(w, "The superuser cannot be deleted")
		return
	}

	if claims := auth.ClaimsFromContext(r.Context()); claims != nil && claims.Username == username {
		Forbidden(w, "You cannot delete your own account")
		return
	}

	if err := h.store.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to delete user")
		return
	}

	recordActivity(r, h.store, callerName(r), "users", "delete:"+username)

	WriteNoContent(w)
}

// ResetPassword handles POST /api/v1/users/{username}/password.
// Sets a new password for the user and forces a change on next login.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req PasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if len(req.NewPassword) < 6 {
		UnprocessableEntity(w, "Password must be at least 6 characters")
		return
	}

	user, err := h.store.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to fetch user")
		return
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	if err := h.store.UpdatePassword(r.Context(), user.Username, hash); err != nil {
		InternalServerError(w, "Failed to update password")
		return
	}

	// Admin resets force a change on next login
	user.MustChangePassword = true
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		InternalServerError(w, "Failed to flag password change")
		return
	}

	recordActivity(r, h.store, callerName(r), "users", "reset_password:"+username)

	WriteNoContent(w)
}

// ChangeOwnPassword handles POST /api/v1/users/me/password.
// The current password must be supplied. Clears the MustChangePassword flag.
func (h *UserHandler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	var req PasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.CurrentPassword == "" {
		BadRequest(w, "Current password is required")
		return
	}
	if len(req.NewPassword) < 6 {
		UnprocessableEntity(w, "Password must be at least 6 characters")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		UnprocessableEntity(w, "New password must differ from the current one")
		return
	}

	if _, err := h.store.ValidateCredentials(r.Context(), claims.Username, req.CurrentPassword); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "Current password is incorrect")
			return
		}
		InternalServerError(w, "Failed to verify password")
		return
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	if err := h.store.UpdatePassword(r.Context(), claims.Username, hash); err != nil {
		InternalServerError(w, "Failed to update password")
		return
	}

	recordActivity(r, h.store, claims.Username, "users", "change_password")

	WriteNoContent(w)
}

// callerName returns the authenticated caller's username, or empty for
// unauthenticated requests.
func callerName(r *http.Request) string {
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}
