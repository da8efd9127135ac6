package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/api/auth"
	"github.com/psm-app/psm/pkg/metrics"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	store      *store.Store
	jwtService *auth.JWTService
	metrics    metrics.AuthMetrics
}

// NewAuthHandler creates a new AuthHandler. Metrics may be nil.
func NewAuthHandler(s *store.Store, jwtService *auth.JWTService, m metrics.AuthMetrics) *AuthHandler {
	return &AuthHandler{
		store:      s,
		jwtService: jwtService,
		metrics:    m,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest is the request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// Login handles POST /api/v1/auth/login.
// Authenticates user credentials and returns a JWT token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) || errors.Is(err, models.ErrUserNotFound) {
			h.recordLogin("invalid_credentials")
			Unauthorized(w, "Invalid username or password")
			return
		}
		if errors.Is(err, models.ErrUserDisabled) {
			h.recordLogin("disabled")
			Forbidden(w, "User account is disabled")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	h.recordLogin("success")

	// Update last login time (non-critical, log error for debugging)
	if err := h.store.UpdateLastLogin(r.Context(), user.Username, time.Now()); err != nil {
		logger.WarnCtx(r.Context(), "failed to update last login time", "username", user.Username, "error", err)
	}

	h.recordActivity(r, user.Username, "auth", "login")

	WriteJSONOK(w, LoginResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    tokenPair.TokenType,
		ExpiresIn:    tokenPair.ExpiresIn,
		ExpiresAt:    tokenPair.ExpiresAt,
		User:         userToResponse(user),
	})
}

// Refresh handles POST /api/v1/auth/refresh.
// Returns a new token pair using a valid refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		BadRequest(w, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.recordRefresh("invalid_token")
		if errors.Is(err, auth.ErrExpiredToken) {
			Unauthorized(w, "Refresh token has expired")
			return
		}
		Unauthorized(w, "Invalid refresh token")
		return
	}

	// Fetch fresh user data
	user, err := h.store.GetUser(r.Context(), claims.Username)
	if err != nil {
		h.recordRefresh("invalid_token")
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to fetch user")
		return
	}

	if !user.Enabled {
		h.recordRefresh("invalid_token")
		Forbidden(w, "User account is disabled")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	h.recordRefresh("success")

	WriteJSONOK(w, LoginResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    tokenPair.TokenType,
		ExpiresIn:    tokenPair.ExpiresIn,
		ExpiresAt:    tokenPair.ExpiresAt,
		User:         userToResponse(user),
	})
}

// Me handles GET /api/v1/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.store.GetUser(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to fetch user")
		return
	}

	WriteJSONOK(w, userToResponse(user))
}

// Register handles POST /api/v1/auth/register.
// Creates a member account when self-registration is enabled via the
// ALLOW_REGISTRATION system config. Disabled installs return 403.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	allowed, err := h.registrationAllowed(r)
	if err != nil {
		InternalServerError(w, "Failed to check registration policy")
		return
	}
	if !allowed {
		Forbidden(w, "Self-registration is disabled")
		return
	}

	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}
	if req.Username == models.SuperuserUsername {
		Conflict(w, "Username is reserved")
		return
	}
	if len(req.Password) < 6 {
		UnprocessableEntity(w, "Password must be at least 6 characters")
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        models.OptionalString(req.Email),
		Role:         models.RoleMember,
		Enabled:      true,
	}

	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "Username or email already exists")
			return
		}
		InternalServerError(w, "Failed to create user")
		return
	}

	h.recordActivity(r, user.Username, "auth", "register")

	WriteJSONCreated(w, userToResponse(user))
}

// registrationAllowed reads the ALLOW_REGISTRATION system config. A missing
// key counts as disabled.
func (h *AuthHandler) registrationAllowed(r *http.Request) (bool, error) {
	cfg, err := h.store.GetConfig(r.Context(), models.ConfigAllowRegistration)
	if err != nil {
		if errors.Is(err, models.ErrConfigNotFound) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(cfg.Value, "true"), nil
}

func (h *AuthHandler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

func (h *AuthHandler) recordRefresh(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordTokenRefresh(outcome)
	}
}

func (h *AuthHandler) recordActivity(r *http.Request, username, module, action string) {
	recordActivity(r, h.store, username, module, action)
}
