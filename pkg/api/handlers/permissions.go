package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

// PermissionHandler handles permission catalog and grant API endpoints.
type PermissionHandler struct {
	store *store.Store
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(s *store.Store) *PermissionHandler {
	return &PermissionHandler{store: s}
}

// RoleGrantsResponse is the response body for role grant endpoints.
type RoleGrantsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// SetRoleGrantsRequest is the request body for PUT /api/v1/permissions/roles/{role}.
type SetRoleGrantsRequest struct {
	Permissions []string `json:"permissions"`
}

// SetUserOverrideRequest is the request body for PUT /api/v1/permissions/users/{username}.
type SetUserOverrideRequest struct {
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

// List handles GET /api/v1/permissions.
// Returns the full permission catalog.
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.store.ListPermissions(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list permissions")
		return
	}

	WriteJSONOK(w, permissions)
}

// GetRoleGrants handles GET /api/v1/permissions/roles/{role}.
// Returns the default permission set for a role.
func (h *PermissionHandler) GetRoleGrants(w http.ResponseWriter, r *http.Request) {
	role := models.Role(chi.URLParam(r, "role"))
	if !role.IsValid() {
		NotFound(w, "Unknown role")
		return
	}

	grants, err := h.store.ListRolePermissions(r.Context(), role)
	if err != nil {
		InternalServerError(w, "Failed to list role permissions")
		return
	}

	names := make([]string, 0, len(grants))
	for _, grant := range grants {
		names = append(names, grant.Permission.Name)
	}

	WriteJSONOK(w, RoleGrantsResponse{
		Role:        string(role),
		Permissions: names,
	})
}

// SetRoleGrants handles PUT /api/v1/permissions/roles/{role}.
// Replaces the default permission set for a role. The super role has no
// grant rows; it bypasses checks entirely.
func (h *PermissionHandler) SetRoleGrants(w http.ResponseWriter, r *http.Request) {
	role := models.Role(chi.URLParam(r, "role"))
	if !role.IsValid() {
		NotFound(w, "Unknown role")
		return
	}
	if role == models.RoleSuper {
		Forbidden(w, "The super role bypasses permission grants")
		return
	}

	var req SetRoleGrantsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.store.SetRolePermissions(r.Context(), role, req.Permissions); err != nil {
		if errors.Is(err, models.ErrPermissionNotFound) {
			UnprocessableEntity(w, "Unknown permission in request")
			return
		}
		InternalServerError(w, "Failed to set role permissions")
		return
	}

	recordActivity(r, h.store, callerName(r), "permissions", "set_role_grants:"+string(role))

	WriteJSONOK(w, RoleGrantsResponse{
		Role:        string(role),
		Permissions: req.Permissions,
	})
}

// SetUserOverride handles PUT /api/v1/permissions/users/{username}.
// Sets a per-user permission override that beats the role default.
func (h *PermissionHandler) SetUserOverride(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req SetUserOverrideRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Permission == "" {
		BadRequest(w, "Permission is required")
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
	if user.Role == models.RoleSuper {
		Forbidden(w, "The superuser bypasses permission grants")
		return
	}

	if err := h.store.SetUserPermission(r.Context(), user.ID, req.Permission, req.Allowed); err != nil {
		if errors.Is(err, models.ErrPermissionNotFound) {
			UnprocessableEntity(w, "Unknown permission: "+req.Permission)
			return
		}
		InternalServerError(w, "Failed to set user permission")
		return
	}

	recordActivity(r, h.store, callerName(r), "permissions", "set_user_override:"+username)

	WriteNoContent(w)
}
