package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

// ConfigHandler handles system configuration API endpoints.
//
// System configs are runtime key/value settings stored in the database,
// distinct from the process configuration loaded at startup.
type ConfigHandler struct {
	store *store.Store
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(s *store.Store) *ConfigHandler {
	return &ConfigHandler{store: s}
}

// SetConfigRequest is the request body for PUT /api/v1/configs/{key}.
type SetConfigRequest struct {
	Value string `json:"value"`
}

// List handles GET /api/v1/configs.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListConfigs(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list configs")
		return
	}

	WriteJSONOK(w, configs)
}

// Get handles GET /api/v1/configs/{key}.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	cfg, err := h.store.GetConfig(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrConfigNotFound) {
			NotFound(w, "Config not found")
			return
		}
		InternalServerError(w, "Failed to fetch config")
		return
	}

	WriteJSONOK(w, cfg)
}

// Set handles PUT /api/v1/configs/{key}.
// Creates the key if absent, overwrites the value if present.
func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetConfigRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.store.SetConfig(r.Context(), key, req.Value); err != nil {
		InternalServerError(w, "Failed to set config")
		return
	}

	recordActivity(r, h.store, callerName(r), "configs", "set:"+key)

	cfg, err := h.store.GetConfig(r.Context(), key)
	if err != nil {
		InternalServerError(w, "Failed to fetch config")
		return
	}

	WriteJSONOK(w, cfg)
}

// Delete handles DELETE /api/v1/configs/{key}.
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.store.DeleteConfig(r.Context(), key); err != nil {
		if errors.Is(err, models.ErrConfigNotFound) {
			NotFound(w, "Config not found")
			return
		}
		InternalServerError(w, "Failed to delete config")
		return
	}

	recordActivity(r, h.store, callerName(r), "configs", "delete:"+key)

	WriteNoContent(w)
}
