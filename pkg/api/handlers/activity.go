package handlers

import (
	"net/http"
	"strconv"

	"github.com/psm-app/psm/pkg/store"
)

// ActivityHandler serves the audit log.
type ActivityHandler struct {
	store *store.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(s *store.Store) *ActivityHandler {
	return &ActivityHandler{store: s}
}

// List handles GET /api/v1/activity.
// Supports filtering by username and module, plus limit/offset pagination.
// Entries come back newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ActivityFilter{
		Username: r.URL.Query().Get("username"),
		Module:   r.URL.Query().Get("module"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			BadRequest(w, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			BadRequest(w, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	entries, err := h.store.ListActivity(r.Context(), filter)
	if err != nil {
		InternalServerError(w, "Failed to list activity")
		return
	}

	WriteJSONOK(w, entries)
}
