package handlers

import (
	"net/http"

	"github.com/psm-app/psm/pkg/store"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store   *store.Store
	version string
}

// NewHealthHandler creates a new HealthHandler. The store may be nil, in
// which case readiness only reports process liveness.
func NewHealthHandler(s *store.Store, version string) *HealthHandler {
	return &HealthHandler{store: s, version: version}
}

// Liveness handles GET /health.
// Reports that the process is up. Never checks dependencies, so a broken
// database does not make the orchestrator restart the process.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthyResponse(map[string]string{
		"service": "psm",
		"version": h.version,
	}))
}

// Readiness handles GET /health/ready.
// Reports ready only when the database answers a ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not configured"))
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("database unreachable: "+err.Error()))
		return
	}

	WriteJSONOK(w, healthyResponse(map[string]string{
		"database": "ok",
	}))
}
