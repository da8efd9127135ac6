package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// recordActivity writes an audit log entry. Failures are logged, never
// surfaced to the client.
func recordActivity(r *http.Request, s *store.Store, username, module, action string) {
	entry := &models.ActivityLog{
		Username:      username,
		Module:        module,
		ActionType:    action,
		Endpoint:      r.URL.Path,
		RequestMethod: r.Method,
		IPAddress:     r.RemoteAddr,
	}
	if err := s.RecordActivity(r.Context(), entry); err != nil {
		logger.WarnCtx(r.Context(), "failed to record activity", "module", module, "action", action, "error", err)
	}
}
