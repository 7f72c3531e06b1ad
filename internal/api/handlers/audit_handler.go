package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
	"zettanote/internal/api/middleware"
	"zettanote/internal/platform/audit"
)

// auditRecorder writes admin actions taken through the management
// endpoints. The action has already happened, so a failed write is
// logged rather than returned.
type auditRecorder struct {
	log *audit.Logger
}

func (a auditRecorder) record(r *http.Request, action string, metadata map[string]interface{}) {
	admin := middleware.CurrentAdmin(r)
	if admin == nil {
		return
	}
	if err := a.log.Record(r.Context(), admin.ID, action, middleware.Source(r), metadata); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("admin_id", admin.ID).
			Str("action", action).
			Msg("write audit entry")
	}
}
