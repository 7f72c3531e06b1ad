package handlers

import (
	"fmt"
	"net/http"

	"zettanote/internal/engine/analytics"
)

// MetricsHandler exports service gauges in the Prometheus text format.
type MetricsHandler struct {
	analytics *analytics.Service
}

func NewMetricsHandler(analyticsSvc *analytics.Service) *MetricsHandler {
	return &MetricsHandler{analytics: analyticsSvc}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	o, err := h.analytics.Overview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	gauges := []struct {
		name, help string
		value      int
	}{
		{"zettanote_up", "Whether the server is up", 1},
		{"zettanote_users", "Registered users", o.Users},
		{"zettanote_users_banned", "Banned users", o.BannedUsers},
		{"zettanote_pages", "Stored pages", o.Pages},
		{"zettanote_pages_public", "Pages with a public link", o.PublicPages},
		{"zettanote_collaborators", "Page collaborator grants", o.CollaboratorLinks},
		{"zettanote_admins", "Admin accounts", o.Admins},
	}
	for _, g := range gauges {
		fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", g.name)
		fmt.Fprintf(w, "%s %d\n", g.name, g.value)
	}
}
