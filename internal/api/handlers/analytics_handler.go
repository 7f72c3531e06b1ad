package handlers

import (
	"net/http"
	"strconv"

	"zettanote/internal/engine/analytics"
)

type AnalyticsHandler struct {
	analytics *analytics.Service
}

func NewAnalyticsHandler(analyticsSvc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analyticsSvc}
}

// GetOverview reports totals plus daily signups for the last ?days
// (default 30).
func (h *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	report, err := h.analytics.Report(r.Context(), days)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
