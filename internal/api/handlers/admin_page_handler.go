package handlers

import (
	"net/http"

	"zettanote/internal/engine/pages"
	"zettanote/internal/platform/audit"
)

// AdminPageHandler serves page moderation for admins.
type AdminPageHandler struct {
	pages *pages.Service
	audit auditRecorder
}

func NewAdminPageHandler(pageSvc *pages.Service, auditLog *audit.Logger) *AdminPageHandler {
	return &AdminPageHandler{pages: pageSvc, audit: auditRecorder{log: auditLog}}
}

func (h *AdminPageHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)

	summaries, total, err := h.pages.AdminList(r.Context(), p.Limit, p.Offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p.Total = total
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pages":      summaries,
		"pagination": p,
	})
}

func (h *AdminPageHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.AdminGet(r.Context(), pathParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminPageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.pages.AdminDelete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	h.audit.record(r, audit.ActionPageDeleted, map[string]interface{}{"page_id": id})
	respondMessage(w, http.StatusOK, "Page deleted")
}
