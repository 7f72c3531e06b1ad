package handlers

import (
	"net/http"
	"strings"

	"zettanote/internal/engine/accounts"
	"zettanote/internal/platform/audit"
)

// UserHandler serves user management for admins.
type UserHandler struct {
	accounts *accounts.Service
	audit    auditRecorder
}

func NewUserHandler(accountSvc *accounts.Service, auditLog *audit.Logger) *UserHandler {
	return &UserHandler{accounts: accountSvc, audit: auditRecorder{log: auditLog}}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	users, total, err := h.accounts.List(r.Context(), p.Limit, p.Offset, search)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p.Total = total
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": p,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type UpdateUserRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	id := pathParam(r, "id")
	user, err := h.accounts.Rename(r.Context(), id, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.audit.record(r, audit.ActionUserUpdated, map[string]interface{}{"user_id": id, "name": user.Name})
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

func (h *UserHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *UserHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	id := pathParam(r, "id")
	if err := h.accounts.SetBanned(r.Context(), id, banned); err != nil {
		respondError(w, r, err)
		return
	}

	action, message := audit.ActionUserBanned, "User banned"
	if !banned {
		action, message = audit.ActionUserUnbanned, "User unbanned"
	}
	h.audit.record(r, action, map[string]interface{}{"user_id": id})
	respondMessage(w, http.StatusOK, message)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.accounts.AdminDelete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	h.audit.record(r, audit.ActionUserDeleted, map[string]interface{}{"user_id": id})
	respondMessage(w, http.StatusOK, "User deleted")
}
