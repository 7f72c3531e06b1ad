package handlers

import (
	"net/http"
	"strconv"

	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/admins"
	"zettanote/internal/platform/models"
)

type AdminHandler struct {
	admins *admins.Service
}

func NewAdminHandler(adminSvc *admins.Service) *AdminHandler {
	return &AdminHandler{admins: adminSvc}
}

type CreateAdminRequest struct {
	Email       string   `json:"email" validate:"required,email,max=254"`
	Name        string   `json:"name" validate:"required,max=100"`
	Role        string   `json:"role" validate:"required,oneof=super_admin admin moderator"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

type UpdateAdminRequest struct {
	Email       *string   `json:"email" validate:"omitempty,email,max=254"`
	Name        *string   `json:"name" validate:"omitempty,max=100"`
	Role        *string   `json:"role" validate:"omitempty,oneof=super_admin admin moderator"`
	Permissions *[]string `json:"permissions"`
	Active      *bool     `json:"active"`
	IPAllowlist *[]string `json:"ip_allowlist"`
}

type createAdminResponse struct {
	Admin             *models.Admin `json:"admin"`
	TemporaryPassword string        `json:"temporary_password"`
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.admins.List(r.Context(), middleware.CurrentAdmin(r), middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"admins": list})
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if !decode(w, r, &req) {
		return
	}

	admin, temp, err := h.admins.CreateAdmin(r.Context(), middleware.CurrentAdmin(r), admins.CreateAdminInput{
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		Permissions: req.Permissions,
	}, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, createAdminResponse{Admin: admin, TemporaryPassword: temp})
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.Get(r.Context(), middleware.CurrentAdmin(r), pathParam(r, "id"), middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAdminRequest
	if !decode(w, r, &req) {
		return
	}

	admin, err := h.admins.UpdateAdmin(r.Context(), middleware.CurrentAdmin(r), pathParam(r, "id"), admins.UpdateAdminInput{
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		Permissions: req.Permissions,
		Active:      req.Active,
		IPAllowlist: req.IPAllowlist,
	}, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.admins.DeleteAdmin(r.Context(), middleware.CurrentAdmin(r), pathParam(r, "id"), middleware.Source(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Admin deleted")
}

func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if err := h.admins.Unlock(r.Context(), middleware.CurrentAdmin(r), pathParam(r, "id"), middleware.Source(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Admin unlocked")
}

// Audit lists audit entries for the admin in the path, or for every
// admin when mounted without an id.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	targetID := pathParam(r, "id")
	if targetID == "" {
		targetID = r.URL.Query().Get("admin_id")
	}

	entries, err := h.admins.AuditLog(r.Context(), middleware.CurrentAdmin(r), targetID, limit, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
