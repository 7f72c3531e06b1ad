package handlers

import (
	"net/http"

	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/admins"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
)

type AdminAuthHandler struct {
	admins   *admins.Service
	tokenSvc *auth.TokenService
	cookie   cookieJar
}

func NewAdminAuthHandler(adminSvc *admins.Service, tokenSvc *auth.TokenService, cfg config.JWTConfig) *AdminAuthHandler {
	return &AdminAuthHandler{
		admins:   adminSvc,
		tokenSvc: tokenSvc,
		cookie:   cookieJar{name: cfg.AdminCookie, secure: cfg.SecureCookies},
	}
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangeFirstPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type AdminChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type adminLoginResponse struct {
	*admins.LoginResult
	PasswordChangeToken string `json:"password_change_token,omitempty"`
}

// respondLogin sets the session cookie for a full login. A pending
// password change hands the short-lived token back in the body instead.
func (h *AdminAuthHandler) respondLogin(w http.ResponseWriter, res *admins.LoginResult) {
	out := adminLoginResponse{LoginResult: res}
	if res.PasswordChangeRequired {
		out.PasswordChangeToken = res.Token
	} else {
		h.cookie.set(w, res.Token, h.tokenSvc.TTL(auth.TokenAdmin))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.admins.Authenticate(r.Context(), req.Email, req.Password, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AdminAuthHandler) ChangeFirstPassword(w http.ResponseWriter, r *http.Request) {
	var req ChangeFirstPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.admins.ChangeFirstPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.admins.Logout(r.Context(), middleware.CurrentAdmin(r), middleware.Source(r)); err != nil {
		respondError(w, r, err)
		return
	}
	h.cookie.clear(w)
	respondMessage(w, http.StatusOK, "Logged out")
}

func (h *AdminAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, middleware.CurrentAdmin(r))
}

func (h *AdminAuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req AdminChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.admins.ChangePassword(r.Context(), middleware.CurrentAdmin(r), req.CurrentPassword, req.NewPassword, req.ConfirmPassword, middleware.Source(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password updated")
}
