package handlers

import (
	"net/http"

	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/accounts"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
)

type AuthHandler struct {
	accounts *accounts.Service
	tokenSvc *auth.TokenService
	cookie   cookieJar
}

func NewAuthHandler(accountSvc *accounts.Service, tokenSvc *auth.TokenService, cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		accounts: accountSvc,
		tokenSvc: tokenSvc,
		cookie:   cookieJar{name: cfg.UserCookie, secure: cfg.SecureCookies},
	}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, session *accounts.Session, status int) {
	h.cookie.set(w, session.Token, h.tokenSvc.TTL(auth.TokenUser))
	respondJSON(w, status, session)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.accounts.Signup(r.Context(), accounts.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.startSession(w, session, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.startSession(w, session, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.clear(w)
	respondMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, middleware.CurrentUser(r))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), middleware.CurrentUser(r), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password updated")
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), middleware.CurrentUser(r), req.Password); err != nil {
		respondError(w, r, err)
		return
	}
	h.cookie.clear(w)
	respondMessage(w, http.StatusOK, "Account deleted")
}
