package handlers

import (
	"net/http"

	"zettanote/internal/platform/config"
)

// SystemHandler exposes the running configuration to admins holding
// system_config. Secrets and file paths are left out.
type SystemHandler struct {
	cfg *config.Config
}

func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

type SystemSettings struct {
	Environment       string   `json:"environment"`
	CollaboratorWrite string   `json:"collaborator_write"`
	PublicBaseURL     string   `json:"public_base_url"`
	MaxBodyBytes      int      `json:"max_body_bytes"`
	MaxLoginAttempts  int      `json:"max_login_attempts"`
	LockDuration      string   `json:"lock_duration"`
	UserTokenTTL      string   `json:"user_token_ttl"`
	AdminTokenTTL     string   `json:"admin_token_ttl"`
	RateLimitBackend  string   `json:"rate_limit_backend"`
	AllowedOrigins    []string `json:"allowed_origins"`
	TrustProxy        bool     `json:"trust_proxy"`
	AuditRetention    string   `json:"audit_retention"`
}

func (h *SystemHandler) Settings(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg
	respondJSON(w, http.StatusOK, SystemSettings{
		Environment:       cfg.Environment,
		CollaboratorWrite: cfg.Pages.CollaboratorWrite,
		PublicBaseURL:     cfg.Pages.PublicBaseURL,
		MaxBodyBytes:      cfg.Pages.MaxBodyBytes,
		MaxLoginAttempts:  cfg.Security.MaxLoginAttempts,
		LockDuration:      cfg.Security.LockDuration.String(),
		UserTokenTTL:      cfg.JWT.UserTokenTTL.String(),
		AdminTokenTTL:     cfg.JWT.AdminTokenTTL.String(),
		RateLimitBackend:  cfg.RateLimit.Backend,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		TrustProxy:        cfg.Server.TrustProxy,
		AuditRetention:    cfg.Workers.AuditRetention.String(),
	})
}
