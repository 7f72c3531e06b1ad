package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	apiContext "zettanote/internal/api/context"
	"zettanote/internal/engine/admins"
	"zettanote/internal/pkg/errors"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/models"
)

type AdminMiddleware struct {
	tokenSvc   *auth.TokenService
	admins     *admins.Service
	cookieName string
}

func NewAdminMiddleware(tokenSvc *auth.TokenService, adminSvc *admins.Service, cookieName string) *AdminMiddleware {
	return &AdminMiddleware{tokenSvc: tokenSvc, admins: adminSvc, cookieName: cookieName}
}

// Handle admits requests carrying a full admin session token for an
// active admin. Password change tokens are rejected.
func (m *AdminMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, m.cookieName)
		if token == "" {
			errors.WriteError(w, http.StatusUnauthorized, string(errors.KindUnauthenticated), "Admin authentication required", nil)
			return
		}

		claims, err := m.tokenSvc.Validate(token, auth.TokenAdmin)
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, string(errors.KindUnauthenticated), "Invalid or expired admin token", nil)
			return
		}

		admin, err := m.admins.Current(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		ctx = context.WithValue(ctx, apiContext.Admin, admin)
		next(w, r.WithContext(ctx))
	}
}

// RequirePermission rejects admins lacking perm. Denials are written to
// the audit log before the response.
func (m *AdminMiddleware) RequirePermission(perm string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			admin := CurrentAdmin(r)
			if admin == nil {
				errors.WriteError(w, http.StatusUnauthorized, string(errors.KindUnauthenticated), "Admin authentication required", nil)
				return
			}

			if !admins.HasPermission(admin, perm) {
				if err := m.admins.RecordDenied(r.Context(), admin, perm, Source(r), r.URL.Path); err != nil {
					zerolog.Ctx(r.Context()).Error().Err(err).Str("admin_id", admin.ID).Msg("audit permission denial")
				}
				errors.WriteError(w, http.StatusForbidden, string(errors.KindForbidden), "Insufficient permissions", map[string]string{
					"required": perm,
				})
				return
			}

			next(w, r)
		}
	}
}

// CurrentAdmin returns the admin loaded by AdminMiddleware, or nil.
func CurrentAdmin(r *http.Request) *models.Admin {
	a, _ := r.Context().Value(apiContext.Admin).(*models.Admin)
	return a
}
