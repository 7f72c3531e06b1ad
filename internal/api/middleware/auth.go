package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "zettanote/internal/api/context"
	"zettanote/internal/engine/accounts"
	"zettanote/internal/pkg/errors"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/models"
)

type AuthMiddleware struct {
	tokenSvc   *auth.TokenService
	accounts   *accounts.Service
	cookieName string
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, accountSvc *accounts.Service, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, accounts: accountSvc, cookieName: cookieName}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, m.cookieName)
		if token == "" {
			errors.WriteError(w, http.StatusUnauthorized, string(errors.KindUnauthenticated), "Authentication required", nil)
			return
		}

		claims, err := m.tokenSvc.Validate(token, auth.TokenUser)
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, string(errors.KindUnauthenticated), "Invalid or expired token", nil)
			return
		}

		user, err := m.accounts.Current(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		ctx = context.WithValue(ctx, apiContext.User, user)
		next(w, r.WithContext(ctx))
	}
}

// extractToken reads the session cookie, falling back to a bearer
// Authorization header.
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUser returns the user loaded by AuthMiddleware, or nil.
func CurrentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(apiContext.User).(*models.User)
	return u
}
