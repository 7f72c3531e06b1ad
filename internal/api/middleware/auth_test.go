package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"zettanote/internal/engine/accounts"
	"zettanote/internal/engine/admins"
	"zettanote/internal/platform/audit"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/database/dbtest"
	"zettanote/internal/platform/repositories"
)

func newTokens() *auth.TokenService {
	return auth.NewTokenService(config.JWTConfig{
		Secret:            "test-secret",
		UserTokenTTL:      time.Hour,
		AdminTokenTTL:     time.Hour,
		PasswordChangeTTL: 15 * time.Minute,
	})
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	db := dbtest.New(t)
	tokens := newTokens()
	accountSvc := accounts.NewService(repositories.NewUserRepository(db), auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	m := NewAuthMiddleware(tokens, accountSvc, "token")

	session, err := accountSvc.Signup(context.Background(), accounts.SignupInput{
		Email: "alice@example.com", Name: "Alice", Password: "Correct-Horse-42!",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	var seen string
	handler := m.Handle(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r).ID
		w.WriteHeader(http.StatusOK)
	})

	adminToken, _ := tokens.IssueAdminToken(session.User.ID, "alice@example.com", admins.RoleAdmin)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: session.Token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+session.Token) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"admin token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if tt.status == http.StatusOK && seen != session.User.ID {
				t.Errorf("user = %q, want %q", seen, session.User.ID)
			}
		})
	}

	t.Run("banned", func(t *testing.T) {
		if err := accountSvc.SetBanned(context.Background(), session.User.ID, true); err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: session.Token})
		rr := httptest.NewRecorder()
		handler(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})
}

func TestAdminMiddleware(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	tokens := newTokens()
	auditLog := audit.NewLogger(db)
	adminSvc := admins.NewService(repositories.NewAdminRepository(db), auth.NewPasswordHasher(bcrypt.MinCost), tokens, auditLog,
		config.SecurityConfig{MaxLoginAttempts: 5, LockDuration: time.Hour})
	m := NewAdminMiddleware(tokens, adminSvc, "admin_token")

	root, _, err := adminSvc.Bootstrap(ctx, "root@example.com", "Root")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	mod, _, err := adminSvc.CreateAdmin(ctx, root, admins.CreateAdminInput{
		Email: "mod@example.com", Name: "Mod", Role: admins.RoleModerator,
	}, audit.Source{})
	if err != nil {
		t.Fatalf("create moderator: %v", err)
	}

	rootToken, _ := tokens.IssueAdminToken(root.ID, root.Email, root.Role)
	modToken, _ := tokens.IssueAdminToken(mod.ID, mod.Email, mod.Role)
	changeToken, _ := tokens.IssuePasswordChangeToken(mod.ID, mod.Email)

	handler := m.Handle(m.RequirePermission(admins.PermManageAdmins)(okHandler))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"password change token", changeToken, http.StatusUnauthorized},
		{"missing permission", modToken, http.StatusForbidden},
		{"super admin", rootToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/admins", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "admin_token", Value: tt.token})
			}
			rr := httptest.NewRecorder()
			handler(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}

	entries, err := auditLog.List(ctx, mod.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Action != audit.ActionPermissionDenied {
		t.Fatalf("audit entries = %+v, want one permission_denied", entries)
	}
	if entries[0].Metadata["permission"] != admins.PermManageAdmins {
		t.Errorf("metadata = %v", entries[0].Metadata)
	}
}
