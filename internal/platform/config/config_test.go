package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret
  admin_token_ttl: 4h
pages:
  collaborator_write: explicit
cors:
  allowed_origins: [https://app.example.com]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.JWT.Secret != "file-secret" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.JWT.AdminTokenTTL != 4*time.Hour {
		t.Errorf("admin ttl = %v", cfg.JWT.AdminTokenTTL)
	}
	if cfg.JWT.UserTokenTTL != 168*time.Hour {
		t.Errorf("user ttl default = %v", cfg.JWT.UserTokenTTL)
	}
	if cfg.Pages.CollaboratorWrite != "explicit" {
		t.Errorf("write policy = %q", cfg.Pages.CollaboratorWrite)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Security.MaxLoginAttempts != 5 || cfg.Security.LockDuration != 2*time.Hour {
		t.Errorf("lockout defaults = %d / %v", cfg.Security.MaxLoginAttempts, cfg.Security.LockDuration)
	}
	if cfg.Pages.MaxBodyBytes != 1<<20 {
		t.Errorf("max body = %d", cfg.Pages.MaxBodyBytes)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: file-secret\n")
	t.Setenv("ZETTANOTE_JWT_SECRET", "env-secret")
	t.Setenv("ZETTANOTE_SERVER_PORT", "8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q, want env-secret", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "server:\n  port: 5000\n"},
		{"bad write policy", "jwt:\n  secret: s\npages:\n  collaborator_write: sometimes\n"},
		{"bad backend", "jwt:\n  secret: s\nrate_limit:\n  backend: memcached\n"},
		{"zero attempts", "jwt:\n  secret: s\nsecurity:\n  max_login_attempts: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
