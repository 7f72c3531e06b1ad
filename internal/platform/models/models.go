package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	AuthProvider string `json:"auth_provider"`
	ProviderID   string `json:"provider_id,omitempty"`
	Banned       bool   `json:"banned"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// HasPassword reports whether the user can authenticate with a local
// credential. Externally authenticated users have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

type Admin struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	Permissions         StringList `json:"permissions"`
	Active              bool       `json:"active"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LockUntil           *int64     `json:"lock_until,omitempty"`
	IPAllowlist         StringList `json:"ip_allowlist"`
	FirstLogin          bool       `json:"first_login"`
	MustChangePassword  bool       `json:"must_change_password"`
	PasswordChangedAt   *int64     `json:"password_changed_at,omitempty"`
	LastLogin           *int64     `json:"last_login,omitempty"`
	CreatedBy           string     `json:"created_by,omitempty"`
	CreatedAt           int64      `json:"created_at"`
	UpdatedAt           int64      `json:"updated_at"`
}

func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && now.Unix() < *a.LockUntil
}

// LockExpired reports whether a lock was set but has elapsed.
func (a *Admin) LockExpired(now time.Time) bool {
	return a.LockUntil != nil && now.Unix() >= *a.LockUntil
}

// StringList is stored as a JSON array column.
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(b, (*[]string)(l))
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
