package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/segmentio/ksuid"
	"zettanote/internal/pkg/parser"
)

const (
	ActionLoginSuccess         = "login_success"
	ActionLoginFailed          = "login_failed"
	ActionLoginBlockedLocked   = "login_blocked_locked"
	ActionLoginBlockedIP       = "login_blocked_ip"
	ActionAccountLocked        = "account_locked"
	ActionAccountUnlocked      = "account_unlocked"
	ActionFirstPasswordChanged = "first_password_changed"
	ActionPasswordChanged      = "password_changed"
	ActionLogout               = "logout"
	ActionPermissionDenied     = "permission_denied"
	ActionAdminBootstrapped    = "admin_bootstrapped"
	ActionAdminCreated         = "admin_created"
	ActionAdminUpdated         = "admin_updated"
	ActionAdminDeleted         = "admin_deleted"
	ActionUserBanned           = "user_banned"
	ActionUserUnbanned         = "user_unbanned"
	ActionUserUpdated          = "user_updated"
	ActionUserDeleted          = "user_deleted"
	ActionPageDeleted          = "page_deleted"
)

type Entry struct {
	ID        string                 `json:"id"`
	AdminID   string                 `json:"admin_id"`
	Action    string                 `json:"action"`
	IP        string                 `json:"ip"`
	UserAgent string                 `json:"user_agent"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt int64                  `json:"created_at"`
}

// Source identifies the client an audited action came from.
type Source struct {
	IP        string
	UserAgent string
}

type Logger struct {
	db  *sql.DB
	now func() time.Time
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db, now: time.Now}
}

// Record appends an entry. It is synchronous so that callers can rely on
// the entry being stored before they respond.
func (l *Logger) Record(ctx context.Context, adminID, action string, src Source, metadata map[string]interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if src.UserAgent != "" {
		client := parser.ParseUserAgent(src.UserAgent)
		metadata["os"] = client.OS
		metadata["browser"] = client.Browser
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	now := l.now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO admin_audit_log (id, admin_id, action, ip, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.String(), adminID, action, src.IP, src.UserAgent, string(metaJSON), now.Unix())
	return err
}

// List returns the most recent entries first. An empty adminID lists
// entries for every admin.
func (l *Logger) List(ctx context.Context, adminID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, admin_id, action, ip, user_agent, metadata, created_at FROM admin_audit_log`
	var args []interface{}
	if adminID != "" {
		query += ` WHERE admin_id = ?`
		args = append(args, adminID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var e Entry
		var metaRaw string
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.IP, &e.UserAgent, &metaRaw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if metaRaw != "" {
			json.Unmarshal([]byte(metaRaw), &e.Metadata)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (l *Logger) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM admin_audit_log WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
