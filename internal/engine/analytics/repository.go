package analytics

import (
	"context"
	"database/sql"
)

type Overview struct {
	Users             int `json:"users"`
	BannedUsers       int `json:"banned_users"`
	Pages             int `json:"pages"`
	PublicPages       int `json:"public_pages"`
	CollaboratorLinks int `json:"collaborator_links"`
	Admins            int `json:"admins"`
}

type DailySignups struct {
	Date    string `json:"date"`
	Signups int    `json:"signups"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(1) FROM users),
			(SELECT COUNT(1) FROM users WHERE banned = 1),
			(SELECT COUNT(1) FROM pages),
			(SELECT COUNT(1) FROM pages WHERE public_share_id IS NOT NULL),
			(SELECT COUNT(1) FROM page_collaborators),
			(SELECT COUNT(1) FROM admins)
	`).Scan(&o.Users, &o.BannedUsers, &o.Pages, &o.PublicPages, &o.CollaboratorLinks, &o.Admins)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SignupsByDay groups user creation times (unix seconds, UTC) into
// calendar days at or after since. Days without signups are omitted.
func (r *Repository) SignupsByDay(ctx context.Context, since int64) ([]DailySignups, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date(created_at, 'unixepoch') AS day, COUNT(1)
		FROM users
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []DailySignups{}
	for rows.Next() {
		var s DailySignups
		if err := rows.Scan(&s.Date, &s.Signups); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
