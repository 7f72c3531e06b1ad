package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zettanote/internal/platform/database/dbtest"
)

func exec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func TestService_Report(t *testing.T) {
	db := dbtest.New(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) int64 { return now.AddDate(0, 0, -offset).Unix() }

	exec(t, db, `INSERT INTO users (id, email, name, banned, created_at, updated_at) VALUES
		('u1', 'a@example.com', 'A', 0, ?, ?),
		('u2', 'b@example.com', 'B', 1, ?, ?),
		('u3', 'c@example.com', 'C', 0, ?, ?),
		('u4', 'd@example.com', 'D', 0, ?, ?)`,
		day(0), day(0), day(0), day(0), day(2), day(2), day(40), day(40))
	exec(t, db, `INSERT INTO pages (id, name, owner_id, public_share_id, created_at, updated_at) VALUES
		('p1', 'One', 'u1', 'tok', 1, 1),
		('p2', 'Two', 'u1', NULL, 1, 1)`)
	exec(t, db, `INSERT INTO page_collaborators (page_id, user_id, can_write, created_at) VALUES ('p1', 'u3', 1, 1)`)

	svc := NewService(NewRepository(db))
	svc.now = func() time.Time { return now }

	report, err := svc.Report(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, Overview{Users: 4, BannedUsers: 1, Pages: 2, PublicPages: 1, CollaboratorLinks: 1}, *report.Overview)
	assert.Equal(t, 7, report.Days)
	assert.Equal(t, []DailySignups{
		{Date: "2026-03-08", Signups: 1},
		{Date: "2026-03-10", Signups: 2},
	}, report.Signups)
}

func TestClampDays(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultDays},
		{-3, DefaultDays},
		{1, 1},
		{MaxDays, MaxDays},
		{MaxDays + 1, DefaultDays},
	}
	for _, tt := range tests {
		if got := clampDays(tt.in); got != tt.want {
			t.Errorf("clampDays(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestService_OverviewStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)

	_, err = NewService(NewRepository(db)).Overview(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
