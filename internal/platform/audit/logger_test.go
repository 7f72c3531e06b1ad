package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"zettanote/internal/platform/database/dbtest"
)

func TestLogger_RecordAndList(t *testing.T) {
	db := dbtest.New(t)
	l := NewLogger(db)
	ctx := context.Background()

	base := time.Now()
	l.now = func() time.Time { return base }
	src := Source{IP: "10.0.0.1", UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"}

	if err := l.Record(ctx, "a1", ActionLoginFailed, src, map[string]interface{}{"attempts": 1}); err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return base.Add(time.Second) }
	if err := l.Record(ctx, "a1", ActionLoginSuccess, src, nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Record(ctx, "a2", ActionLoginSuccess, Source{}, nil); err != nil {
		t.Fatal(err)
	}

	entries, err := l.List(ctx, "a1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for a1, got %d", len(entries))
	}
	if entries[0].Action != ActionLoginSuccess {
		t.Errorf("expected newest first, got %s", entries[0].Action)
	}
	if entries[1].Metadata["browser"] != "Firefox" || entries[1].Metadata["os"] != "Linux" {
		t.Errorf("expected parsed client metadata, got %v", entries[1].Metadata)
	}

	all, err := l.List(ctx, "", 0)
	if err != nil || len(all) != 3 {
		t.Errorf("expected 3 entries overall, got %d %v", len(all), err)
	}
}

func TestLogger_PurgeOlderThan(t *testing.T) {
	db := dbtest.New(t)
	l := NewLogger(db)
	ctx := context.Background()

	old := time.Now().Add(-200 * 24 * time.Hour)
	l.now = func() time.Time { return old }
	if err := l.Record(ctx, "a1", ActionLoginSuccess, Source{}, nil); err != nil {
		t.Fatal(err)
	}
	l.now = time.Now
	if err := l.Record(ctx, "a1", ActionLoginSuccess, Source{}, nil); err != nil {
		t.Fatal(err)
	}

	n, err := l.PurgeOlderThan(ctx, time.Now().Add(-180*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected one purged entry, got %d %v", n, err)
	}
}

func TestLogger_RecordReturnsStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO admin_audit_log").WillReturnError(errors.New("database is locked"))

	l := NewLogger(db)
	if err := l.Record(context.Background(), "a1", ActionPermissionDenied, Source{}, nil); err == nil {
		t.Fatal("expected error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
