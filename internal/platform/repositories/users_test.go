package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"zettanote/internal/platform/database/dbtest"
	"zettanote/internal/platform/models"
)

func newUser(id, email string) *models.User {
	now := time.Now().Unix()
	return &models.User{
		ID:           id,
		Email:        email,
		Name:         id,
		PasswordHash: "hash",
		AuthProvider: models.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("u1", "alice@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected case-insensitive lookup to find u1, got %+v", got)
	}

	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing user, got %v %v", missing, err)
	}

	err = repo.Create(ctx, newUser("u2", "Alice@Example.com"))
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserRepository_ExternalProviderHasNoPassword(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := newUser("g1", "gina@example.com")
	u.PasswordHash = ""
	u.AuthProvider = models.ProviderGoogle
	u.ProviderID = "google-123"
	if err := repo.Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if got.HasPassword() || got.ProviderID != "google-123" {
		t.Errorf("unexpected user %+v", got)
	}
}

func TestUserRepository_ListAndBan(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	for _, u := range []*models.User{newUser("u1", "alice@example.com"), newUser("u2", "bob@example.com"), newUser("u3", "carol@test.io")} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	users, total, err := repo.List(ctx, 10, 0, "example")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("expected 2 matches, got total=%d len=%d", total, len(users))
	}

	users, total, err = repo.List(ctx, 1, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(users) != 1 {
		t.Errorf("expected one of three, got total=%d len=%d", total, len(users))
	}

	ok, err := repo.SetBanned(ctx, "u2", true)
	if err != nil || !ok {
		t.Fatalf("ban: %v %v", ok, err)
	}
	got, _ := repo.GetByID(ctx, "u2")
	if !got.Banned {
		t.Error("expected u2 banned")
	}

	ok, err = repo.SetBanned(ctx, "ghost", true)
	if err != nil || ok {
		t.Errorf("expected no row for ghost, got %v %v", ok, err)
	}
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	for _, u := range []*models.User{newUser("owner", "owner@example.com"), newUser("friend", "friend@example.com")} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now().Unix()
	mustExec(t, db, `INSERT INTO pages (id, name, body, owner_id, created_at, updated_at) VALUES ('p1', 'Mine', '', 'owner', ?, ?)`, now, now)
	mustExec(t, db, `INSERT INTO pages (id, name, body, owner_id, created_at, updated_at) VALUES ('p2', 'Theirs', '', 'friend', ?, ?)`, now, now)
	mustExec(t, db, `INSERT INTO page_collaborators (page_id, user_id, can_write, created_at) VALUES ('p1', 'friend', 0, ?)`, now)
	mustExec(t, db, `INSERT INTO page_collaborators (page_id, user_id, can_write, created_at) VALUES ('p2', 'owner', 0, ?)`, now)

	ok, err := repo.Delete(ctx, "owner")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}

	var pages, collaborators int
	db.QueryRow(`SELECT COUNT(1) FROM pages`).Scan(&pages)
	db.QueryRow(`SELECT COUNT(1) FROM page_collaborators`).Scan(&collaborators)
	if pages != 1 {
		t.Errorf("expected only friend's page to remain, got %d pages", pages)
	}
	if collaborators != 0 {
		t.Errorf("expected no collaborator rows, got %d", collaborators)
	}

	ok, err = repo.Delete(ctx, "owner")
	if err != nil || ok {
		t.Errorf("expected second delete to report missing, got %v %v", ok, err)
	}
}

func TestUserRepository_DeleteRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM page_collaborators WHERE user_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM page_collaborators WHERE page_id IN").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	repo := NewUserRepository(db)
	if _, err := repo.Delete(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
