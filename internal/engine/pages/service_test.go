package pages

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "zettanote/internal/pkg/errors"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/database/dbtest"
	"zettanote/internal/platform/models"
	"zettanote/internal/platform/repositories"
)

type fixture struct {
	svc   *Service
	users *repositories.UserRepository
	ids   map[string]string
}

func newFixture(t *testing.T, policy WritePolicy, emails ...string) *fixture {
	t.Helper()
	db := dbtest.New(t)
	users := repositories.NewUserRepository(db)

	f := &fixture{
		svc: NewService(NewRepository(db), users, config.PagesConfig{
			CollaboratorWrite: string(policy),
			PublicBaseURL:     "https://zettanote.example/public/",
			MaxBodyBytes:      1 << 20,
		}),
		users: users,
		ids:   make(map[string]string),
	}

	now := time.Now().Unix()
	for _, email := range emails {
		name := strings.Split(email, "@")[0]
		u := &models.User{
			ID:           "user-" + name,
			Email:        email,
			Name:         name,
			PasswordHash: "x",
			AuthProvider: models.ProviderLocal,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		require.NoError(t, users.Create(context.Background(), u))
		f.ids[name] = u.ID
	}
	return f
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}

func TestService_ShareUnshareRoundTrip(t *testing.T) {
	f := newFixture(t, WriteExplicit, "a@example.com", "b@example.com")
	ctx := context.Background()
	a, b := f.ids["a"], f.ids["b"]

	page, err := f.svc.Create(ctx, a, "Notes")
	require.NoError(t, err)
	assert.Equal(t, "", page.Body)
	assert.Equal(t, a, page.OwnerID)

	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", true)
	require.NoError(t, err)

	saved, err := f.svc.Save(ctx, b, page.ID, "hello from b")
	require.NoError(t, err)
	assert.Equal(t, "hello from b", saved.Body)

	shared, err := f.svc.ListShared(ctx, b)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, page.ID, shared[0].ID)

	_, err = f.svc.Unshare(ctx, a, page.ID, "b@example.com")
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, b, page.ID, "sneaky edit")
	requireKind(t, err, apperrors.KindForbidden)

	shared, err = f.svc.ListShared(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, shared)

	got, err := f.svc.Get(ctx, a, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello from b", got.Body)
	assert.Empty(t, got.Collaborators)
}

func TestService_PublicLinkLifecycle(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com")
	ctx := context.Background()
	a := f.ids["a"]

	page, err := f.svc.Create(ctx, a, "Recipe")
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, a, page.ID, "flour, eggs")
	require.NoError(t, err)

	token, err := f.svc.Publicize(ctx, a, page.ID)
	require.NoError(t, err)
	assert.True(t, IsShareToken(token))

	for i := 0; i < 2; i++ {
		view, err := f.svc.ResolvePublic(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, &PublicView{Name: "Recipe", Body: "flour, eggs"}, view)
	}

	again, err := f.svc.Publicize(ctx, a, page.ID)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	png, err := f.svc.PublicQRCode(ctx, a, page.ID, 256)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	require.NoError(t, f.svc.Unpublish(ctx, a, page.ID))
	_, err = f.svc.ResolvePublic(ctx, token)
	requireKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.PublicQRCode(ctx, a, page.ID, 256)
	requireKind(t, err, apperrors.KindNotFound)

	fresh, err := f.svc.Publicize(ctx, a, page.ID)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
}

func TestService_ConcurrentPublicizeReturnsOneToken(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com")
	ctx := context.Background()
	a := f.ids["a"]

	page, err := f.svc.Create(ctx, a, "Race")
	require.NoError(t, err)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	errs := make([]error, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = f.svc.Publicize(ctx, a, page.ID)
		}(i)
	}
	wg.Wait()

	for i := range tokens {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}
}

func TestService_ShareErrorOrder(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "b@example.com", "c@example.com")
	ctx := context.Background()
	a, b := f.ids["a"], f.ids["b"]

	page, err := f.svc.Create(ctx, a, "Plans")
	require.NoError(t, err)

	tests := []struct {
		name   string
		actor  string
		pageID string
		email  string
		want   error
	}{
		{"unknown user wins over unknown page", a, "missing", "ghost@example.com", ErrUserNotFound},
		{"unknown page", a, "missing", "b@example.com", ErrPageNotFound},
		{"not owner", b, page.ID, "c@example.com", ErrNotOwner},
		{"self share", a, page.ID, "A@Example.com", ErrSelfShare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Share(ctx, tt.actor, tt.pageID, tt.email, false)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}

	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", false)
	require.NoError(t, err)
	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", true)
	assert.ErrorIs(t, err, ErrAlreadyShared)

	// a collaborator still cannot share onward
	_, err = f.svc.Share(ctx, b, page.ID, "c@example.com", false)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestService_UnshareNotShared(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "b@example.com")
	ctx := context.Background()

	page, err := f.svc.Create(ctx, f.ids["a"], "Solo")
	require.NoError(t, err)

	_, err = f.svc.Unshare(ctx, f.ids["a"], page.ID, "b@example.com")
	requireKind(t, err, apperrors.KindNotShared)

	_, err = f.svc.Unshare(ctx, f.ids["a"], page.ID, "a@example.com")
	requireKind(t, err, apperrors.KindNotShared)
}

func TestService_OwnerNeverCollaborator(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "b@example.com")
	ctx := context.Background()
	a := f.ids["a"]

	page, err := f.svc.Create(ctx, a, "Mine")
	require.NoError(t, err)
	_, _ = f.svc.Share(ctx, a, page.ID, "a@example.com", true)
	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", true)
	require.NoError(t, err)
	_, _ = f.svc.Unshare(ctx, a, page.ID, "a@example.com")

	got, err := f.svc.Get(ctx, a, page.ID)
	require.NoError(t, err)
	for _, c := range got.Collaborators {
		assert.NotEqual(t, got.OwnerID, c.UserID)
	}

	inserted, err := f.svc.repo.AddCollaborator(ctx, page.ID, a, true)
	require.NoError(t, err)
	assert.False(t, inserted, "repository must refuse the owner as collaborator")
}

func TestService_WritePolicy(t *testing.T) {
	for _, tt := range []struct {
		policy        WritePolicy
		readerCanSave bool
	}{
		{WriteImplicit, true},
		{WriteExplicit, false},
	} {
		t.Run(string(tt.policy), func(t *testing.T) {
			f := newFixture(t, tt.policy, "a@example.com", "r@example.com")
			ctx := context.Background()

			page, err := f.svc.Create(ctx, f.ids["a"], "Doc")
			require.NoError(t, err)
			_, err = f.svc.Share(ctx, f.ids["a"], page.ID, "r@example.com", false)
			require.NoError(t, err)

			_, err = f.svc.Save(ctx, f.ids["r"], page.ID, "edit")
			if tt.readerCanSave {
				assert.NoError(t, err)
			} else {
				requireKind(t, err, apperrors.KindForbidden)
			}

			shared, err := f.svc.ListShared(ctx, f.ids["r"])
			require.NoError(t, err)
			require.Len(t, shared, 1)
			assert.Equal(t, tt.readerCanSave, shared[0].CanWrite)
		})
	}
}

func TestRepository_SaveBodyRechecksAccess(t *testing.T) {
	tests := []struct {
		name   string
		policy WritePolicy
		grant  bool
	}{
		{"implicit", WriteImplicit, false},
		{"explicit with grant", WriteExplicit, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.policy, "a@example.com", "b@example.com")
			ctx := context.Background()
			a, b := f.ids["a"], f.ids["b"]

			page, err := f.svc.Create(ctx, a, "Notes")
			require.NoError(t, err)
			_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", tt.grant)
			require.NoError(t, err)

			saved, err := f.svc.repo.SaveBody(ctx, page.ID, b, "while shared", tt.policy == WriteExplicit)
			require.NoError(t, err)
			assert.True(t, saved)

			// b passed the access check on an earlier read, then lost access
			// before the write reached the store.
			_, err = f.svc.Unshare(ctx, a, page.ID, "b@example.com")
			require.NoError(t, err)

			saved, err = f.svc.repo.SaveBody(ctx, page.ID, b, "after unshare", tt.policy == WriteExplicit)
			require.NoError(t, err)
			assert.False(t, saved)

			got, err := f.svc.Get(ctx, a, page.ID)
			require.NoError(t, err)
			assert.Equal(t, "while shared", got.Body)
		})
	}
}

func TestRepository_SaveBodyExplicitNeedsGrant(t *testing.T) {
	f := newFixture(t, WriteExplicit, "a@example.com", "b@example.com", "x@example.com")
	ctx := context.Background()
	a, b := f.ids["a"], f.ids["b"]

	page, err := f.svc.Create(ctx, a, "Notes")
	require.NoError(t, err)
	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", false)
	require.NoError(t, err)

	saved, err := f.svc.repo.SaveBody(ctx, page.ID, b, "read only", true)
	require.NoError(t, err)
	assert.False(t, saved)

	saved, err = f.svc.repo.SaveBody(ctx, page.ID, f.ids["x"], "stranger", false)
	require.NoError(t, err)
	assert.False(t, saved)

	saved, err = f.svc.repo.SaveBody(ctx, page.ID, a, "owner", true)
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestService_OwnerOnlyOperations(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "b@example.com")
	ctx := context.Background()
	a, b := f.ids["a"], f.ids["b"]

	page, err := f.svc.Create(ctx, a, "Owned")
	require.NoError(t, err)
	_, err = f.svc.Share(ctx, a, page.ID, "b@example.com", true)
	require.NoError(t, err)

	_, err = f.svc.Rename(ctx, b, page.ID, "Hijacked")
	requireKind(t, err, apperrors.KindForbidden)
	requireKind(t, f.svc.Delete(ctx, b, page.ID), apperrors.KindForbidden)
	_, err = f.svc.Publicize(ctx, b, page.ID)
	requireKind(t, err, apperrors.KindForbidden)
	requireKind(t, f.svc.Unpublish(ctx, b, page.ID), apperrors.KindForbidden)

	renamed, err := f.svc.Rename(ctx, a, page.ID, "  Renamed  ")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	require.NoError(t, f.svc.Delete(ctx, a, page.ID))
	_, err = f.svc.Get(ctx, a, page.ID)
	requireKind(t, err, apperrors.KindNotFound)

	owned, err := f.svc.ListOwned(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, owned)
	shared, err := f.svc.ListShared(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestService_GetAccess(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "x@example.com")
	ctx := context.Background()

	page, err := f.svc.Create(ctx, f.ids["a"], "Private")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.ids["x"], page.ID)
	requireKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Get(ctx, f.ids["a"], "does-not-exist")
	requireKind(t, err, apperrors.KindNotFound)
}

func TestService_Validation(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com")
	ctx := context.Background()
	f.svc.maxBodyBytes = 16

	_, err := f.svc.Create(ctx, f.ids["a"], "   ")
	requireKind(t, err, apperrors.KindValidation)

	page, err := f.svc.Create(ctx, f.ids["a"], "Small")
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, f.ids["a"], page.ID, strings.Repeat("x", 17))
	requireKind(t, err, apperrors.KindValidation)
}

func TestService_ResolvePublicUnknownToken(t *testing.T) {
	f := newFixture(t, WriteImplicit)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-token", "0b5f7c1e-8e1a-4f0a-9d0e-6f3c2b1a0d9e"} {
		_, err := f.svc.ResolvePublic(ctx, token)
		requireKind(t, err, apperrors.KindNotFound)
	}
}

func TestService_AdminListAndDelete(t *testing.T) {
	f := newFixture(t, WriteImplicit, "a@example.com", "b@example.com")
	ctx := context.Background()

	for i, owner := range []string{f.ids["a"], f.ids["b"], f.ids["a"]} {
		_, err := f.svc.Create(ctx, owner, "Page "+string(rune('A'+i)))
		require.NoError(t, err)
	}

	list, total, err := f.svc.AdminList(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 2)

	require.NoError(t, f.svc.AdminDelete(ctx, list[0].ID))
	requireKind(t, f.svc.AdminDelete(ctx, list[0].ID), apperrors.KindNotFound)
}

func TestService_StoreFailureIsInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, body, owner_id").WillReturnError(errors.New("database is locked"))

	svc := NewService(NewRepository(db), nil, config.PagesConfig{CollaboratorWrite: "implicit"})
	_, err = svc.Get(context.Background(), "a", "p1")
	requireKind(t, err, apperrors.KindInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}
