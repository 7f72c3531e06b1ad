package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "zettanote/internal/pkg/errors"
	"zettanote/internal/pkg/validator"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/models"
	"zettanote/internal/platform/repositories"
)

var (
	ErrInvalidCredentials = apperrors.New(apperrors.KindInvalidCredentials, "invalid email or password")
	ErrUserBanned         = apperrors.New(apperrors.KindUserBanned, "this account has been banned")
	ErrEmailTaken         = apperrors.New(apperrors.KindConflict, "an account with this email already exists")
	ErrUserNotFound       = apperrors.New(apperrors.KindNotFound, "user not found")
	ErrUnauthenticated    = apperrors.New(apperrors.KindUnauthenticated, "authentication required")
	ErrWeakPassword       = apperrors.New(apperrors.KindWeakPassword, "password must be at least 8 characters and include upper and lower case letters, a digit and a symbol")
	ErrNoLocalPassword    = apperrors.New(apperrors.KindValidation, "this account signs in with an external provider")
)

type SignupInput struct {
	Email    string
	Name     string
	Password string
}

type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"-"`
	ExpiresIn int64        `json:"expires_in"`
}

type Service struct {
	users  *repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	now    func() time.Time
}

func NewService(users *repositories.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

func (s *Service) issue(u *models.User) (*Session, error) {
	token, err := s.tokens.IssueUserToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue user token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresIn: int64(s.tokens.TTL(auth.TokenUser).Seconds())}, nil
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := validator.NormalizeEmail(in.Email)
	if !validator.IsEmail(email) {
		return nil, apperrors.New(apperrors.KindValidation, "a valid email is required")
	}
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	if !validator.IsStrongPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().Unix()
	u := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		AuthProvider: models.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(u)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return "", apperrors.New(apperrors.KindValidation, "name must be between 1 and 100 characters")
	}
	return name, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !u.HasPassword() {
		s.hasher.Equalize(password)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if u.Banned {
		return nil, ErrUserBanned
	}
	return s.issue(u)
}

// Current loads the user behind a verified session token.
func (s *Service) Current(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}
	if u.Banned {
		return nil, ErrUserBanned
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor *models.User, current, newPassword string) error {
	if !actor.HasPassword() {
		return ErrNoLocalPassword
	}
	if !s.hasher.Verify(actor.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if !validator.IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	actor.PasswordHash = hash
	return nil
}

// DeleteAccount removes the actor after re-verifying their password.
// Users without a local credential confirm with an empty password.
func (s *Service) DeleteAccount(ctx context.Context, actor *models.User, password string) error {
	if actor.HasPassword() && !s.hasher.Verify(actor.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return s.delete(ctx, actor.ID)
}

func (s *Service) delete(ctx context.Context, id string) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int, search string) ([]*models.User, int, error) {
	return s.users.List(ctx, limit, offset, search)
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) SetBanned(ctx context.Context, id string, banned bool) error {
	found, err := s.users.SetBanned(ctx, id, banned)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// Rename changes a user's display name on behalf of an admin.
func (s *Service) Rename(ctx context.Context, id, name string) (*models.User, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	found, err := s.users.Rename(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("rename user: %w", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return s.Get(ctx, id)
}

func (s *Service) AdminDelete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}
