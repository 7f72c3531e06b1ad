package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	apperrors "zettanote/internal/pkg/errors"
	"zettanote/internal/pkg/validator"
	"zettanote/internal/platform/audit"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/models"
	"zettanote/internal/platform/repositories"
)

var (
	ErrInvalidCredentials  = apperrors.New(apperrors.KindInvalidCredentials, "invalid email or password")
	ErrAccountDeactivated  = apperrors.New(apperrors.KindAccountDeactivated, "account is deactivated")
	ErrAccountLocked       = apperrors.New(apperrors.KindAccountLocked, "account is temporarily locked after too many failed attempts")
	ErrIPNotAllowed        = apperrors.New(apperrors.KindIPNotAllowed, "login from this IP address is not allowed")
	ErrUnauthenticated     = apperrors.New(apperrors.KindUnauthenticated, "authentication required")
	ErrPasswordMismatch    = apperrors.New(apperrors.KindPasswordMismatch, "passwords do not match")
	ErrWeakPassword        = apperrors.New(apperrors.KindWeakPassword, "password must be at least 8 characters and include upper and lower case letters, a digit and a symbol")
	ErrPasswordReused      = apperrors.New(apperrors.KindValidation, "new password must differ from the current one")
	ErrAdminNotFound       = apperrors.New(apperrors.KindNotFound, "admin not found")
	ErrEmailTaken          = apperrors.New(apperrors.KindConflict, "an admin with this email already exists")
	ErrAlreadyBootstrapped = apperrors.New(apperrors.KindConflict, "an admin account already exists")
	ErrPermissionDenied    = apperrors.New(apperrors.KindForbidden, "insufficient permissions")
	ErrSelfModification    = apperrors.New(apperrors.KindForbidden, "you cannot change your own role, permissions or active state")
	ErrSelfDeletion        = apperrors.New(apperrors.KindForbidden, "you cannot delete your own account")
	ErrSuperAdminProtected = apperrors.New(apperrors.KindForbidden, "super admin accounts cannot be deleted")
	ErrSuperAdminOnly      = apperrors.New(apperrors.KindForbidden, "only a super admin can do this")
)

// LoginResult is returned by a successful authentication. When
// PasswordChangeRequired is set the token is a short-lived password
// change token rather than a session token.
type LoginResult struct {
	Admin                  *models.Admin  `json:"admin"`
	Token                  string         `json:"-"`
	TokenType              auth.TokenType `json:"token_type"`
	ExpiresIn              int64          `json:"expires_in"`
	PasswordChangeRequired bool           `json:"password_change_required"`
}

type CreateAdminInput struct {
	Email       string
	Name        string
	Role        string
	Permissions []string
}

// UpdateAdminInput carries the fields to change. Nil fields are left
// untouched.
type UpdateAdminInput struct {
	Email       *string
	Name        *string
	Role        *string
	Permissions *[]string
	Active      *bool
	IPAllowlist *[]string
}

type Service struct {
	repo     *repositories.AdminRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	audit    *audit.Logger
	security config.SecurityConfig
	now      func() time.Time
}

func NewService(repo *repositories.AdminRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, auditLog *audit.Logger, security config.SecurityConfig) *Service {
	if security.MaxLoginAttempts <= 0 {
		security.MaxLoginAttempts = 5
	}
	if security.LockDuration <= 0 {
		security.LockDuration = 2 * time.Hour
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		audit:    auditLog,
		security: security,
		now:      time.Now,
	}
}

func (s *Service) record(ctx context.Context, adminID, action string, src audit.Source, metadata map[string]interface{}) error {
	if err := s.audit.Record(ctx, adminID, action, src, metadata); err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}

// Authenticate verifies admin credentials and applies the lockout and
// IP allowlist policies.
func (s *Service) Authenticate(ctx context.Context, email, password string, src audit.Source) (*LoginResult, error) {
	admin, err := s.repo.GetByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil {
		s.hasher.Equalize(password)
		log.Warn().Str("ip", src.IP).Msg("admin login for unknown email")
		return nil, ErrInvalidCredentials
	}

	if !admin.Active {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	if admin.IsLocked(now) {
		if err := s.record(ctx, admin.ID, audit.ActionLoginBlockedLocked, src, map[string]interface{}{
			"lock_until": *admin.LockUntil,
		}); err != nil {
			return nil, err
		}
		return nil, ErrAccountLocked
	}

	if admin.LockExpired(now) {
		if err := s.repo.ResetLoginState(ctx, admin.ID); err != nil {
			return nil, fmt.Errorf("reset expired lock: %w", err)
		}
		admin.FailedLoginAttempts = 0
		admin.LockUntil = nil
	}

	if !s.hasher.Verify(admin.PasswordHash, password) {
		return nil, s.recordFailure(ctx, admin, src, now)
	}

	if !IPAllowed(admin.IPAllowlist, src.IP) {
		if err := s.record(ctx, admin.ID, audit.ActionLoginBlockedIP, src, nil); err != nil {
			return nil, err
		}
		return nil, ErrIPNotAllowed
	}

	if admin.FirstLogin && admin.MustChangePassword {
		if err := s.repo.ResetLoginState(ctx, admin.ID); err != nil {
			return nil, fmt.Errorf("reset login state: %w", err)
		}
		token, err := s.tokens.IssuePasswordChangeToken(admin.ID, admin.Email)
		if err != nil {
			return nil, fmt.Errorf("issue password change token: %w", err)
		}
		if err := s.record(ctx, admin.ID, audit.ActionLoginSuccess, src, map[string]interface{}{
			"password_change_required": true,
		}); err != nil {
			return nil, err
		}
		admin.FailedLoginAttempts = 0
		return &LoginResult{
			Admin:                  admin,
			Token:                  token,
			TokenType:              auth.TokenPasswordChange,
			ExpiresIn:              int64(s.tokens.TTL(auth.TokenPasswordChange).Seconds()),
			PasswordChangeRequired: true,
		}, nil
	}

	return s.completeLogin(ctx, admin, src, audit.ActionLoginSuccess)
}

func (s *Service) recordFailure(ctx context.Context, admin *models.Admin, src audit.Source, now time.Time) error {
	lockUntil := now.Add(s.security.LockDuration).Unix()
	attempts, lock, err := s.repo.RecordFailedLogin(ctx, admin.ID, s.security.MaxLoginAttempts, lockUntil)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}

	if err := s.record(ctx, admin.ID, audit.ActionLoginFailed, src, map[string]interface{}{
		"attempts": attempts,
	}); err != nil {
		return err
	}

	if lock != nil {
		log.Warn().Str("admin_id", admin.ID).Int("attempts", attempts).Msg("admin account locked")
		if err := s.record(ctx, admin.ID, audit.ActionAccountLocked, src, map[string]interface{}{
			"lock_until": *lock,
		}); err != nil {
			return err
		}
	}
	return ErrInvalidCredentials
}

func (s *Service) completeLogin(ctx context.Context, admin *models.Admin, src audit.Source, action string) (*LoginResult, error) {
	now := s.now().Unix()
	if err := s.repo.RecordSuccessfulLogin(ctx, admin.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	token, err := s.tokens.IssueAdminToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}

	if err := s.record(ctx, admin.ID, action, src, nil); err != nil {
		return nil, err
	}

	admin.FailedLoginAttempts = 0
	admin.LockUntil = nil
	admin.LastLogin = &now
	return &LoginResult{
		Admin:     admin,
		Token:     token,
		TokenType: auth.TokenAdmin,
		ExpiresIn: int64(s.tokens.TTL(auth.TokenAdmin).Seconds()),
	}, nil
}

func (s *Service) checkNewPassword(newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if !validator.IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}
	return nil
}

// ChangeFirstPassword exchanges a password change token and a new
// password for a full session.
func (s *Service) ChangeFirstPassword(ctx context.Context, tempToken, newPassword, confirm string, src audit.Source) (*LoginResult, error) {
	claims, err := s.tokens.Validate(tempToken, auth.TokenPasswordChange)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	admin, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil || !(admin.FirstLogin || admin.MustChangePassword) {
		return nil, ErrUnauthenticated
	}
	if !admin.Active {
		return nil, ErrAccountDeactivated
	}

	if err := s.checkNewPassword(newPassword, confirm); err != nil {
		return nil, err
	}
	if s.hasher.Verify(admin.PasswordHash, newPassword) {
		return nil, ErrPasswordReused
	}

	if err := s.setPassword(ctx, admin, newPassword); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, admin, src, audit.ActionFirstPasswordChanged)
}

func (s *Service) ChangePassword(ctx context.Context, actor *models.Admin, current, newPassword, confirm string, src audit.Source) error {
	if !s.hasher.Verify(actor.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := s.checkNewPassword(newPassword, confirm); err != nil {
		return err
	}
	if current == newPassword {
		return ErrPasswordReused
	}

	if err := s.setPassword(ctx, actor, newPassword); err != nil {
		return err
	}
	return s.record(ctx, actor.ID, audit.ActionPasswordChanged, src, nil)
}

func (s *Service) setPassword(ctx context.Context, admin *models.Admin, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now().Unix()
	if err := s.repo.SetPassword(ctx, admin.ID, hash, now); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	admin.PasswordHash = hash
	admin.PasswordChangedAt = &now
	admin.FirstLogin = false
	admin.MustChangePassword = false
	return nil
}

// Current loads the admin behind a verified session token.
func (s *Service) Current(ctx context.Context, adminID string) (*models.Admin, error) {
	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil {
		return nil, ErrUnauthenticated
	}
	if !admin.Active {
		return nil, ErrAccountDeactivated
	}
	return admin, nil
}

func (s *Service) Logout(ctx context.Context, actor *models.Admin, src audit.Source) error {
	return s.record(ctx, actor.ID, audit.ActionLogout, src, nil)
}

// RecordDenied audits a permission check that failed for actor.
func (s *Service) RecordDenied(ctx context.Context, actor *models.Admin, permission string, src audit.Source, path string) error {
	return s.record(ctx, actor.ID, audit.ActionPermissionDenied, src, map[string]interface{}{
		"permission": permission,
		"path":       path,
	})
}

// deny audits a refused administrative action by actor and returns err.
func (s *Service) deny(ctx context.Context, actor *models.Admin, targetID string, src audit.Source, err error) error {
	metadata := map[string]interface{}{"reason": err.Error()}
	if targetID != "" {
		metadata["target_id"] = targetID
	}
	if rerr := s.record(ctx, actor.ID, audit.ActionPermissionDenied, src, metadata); rerr != nil {
		return rerr
	}
	return err
}

func validateIdentity(email, name string) (string, string, error) {
	email = validator.NormalizeEmail(email)
	if !validator.IsEmail(email) {
		return "", "", apperrors.New(apperrors.KindValidation, "a valid email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return "", "", apperrors.New(apperrors.KindValidation, "name must be between 1 and 100 characters")
	}
	return email, name, nil
}

func (s *Service) newAdmin(email, name, role string, perms models.StringList, createdBy string) (*models.Admin, string, error) {
	temp, err := GenerateTemporaryPassword()
	if err != nil {
		return nil, "", fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := s.hasher.Hash(temp)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now().Unix()
	return &models.Admin{
		ID:                 uuid.New().String(),
		Email:              email,
		Name:               name,
		PasswordHash:       hash,
		Role:               role,
		Permissions:        perms,
		Active:             true,
		IPAllowlist:        models.StringList{},
		FirstLogin:         true,
		MustChangePassword: true,
		CreatedBy:          createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, temp, nil
}

// Bootstrap creates the first super admin. It fails once any admin
// exists. The temporary password is returned once and never stored.
func (s *Service) Bootstrap(ctx context.Context, email, name string) (*models.Admin, string, error) {
	email, name, err := validateIdentity(email, name)
	if err != nil {
		return nil, "", err
	}

	admin, temp, err := s.newAdmin(email, name, RoleSuperAdmin, DefaultPermissions(RoleSuperAdmin), "")
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.CreateFirst(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminsExist) {
			return nil, "", ErrAlreadyBootstrapped
		}
		return nil, "", fmt.Errorf("create first admin: %w", err)
	}

	if err := s.record(ctx, admin.ID, audit.ActionAdminBootstrapped, audit.Source{IP: "local"}, nil); err != nil {
		return nil, "", err
	}
	return admin, temp, nil
}

func (s *Service) CreateAdmin(ctx context.Context, creator *models.Admin, in CreateAdminInput, src audit.Source) (*models.Admin, string, error) {
	if !HasPermission(creator, PermManageAdmins) {
		return nil, "", s.deny(ctx, creator, "", src, ErrPermissionDenied)
	}
	if !ValidRole(in.Role) {
		return nil, "", apperrors.New(apperrors.KindValidation, fmt.Sprintf("unknown role %q", in.Role))
	}
	if in.Role == RoleSuperAdmin && creator.Role != RoleSuperAdmin {
		return nil, "", s.deny(ctx, creator, "", src, ErrSuperAdminOnly)
	}

	email, name, err := validateIdentity(in.Email, in.Name)
	if err != nil {
		return nil, "", err
	}

	perms := DefaultPermissions(in.Role)
	if in.Permissions != nil && in.Role != RoleSuperAdmin {
		if perms, err = ValidatePermissions(in.Permissions); err != nil {
			return nil, "", err
		}
	}

	admin, temp, err := s.newAdmin(email, name, in.Role, perms, creator.ID)
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create admin: %w", err)
	}

	if err := s.record(ctx, creator.ID, audit.ActionAdminCreated, src, map[string]interface{}{
		"target_id": admin.ID,
		"email":     admin.Email,
		"role":      admin.Role,
	}); err != nil {
		return nil, "", err
	}
	return admin, temp, nil
}

func (s *Service) UpdateAdmin(ctx context.Context, actor *models.Admin, targetID string, in UpdateAdminInput, src audit.Source) (*models.Admin, error) {
	if !HasPermission(actor, PermManageAdmins) {
		return nil, s.deny(ctx, actor, targetID, src, ErrPermissionDenied)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if target == nil {
		return nil, ErrAdminNotFound
	}

	self := actor.ID == target.ID
	changed := []string{}

	if target.Role == RoleSuperAdmin && actor.Role != RoleSuperAdmin {
		return nil, s.deny(ctx, actor, target.ID, src, ErrSuperAdminOnly)
	}

	if in.Role != nil && *in.Role != target.Role {
		if self {
			return nil, s.deny(ctx, actor, target.ID, src, ErrSelfModification)
		}
		if !ValidRole(*in.Role) {
			return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("unknown role %q", *in.Role))
		}
		if *in.Role == RoleSuperAdmin && actor.Role != RoleSuperAdmin {
			return nil, s.deny(ctx, actor, target.ID, src, ErrSuperAdminOnly)
		}
		target.Role = *in.Role
		target.Permissions = DefaultPermissions(target.Role)
		changed = append(changed, "role")
	}

	if in.Permissions != nil {
		if self {
			return nil, s.deny(ctx, actor, target.ID, src, ErrSelfModification)
		}
		perms, err := ValidatePermissions(*in.Permissions)
		if err != nil {
			return nil, err
		}
		if target.Role == RoleSuperAdmin {
			perms = DefaultPermissions(RoleSuperAdmin)
		}
		target.Permissions = perms
		changed = append(changed, "permissions")
	}

	if in.Active != nil && *in.Active != target.Active {
		if self {
			return nil, s.deny(ctx, actor, target.ID, src, ErrSelfModification)
		}
		target.Active = *in.Active
		changed = append(changed, "active")
	}

	if in.Email != nil || in.Name != nil {
		email, name := target.Email, target.Name
		if in.Email != nil {
			email = *in.Email
		}
		if in.Name != nil {
			name = *in.Name
		}
		email, name, err := validateIdentity(email, name)
		if err != nil {
			return nil, err
		}
		if email != target.Email {
			changed = append(changed, "email")
		}
		if name != target.Name {
			changed = append(changed, "name")
		}
		target.Email, target.Name = email, name
	}

	if in.IPAllowlist != nil {
		list, err := ValidateAllowlist(*in.IPAllowlist)
		if err != nil {
			return nil, err
		}
		target.IPAllowlist = list
		changed = append(changed, "ip_allowlist")
	}

	if err := s.repo.Update(ctx, target); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update admin: %w", err)
	}

	if err := s.record(ctx, actor.ID, audit.ActionAdminUpdated, src, map[string]interface{}{
		"target_id": target.ID,
		"changed":   changed,
	}); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *Service) DeleteAdmin(ctx context.Context, actor *models.Admin, targetID string, src audit.Source) error {
	if !HasPermission(actor, PermManageAdmins) {
		return s.deny(ctx, actor, targetID, src, ErrPermissionDenied)
	}
	if actor.ID == targetID {
		return s.deny(ctx, actor, targetID, src, ErrSelfDeletion)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}
	if target == nil {
		return ErrAdminNotFound
	}
	if target.Role == RoleSuperAdmin {
		return s.deny(ctx, actor, target.ID, src, ErrSuperAdminProtected)
	}

	deleted, err := s.repo.Delete(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if !deleted {
		return ErrAdminNotFound
	}

	return s.record(ctx, actor.ID, audit.ActionAdminDeleted, src, map[string]interface{}{
		"target_id": target.ID,
		"email":     target.Email,
	})
}

// Unlock clears a lockout before it elapses.
func (s *Service) Unlock(ctx context.Context, actor *models.Admin, targetID string, src audit.Source) error {
	if actor.Role != RoleSuperAdmin {
		return s.deny(ctx, actor, targetID, src, ErrSuperAdminOnly)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}
	if target == nil {
		return ErrAdminNotFound
	}

	if err := s.repo.ResetLoginState(ctx, target.ID); err != nil {
		return fmt.Errorf("unlock admin: %w", err)
	}
	return s.record(ctx, target.ID, audit.ActionAccountUnlocked, src, map[string]interface{}{
		"unlocked_by": actor.ID,
	})
}

func (s *Service) List(ctx context.Context, actor *models.Admin, src audit.Source) ([]*models.Admin, error) {
	if !HasPermission(actor, PermManageAdmins) {
		return nil, s.deny(ctx, actor, "", src, ErrPermissionDenied)
	}
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, actor *models.Admin, id string, src audit.Source) (*models.Admin, error) {
	if !HasPermission(actor, PermManageAdmins) && actor.ID != id {
		return nil, s.deny(ctx, actor, id, src, ErrPermissionDenied)
	}
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

func (s *Service) AuditLog(ctx context.Context, actor *models.Admin, targetID string, limit int, src audit.Source) ([]*audit.Entry, error) {
	if !HasPermission(actor, PermManageAdmins) {
		return nil, s.deny(ctx, actor, targetID, src, ErrPermissionDenied)
	}
	return s.audit.List(ctx, targetID, limit)
}

// SweepExpiredLocks clears elapsed lockouts so the stored state matches
// what the next login attempt would see.
func (s *Service) SweepExpiredLocks(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredLocks(ctx, s.now().Unix())
}
