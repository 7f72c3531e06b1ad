package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"zettanote/internal/platform/database"
	"zettanote/internal/platform/models"
)

var (
	ErrAdminEmailTaken = errors.New("admin email already registered")
	ErrAdminsExist     = errors.New("an admin account already exists")
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, email, name, password_hash, role, permissions, active, failed_login_attempts, lock_until,
	ip_allowlist, first_login, must_change_password, password_changed_at, last_login, created_by, created_at, updated_at`

func adminArgs(a *models.Admin) []interface{} {
	return []interface{}{
		a.ID, a.Email, a.Name, a.PasswordHash, a.Role, a.Permissions, a.Active, a.FailedLoginAttempts, nullInt64(a.LockUntil),
		a.IPAllowlist, a.FirstLogin, a.MustChangePassword, nullInt64(a.PasswordChangedAt), nullInt64(a.LastLogin),
		nullString(a.CreatedBy), a.CreatedAt, a.UpdatedAt,
	}
}

func (r *AdminRepository) Create(ctx context.Context, a *models.Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, adminArgs(a)...)
	if database.IsUniqueViolation(err) {
		return ErrAdminEmailTaken
	}
	return err
}

// CreateFirst inserts a only when the admins table is empty. It returns
// ErrAdminsExist otherwise.
func (r *AdminRepository) CreateFirst(ctx context.Context, a *models.Admin) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM admins)
	`, adminArgs(a)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAdminsExist
	}
	return nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	return scanAdmin(row)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = ?`, email)
	return scanAdmin(row)
}

func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM admins`).Scan(&n)
	return n, err
}

func (r *AdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []*models.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// Update writes the profile and authorization fields of a.
func (r *AdminRepository) Update(ctx context.Context, a *models.Admin) error {
	a.UpdatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET email = ?, name = ?, role = ?, permissions = ?, active = ?, ip_allowlist = ?, updated_at = ?
		WHERE id = ?
	`, a.Email, a.Name, a.Role, a.Permissions, a.Active, a.IPAllowlist, a.UpdatedAt, a.ID)
	if database.IsUniqueViolation(err) {
		return ErrAdminEmailTaken
	}
	return err
}

func (r *AdminRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecordFailedLogin atomically increments the failure counter and sets
// lock_until once the counter reaches maxAttempts. It returns the new
// counter value and the lock, if any.
func (r *AdminRepository) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil int64) (int, *int64, error) {
	var attempts int
	var lock sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		UPDATE admins SET
			failed_login_attempts = failed_login_attempts + 1,
			lock_until = CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE lock_until END,
			updated_at = ?
		WHERE id = ?
		RETURNING failed_login_attempts, lock_until
	`, maxAttempts, lockUntil, time.Now().Unix(), id).Scan(&attempts, &lock)
	if err != nil {
		return 0, nil, err
	}
	return attempts, int64Ptr(lock), nil
}

func (r *AdminRepository) ResetLoginState(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_login_attempts = 0, lock_until = NULL, updated_at = ? WHERE id = ?
	`, time.Now().Unix(), id)
	return err
}

func (r *AdminRepository) RecordSuccessfulLogin(ctx context.Context, id string, at int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_login_attempts = 0, lock_until = NULL, last_login = ?, updated_at = ? WHERE id = ?
	`, at, at, id)
	return err
}

// SetPassword stores a new hash and clears the first-login flags.
func (r *AdminRepository) SetPassword(ctx context.Context, id, hash string, at int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET password_hash = ?, password_changed_at = ?, first_login = 0, must_change_password = 0, updated_at = ?
		WHERE id = ?
	`, hash, at, at, id)
	return err
}

// ClearExpiredLocks resets the counter of every admin whose lock has
// elapsed before now.
func (r *AdminRepository) ClearExpiredLocks(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_login_attempts = 0, lock_until = NULL, updated_at = ?
		WHERE lock_until IS NOT NULL AND lock_until <= ?
	`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAdmin(s rowScanner) (*models.Admin, error) {
	var a models.Admin
	var lockUntil, passwordChangedAt, lastLogin sql.NullInt64
	var createdBy sql.NullString

	err := s.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Permissions, &a.Active, &a.FailedLoginAttempts, &lockUntil,
		&a.IPAllowlist, &a.FirstLogin, &a.MustChangePassword, &passwordChangedAt, &lastLogin, &createdBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a.LockUntil = int64Ptr(lockUntil)
	a.PasswordChangedAt = int64Ptr(passwordChangedAt)
	a.LastLogin = int64Ptr(lastLogin)
	a.CreatedBy = createdBy.String
	return &a, nil
}
