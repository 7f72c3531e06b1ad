package pages

import (
	"context"
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Page) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pages (id, name, body, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Body, p.OwnerID, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID loads a page with its collaborators. It returns nil, nil when
// the page does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Page, error) {
	var p Page
	var publicShareID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, body, owner_id, public_share_id, created_at, updated_at
		FROM pages WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Body, &p.OwnerID, &publicShareID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.PublicShareID = publicShareID.String

	collaborators, err := r.collaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Collaborators = collaborators
	return &p, nil
}

func (r *Repository) collaborators(ctx context.Context, pageID string) ([]Collaborator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.user_id, u.email, u.name, c.can_write, c.created_at
		FROM page_collaborators c
		JOIN users u ON u.id = c.user_id
		WHERE c.page_id = ?
		ORDER BY c.created_at, c.user_id
	`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collaborators := []Collaborator{}
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.UserID, &c.Email, &c.Name, &c.CanWrite, &c.AddedAt); err != nil {
			return nil, err
		}
		collaborators = append(collaborators, c)
	}
	return collaborators, rows.Err()
}

func (r *Repository) ListOwned(ctx context.Context, ownerID string) ([]Summary, error) {
	return r.listSummaries(ctx, `
		SELECT id, name, owner_id, public_share_id IS NOT NULL, 1, updated_at
		FROM pages WHERE owner_id = ?
		ORDER BY updated_at DESC, id
	`, ownerID)
}

func (r *Repository) ListShared(ctx context.Context, userID string) ([]Summary, error) {
	return r.listSummaries(ctx, `
		SELECT p.id, p.name, p.owner_id, p.public_share_id IS NOT NULL, c.can_write, p.updated_at
		FROM page_collaborators c
		JOIN pages p ON p.id = c.page_id
		WHERE c.user_id = ?
		ORDER BY p.updated_at DESC, p.id
	`, userID)
}

// List returns a page of all pages for administration, newest first,
// and the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	summaries, err := r.listSummaries(ctx, `
		SELECT id, name, owner_id, public_share_id IS NOT NULL, 0, updated_at
		FROM pages
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	return summaries, total, err
}

func (r *Repository) listSummaries(ctx context.Context, query string, args ...interface{}) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.OwnerID, &s.Public, &s.CanWrite, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *Repository) Rename(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pages SET name = ?, updated_at = ? WHERE id = ?`, name, time.Now().Unix(), id)
	return err
}

// SaveBody stores body only if, at the time of the write, userID owns the
// page or collaborates on it (with a write grant when requireGrant is
// set). It reports whether the page was updated.
func (r *Repository) SaveBody(ctx context.Context, id, userID, body string, requireGrant bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pages SET body = ?, updated_at = ?
		WHERE id = ? AND (
			owner_id = ? OR EXISTS (
				SELECT 1 FROM page_collaborators c
				WHERE c.page_id = pages.id AND c.user_id = ? AND (c.can_write = 1 OR ? = 0)
			)
		)
	`, body, time.Now().Unix(), id, userID, userID, requireGrant)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes the page and all of its collaborator rows together.
// It returns false when the page does not exist.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_collaborators WHERE page_id = ?`, id); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

// AddCollaborator inserts the collaborator row unless one already exists
// or userID owns the page. It reports whether a row was inserted.
func (r *Repository) AddCollaborator(ctx context.Context, pageID, userID string, canWrite bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO page_collaborators (page_id, user_id, can_write, created_at)
		SELECT id, ?, ?, ? FROM pages WHERE id = ? AND owner_id != ?
		ON CONFLICT (page_id, user_id) DO NOTHING
	`, userID, canWrite, time.Now().Unix(), pageID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RemoveCollaborator reports whether a collaborator row was deleted.
func (r *Repository) RemoveCollaborator(ctx context.Context, pageID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM page_collaborators WHERE page_id = ? AND user_id = ?`, pageID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// EnsurePublicShareID sets token as the page's public share id if it has
// none, and returns whichever token the page carries afterwards.
func (r *Repository) EnsurePublicShareID(ctx context.Context, id, token string) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pages SET public_share_id = ?, updated_at = ?
		WHERE id = ? AND public_share_id IS NULL
	`, token, time.Now().Unix(), id)
	if err != nil {
		return "", err
	}

	var current sql.NullString
	err = r.db.QueryRowContext(ctx, `SELECT public_share_id FROM pages WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return current.String, nil
}

func (r *Repository) ClearPublicShareID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pages SET public_share_id = NULL, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

// GetPublic returns nil, nil when no page carries token.
func (r *Repository) GetPublic(ctx context.Context, token string) (*PublicView, error) {
	var v PublicView
	err := r.db.QueryRowContext(ctx, `SELECT name, body FROM pages WHERE public_share_id = ?`, token).Scan(&v.Name, &v.Body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
