package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"zettanote/internal/pkg/validator"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/models"
)

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	repo          *Repository
	users         UserLookup
	policy        WritePolicy
	maxBodyBytes  int
	publicBaseURL string
	now           func() time.Time
}

func NewService(repo *Repository, users UserLookup, cfg config.PagesConfig) *Service {
	policy := WritePolicy(cfg.CollaboratorWrite)
	if policy != WriteExplicit {
		policy = WriteImplicit
	}
	return &Service{
		repo:          repo,
		users:         users,
		policy:        policy,
		maxBodyBytes:  cfg.MaxBodyBytes,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		now:           time.Now,
	}
}

func (s *Service) Policy() WritePolicy {
	return s.policy
}

func (s *Service) Create(ctx context.Context, actorID, name string) (*Page, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	p := &Page{
		ID:            uuid.New().String(),
		Name:          name,
		OwnerID:       actorID,
		Collaborators: []Collaborator{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return p, nil
}

func (s *Service) load(ctx context.Context, id string) (*Page, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	if p == nil {
		return nil, ErrPageNotFound
	}
	return p, nil
}

func (s *Service) loadManaged(ctx context.Context, actorID, id string) (*Page, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(actorID, p) {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actorID, id string) (*Page, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(actorID, p) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListOwned(ctx context.Context, actorID string) ([]Summary, error) {
	return s.repo.ListOwned(ctx, actorID)
}

func (s *Service) ListShared(ctx context.Context, actorID string) ([]Summary, error) {
	summaries, err := s.repo.ListShared(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if s.policy == WriteImplicit {
		for i := range summaries {
			summaries[i].CanWrite = true
		}
	}
	return summaries, nil
}

func (s *Service) Rename(ctx context.Context, actorID, id, name string) (*Page, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.loadManaged(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename page: %w", err)
	}
	p.Name = name
	p.UpdatedAt = s.now().Unix()
	return p, nil
}

func (s *Service) Save(ctx context.Context, actorID, id, body string) (*Page, error) {
	if err := ValidateBody(body, s.maxBodyBytes); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanWrite(actorID, p, s.policy) {
		return nil, ErrForbidden
	}
	saved, err := s.repo.SaveBody(ctx, id, actorID, body, s.policy == WriteExplicit)
	if err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}
	if !saved {
		return nil, ErrForbidden
	}
	p.Body = body
	p.UpdatedAt = s.now().Unix()
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.loadManaged(ctx, actorID, id); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if !deleted {
		return ErrPageNotFound
	}
	return nil
}

func (s *Service) resolveUser(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Share grants targetEmail access to the page. Checks run in a fixed
// order: target user, page, ownership, self-share, existing share.
func (s *Service) Share(ctx context.Context, actorID, id, targetEmail string, grantWrite bool) (*Page, error) {
	target, err := s.resolveUser(ctx, targetEmail)
	if err != nil {
		return nil, err
	}
	p, err := s.loadManaged(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if target.ID == actorID {
		return nil, ErrSelfShare
	}

	inserted, err := s.repo.AddCollaborator(ctx, id, target.ID, grantWrite)
	if err != nil {
		return nil, fmt.Errorf("share page: %w", err)
	}
	if !inserted {
		return nil, ErrAlreadyShared
	}

	p.Collaborators = append(p.Collaborators, Collaborator{
		UserID:   target.ID,
		Email:    target.Email,
		Name:     target.Name,
		CanWrite: grantWrite,
		AddedAt:  s.now().Unix(),
	})
	return p, nil
}

func (s *Service) Unshare(ctx context.Context, actorID, id, targetEmail string) (*Page, error) {
	target, err := s.resolveUser(ctx, targetEmail)
	if err != nil {
		return nil, err
	}
	p, err := s.loadManaged(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveCollaborator(ctx, id, target.ID)
	if err != nil {
		return nil, fmt.Errorf("unshare page: %w", err)
	}
	if !removed {
		return nil, ErrNotShared
	}

	kept := p.Collaborators[:0]
	for _, c := range p.Collaborators {
		if c.UserID != target.ID {
			kept = append(kept, c)
		}
	}
	p.Collaborators = kept
	return p, nil
}

// Publicize returns the page's public share token, creating one if the
// page has none. Repeated calls return the same token.
func (s *Service) Publicize(ctx context.Context, actorID, id string) (string, error) {
	p, err := s.loadManaged(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	if p.PublicShareID != "" {
		return p.PublicShareID, nil
	}

	token, err := NewShareToken()
	if err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	current, err := s.repo.EnsurePublicShareID(ctx, id, token)
	if err != nil {
		return "", fmt.Errorf("publicize page: %w", err)
	}
	if current == "" {
		return "", ErrPageNotFound
	}
	return current, nil
}

func (s *Service) Unpublish(ctx context.Context, actorID, id string) error {
	if _, err := s.loadManaged(ctx, actorID, id); err != nil {
		return err
	}
	if err := s.repo.ClearPublicShareID(ctx, id); err != nil {
		return fmt.Errorf("unpublish page: %w", err)
	}
	return nil
}

func (s *Service) ResolvePublic(ctx context.Context, token string) (*PublicView, error) {
	if !IsShareToken(token) {
		return nil, ErrPageNotFound
	}
	v, err := s.repo.GetPublic(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve public page: %w", err)
	}
	if v == nil {
		return nil, ErrPageNotFound
	}
	return v, nil
}

func (s *Service) PublicURL(token string) string {
	return s.publicBaseURL + "/" + token
}

// PublicQRCode renders a PNG QR code of the page's public URL.
func (s *Service) PublicQRCode(ctx context.Context, actorID, id string, size int) ([]byte, error) {
	p, err := s.loadManaged(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if p.PublicShareID == "" {
		return nil, ErrNoPublicLink
	}
	return GenerateQRCode(s.PublicURL(p.PublicShareID), size)
}

func (s *Service) AdminList(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) AdminGet(ctx context.Context, id string) (*Page, error) {
	return s.load(ctx, id)
}

func (s *Service) AdminDelete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if !deleted {
		return ErrPageNotFound
	}
	return nil
}
