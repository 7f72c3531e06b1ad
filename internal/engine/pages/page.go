package pages

import apperrors "zettanote/internal/pkg/errors"

type Page struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Body          string         `json:"body"`
	OwnerID       string         `json:"owner_id"`
	PublicShareID string         `json:"public_share_id,omitempty"`
	Collaborators []Collaborator `json:"collaborators"`
	CreatedAt     int64          `json:"created_at"`
	UpdatedAt     int64          `json:"updated_at"`
}

type Collaborator struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	CanWrite bool   `json:"can_write"`
	AddedAt  int64  `json:"added_at"`
}

// Summary is a page without its body, used in listings.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	Public    bool   `json:"public"`
	CanWrite  bool   `json:"can_write"`
	UpdatedAt int64  `json:"updated_at"`
}

// PublicView is what an anonymous holder of a share token may see.
type PublicView struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

type WritePolicy string

const (
	// WriteImplicit lets every collaborator save content.
	WriteImplicit WritePolicy = "implicit"
	// WriteExplicit requires a collaborator to have been granted write.
	WriteExplicit WritePolicy = "explicit"
)

var (
	ErrUserNotFound  = apperrors.New(apperrors.KindNotFound, "user not found")
	ErrPageNotFound  = apperrors.New(apperrors.KindNotFound, "page not found")
	ErrNoPublicLink  = apperrors.New(apperrors.KindNotFound, "page has no public link")
	ErrForbidden     = apperrors.New(apperrors.KindForbidden, "you do not have access to this page")
	ErrNotOwner      = apperrors.New(apperrors.KindForbidden, "only the owner can do this")
	ErrSelfShare     = apperrors.New(apperrors.KindSelfShareNotAllowed, "you cannot share a page with yourself")
	ErrAlreadyShared = apperrors.New(apperrors.KindAlreadyShared, "page is already shared with this user")
	ErrNotShared     = apperrors.New(apperrors.KindNotShared, "page is not shared with this user")
)
