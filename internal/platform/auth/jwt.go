package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"zettanote/internal/platform/config"
)

type TokenType string

const (
	TokenUser           TokenType = "user"
	TokenAdmin          TokenType = "admin"
	TokenPasswordChange TokenType = "password_change"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	Type  TokenType `json:"typ"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

func (s *TokenService) IssueUserToken(userID, email string) (string, error) {
	return s.issue(TokenUser, userID, email, "", s.config.UserTokenTTL)
}

func (s *TokenService) IssueAdminToken(adminID, email, role string) (string, error) {
	return s.issue(TokenAdmin, adminID, email, role, s.config.AdminTokenTTL)
}

func (s *TokenService) IssuePasswordChangeToken(adminID, email string) (string, error) {
	return s.issue(TokenPasswordChange, adminID, email, "", s.config.PasswordChangeTTL)
}

// TTL returns the lifetime of tokens of type t.
func (s *TokenService) TTL(t TokenType) time.Duration {
	switch t {
	case TokenAdmin:
		return s.config.AdminTokenTTL
	case TokenPasswordChange:
		return s.config.PasswordChangeTTL
	default:
		return s.config.UserTokenTTL
	}
}

func (s *TokenService) issue(typ TokenType, subject, email, role string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Type:  typ,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// Validate verifies signature and expiry and that the token carries the
// expected type.
func (s *TokenService) Validate(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != expected {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
