package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrUnauthorized indicates a missing, malformed, expired or otherwise
	// unverifiable credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a verified identity that is not allowed to
	// perform the attempted operation.
	ErrForbidden = errors.New("forbidden")
)

// TokenKind distinguishes the two credentials the service issues.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the decoded payload of a VidTube token. Access tokens carry the
// profile fields; refresh tokens carry only the subject.
type Claims struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullname,omitempty"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"type"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c Claims) UserID() string {
	return c.Subject
}

// CredentialStore is the slice of user persistence the token service needs:
// loading an identity and overwriting its single refresh-token slot.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
}

// TokenService issues, verifies and rotates the access/refresh token pair.
// Exactly one refresh token is valid per user at any time: rotating writes
// the new token over the stored slot, which revokes every prior one.
type TokenService struct {
	cfg   config.TokenConfig
	users CredentialStore

	// nowFunc lets tests control expiry.
	nowFunc func() time.Time
}

// NewTokenService constructs the service. Secrets must be non-empty; this is
// a startup misconfiguration, not a user-facing condition.
func NewTokenService(cfg config.TokenConfig, users CredentialStore) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token signing secrets must be provided")
	}
	if users == nil {
		return nil, errors.New("auth: credential store must be provided")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{cfg: cfg, users: users, nowFunc: time.Now}, nil
}

// IssueAccessToken encodes the user's id, email, fullname and username with
// the short access expiry.
func (s *TokenService) IssueAccessToken(user models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email:    user.Email,
		FullName: user.FullName,
		Username: user.Username,
		Kind:     string(KindAccess),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken encodes only the user's id with the long refresh expiry.
func (s *TokenService) IssueRefreshToken(user models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Kind: string(KindRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// Rotate issues a fresh token pair and persists the refresh token onto the
// user record, invalidating whatever refresh token was stored before.
func (s *TokenService) Rotate(ctx context.Context, user models.User) (models.TokenPair, error) {
	accessToken, err := s.IssueAccessToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refreshToken, err := s.IssueRefreshToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Verify decodes and validates a token of the expected kind. Any signature,
// expiry, shape or kind problem surfaces as ErrUnauthorized.
func (s *TokenService) Verify(tokenString string, kind TokenKind) (Claims, error) {
	secret := s.cfg.AccessSecret
	if kind == KindRefresh {
		secret = s.cfg.RefreshSecret
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: invalid %s token", ErrUnauthorized, kind)
	}

	if claims.Kind != string(kind) || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: invalid %s token", ErrUnauthorized, kind)
	}

	return claims, nil
}

// Refresh exchanges a presented refresh token for a new pair. The presented
// token must decode, reference an existing user, and match the stored slot
// byte for byte; a mismatch means the token was already rotated out and is
// rejected with ErrForbidden.
func (s *TokenService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	claims, err := s.Verify(presented, KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: unknown refresh subject", ErrUnauthorized)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.TokenPair{}, fmt.Errorf("%w: refresh token superseded", ErrForbidden)
	}

	return s.Rotate(ctx, user)
}

func (s *TokenService) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc().UTC()
	}
	return time.Now().UTC()
}
