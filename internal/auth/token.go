package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

const (
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// KeyKind selects which signing secret a token is checked against.
type KeyKind int

const (
	AccessKey KeyKind = iota
	RefreshKey
)

func (k KeyKind) String() string {
	if k == RefreshKey {
		return "refresh"
	}
	return "access"
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is returned on login and registration.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService issues and verifies HS256 access and refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	store         RefreshTokenStore
	clock         clock.Clock
}

// NewTokenService creates a TokenService. The two secrets must be set and differ.
func NewTokenService(cfg TokenConfig, store RefreshTokenStore, clk clock.Clock) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		store:         store,
		clock:         clk,
	}, nil
}

// IssueAccessToken signs a short-lived token for identity.
func (s *TokenService) IssueAccessToken(identity Identity) (string, error) {
	return s.sign(identity, AccessKey)
}

// IssueRefreshToken signs a long-lived token and records it as live.
func (s *TokenService) IssueRefreshToken(ctx context.Context, identity Identity) (string, error) {
	token, err := s.sign(identity, RefreshKey)
	if err != nil {
		return "", err
	}
	if err := s.store.Add(ctx, token, s.refreshTTL); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// IssuePair issues an access and a refresh token together.
func (s *TokenService) IssuePair(ctx context.Context, identity Identity) (TokenPair, error) {
	access, err := s.IssueAccessToken(identity)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, identity)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Verify checks signature and expiry against the secret for kind.
func (s *TokenService) Verify(token string, kind KeyKind) (Identity, error) {
	secret := s.secret(kind)
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return Identity{}, domain.NewInvalidTokenError(err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, domain.NewInvalidTokenError("unexpected claims")
	}
	identity, err := claims.Identity()
	if err != nil {
		return Identity{}, domain.NewInvalidTokenError(err.Error())
	}
	return identity, nil
}

// VerifyRefresh returns the identity in a refresh token that verifies and is
// still live in the store.
func (s *TokenService) VerifyRefresh(ctx context.Context, refreshToken string) (Identity, error) {
	identity, err := s.Verify(refreshToken, RefreshKey)
	if err != nil {
		return Identity{}, err
	}
	live, err := s.store.Contains(ctx, refreshToken)
	if err != nil {
		return Identity{}, fmt.Errorf("check refresh token: %w", err)
	}
	if !live {
		return Identity{}, domain.NewInvalidTokenError("refresh token revoked")
	}
	return identity, nil
}

// Refresh mints a new access token carrying the refresh token's claims. The
// refresh token itself is not rotated. Callers that can look the subject up
// should use VerifyRefresh and issue from the current identity instead.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	identity, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return s.IssueAccessToken(identity)
}

// Revoke removes a refresh token. Revoking an unknown token is not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	return s.store.Remove(ctx, refreshToken)
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) sign(identity Identity, kind KeyKind) (string, error) {
	if identity.IsAnonymous() {
		return "", domain.NewValidationError("cannot issue a token for an anonymous identity")
	}
	ttl := s.accessTTL
	if kind == RefreshKey {
		ttl = s.refreshTTL
	}

	now := s.clock.Now()
	claims := claimsFor(identity)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (s *TokenService) secret(kind KeyKind) []byte {
	if kind == RefreshKey {
		return s.refreshSecret
	}
	return s.accessSecret
}
