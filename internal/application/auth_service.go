package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// RegisterRequest holds data to create an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AccessTokenDTO is returned by refresh.
type AccessTokenDTO struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

var errBadCredentials = domain.NewUnauthenticatedError("invalid email or password")

// AuthService handles account and session use cases.
type AuthService struct {
	users  user.Repository
	tokens *auth.TokenService
	clock  clock.Clock
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users user.Repository, tokens *auth.TokenService, clk clock.Clock, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, clock: clk, logger: logger}
}

// Register creates a user with the user role and signs them in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (_ *AuthResponse, err error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	defer endSpan(span, &err)

	if _, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email))); err == nil {
		return nil, domain.NewConflictError("email already registered")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := user.NewUser(req.Email, hash, req.Name, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID().String()))
	return s.signIn(ctx, u)
}

// Login checks credentials and issues a token pair. Unknown emails and wrong
// passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (_ *AuthResponse, err error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	defer endSpan(span, &err)

	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !auth.ComparePassword(u.PasswordHash(), req.Password) {
		return nil, errBadCredentials
	}
	return s.signIn(ctx, u)
}

// Refresh mints a new access token from a live refresh token. The user is
// re-read so the token carries the current role and merchant link rather than
// the ones captured when the refresh token was issued.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (_ *AccessTokenDTO, err error) {
	ctx, span := startSpan(ctx, "AuthService.Refresh")
	defer endSpan(span, &err)

	claimed, err := s.tokens.VerifyRefresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, domain.NewUnauthenticatedError("invalid refresh token")
		}
		return nil, err
	}

	u, err := s.users.FindByID(ctx, claimed.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthenticatedError("account no longer exists")
		}
		return nil, err
	}
	current, err := u.Identity()
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(current)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &AccessTokenDTO{AccessToken: access, ExpiresIn: int64(s.tokens.AccessTTL().Seconds())}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, req RefreshRequest) error {
	return s.tokens.Revoke(ctx, req.RefreshToken)
}

func (s *AuthService) signIn(ctx context.Context, u *user.User) (*AuthResponse, error) {
	identity, err := u.Identity()
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssuePair(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResponse{User: toUserDTO(u), Tokens: pair}, nil
}
