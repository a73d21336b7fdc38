package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
)

// UpdateProfileRequest holds self-service profile edits.
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

// ChangeRoleRequest is the admin role assignment payload. merchant_id is
// required for the merchant role and rejected otherwise.
type ChangeRoleRequest struct {
	Role       string  `json:"role" binding:"required"`
	MerchantID *string `json:"merchant_id"`
}

// UserService handles user profile and role use cases.
type UserService struct {
	repo      user.Repository
	merchants merchant.Repository
	clock     clock.Clock
	logger    *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo user.Repository, merchants merchant.Repository, clk clock.Clock, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, merchants: merchants, clock: clk, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Rename(req.Name, s.clock.Now())
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	dto := toUserDTO(u)
	return &dto, nil
}

// ChangeRole assigns a role. Assigning the merchant role requires the merchant to exist.
// The change applies to tokens issued after it.
func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, req ChangeRoleRequest) (*UserDTO, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	merchantID, err := parseOptionalUUID("merchant_id", req.MerchantID)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == auth.RoleMerchant && merchantID != nil {
		if _, err := s.merchants.FindByID(ctx, *merchantID); err != nil {
			return nil, err
		}
	}
	if err := u.AssignRole(role, merchantID, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user role changed",
		zap.String("user_id", id.String()),
		zap.String("role", string(role)),
	)
	dto := toUserDTO(u)
	return &dto, nil
}

func (s *UserService) List(ctx context.Context, page, limit int) ([]UserDTO, int64, error) {
	us, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserDTO, len(us))
	for i, u := range us {
		out[i] = toUserDTO(u)
	}
	return out, total, nil
}
