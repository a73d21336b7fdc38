package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/adapter"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/saga"
)

// OnboardMerchantRequest holds data to open a merchant.
type OnboardMerchantRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Address     string `json:"address"`
}

// UpdateMerchantRequest holds profile edits. Empty fields are left unchanged.
type UpdateMerchantRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Address     string `json:"address"`
}

// ChangeMerchantStatusRequest is the admin moderation payload.
type ChangeMerchantStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OnboardResponse carries the new merchant and a token pair with the merchant role.
type OnboardResponse struct {
	Merchant MerchantDTO    `json:"merchant"`
	User     UserDTO        `json:"user"`
	Tokens   auth.TokenPair `json:"tokens"`
}

// MerchantService handles merchant use cases.
type MerchantService struct {
	repo       merchant.Repository
	onboarding *saga.OnboardingService
	tokens     *auth.TokenService
	publisher  events.Publisher
	notifier   adapter.Notifier
	clock      clock.Clock
	logger     *zap.Logger
}

// NewMerchantService creates a new MerchantService.
func NewMerchantService(
	repo merchant.Repository,
	onboarding *saga.OnboardingService,
	tokens *auth.TokenService,
	publisher events.Publisher,
	notifier adapter.Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *MerchantService {
	return &MerchantService{
		repo:       repo,
		onboarding: onboarding,
		tokens:     tokens,
		publisher:  publisher,
		notifier:   notifier,
		clock:      clk,
		logger:     logger,
	}
}

// Onboard makes the caller the owner of a new merchant. Tokens are immutable,
// so a fresh pair carrying the merchant role is returned.
func (s *MerchantService) Onboard(ctx context.Context, identity auth.Identity, req OnboardMerchantRequest) (_ *OnboardResponse, err error) {
	ctx, span := startSpan(ctx, "MerchantService.Onboard")
	defer endSpan(span, &err)

	m, owner, err := s.onboarding.Onboard(ctx, identity.SubjectID, saga.OnboardInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Address,
	})
	if err != nil {
		return nil, err
	}

	ownerIdentity, err := owner.Identity()
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssuePair(ctx, ownerIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return &OnboardResponse{Merchant: toMerchantDTO(m), User: toUserDTO(owner), Tokens: pair}, nil
}

// Get returns a merchant profile.
func (s *MerchantService) Get(ctx context.Context, id uuid.UUID) (*MerchantDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toMerchantDTO(m)
	return &dto, nil
}

// Update edits the merchant profile.
func (s *MerchantService) Update(ctx context.Context, id uuid.UUID, req UpdateMerchantRequest) (*MerchantDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if req.Name != "" {
		if err := m.Rename(req.Name, now); err != nil {
			return nil, err
		}
	}
	m.UpdateProfile(req.Description, req.Category, req.Address, now)

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update merchant: %w", err)
	}
	dto := toMerchantDTO(m)
	return &dto, nil
}

// ChangeStatus moves a merchant through moderation and notifies it.
func (s *MerchantService) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeMerchantStatusRequest) (*MerchantDTO, error) {
	status, err := merchant.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status() == status {
		dto := toMerchantDTO(m)
		return &dto, nil
	}
	if err := m.ChangeStatus(status, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update merchant: %w", err)
	}

	if err := s.notifier.NotifyMerchantStatus(ctx, m.ID(), string(status)); err != nil {
		s.logger.Warn("failed to notify merchant", zap.String("merchant_id", m.ID().String()), zap.Error(err))
	}
	s.logger.Info("merchant status changed",
		zap.String("merchant_id", m.ID().String()),
		zap.String("status", string(status)),
	)

	dto := toMerchantDTO(m)
	return &dto, nil
}

// Delete removes the merchant with its promotions and demotes its users.
func (s *MerchantService) Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "MerchantService.Delete")
	defer endSpan(span, &err)

	now := s.clock.Now()
	if err := s.repo.DeleteCascade(ctx, id, now); err != nil {
		return err
	}

	evt := events.MerchantDeletedEvent{MerchantID: id, DeletedBy: identity.SubjectID, OccurredAt: now}
	if err := s.publisher.Publish(ctx, events.TopicPromotionEvents, id.String(), events.MerchantDeleted, evt); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", events.MerchantDeleted), zap.Error(err))
	}
	s.logger.Info("merchant deleted", zap.String("merchant_id", id.String()))
	return nil
}

// List returns merchants, newest first.
func (s *MerchantService) List(ctx context.Context, page, limit int) ([]MerchantDTO, int64, error) {
	ms, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MerchantDTO, len(ms))
	for i, m := range ms {
		out[i] = toMerchantDTO(m)
	}
	return out, total, nil
}
