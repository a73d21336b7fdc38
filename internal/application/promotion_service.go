package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/adapter"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// CreatePromotionRequest holds data to create a promotion.
type CreatePromotionRequest struct {
	MerchantID     *string `json:"merchant_id"`
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Code           string  `json:"code"`
	DiscountType   string  `json:"discount_type" binding:"required"`
	DiscountValue  int64   `json:"discount_value" binding:"required"`
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	LifecycleState *string `json:"lifecycle_state"`
}

// UpdatePromotionRequest holds optional edits. Only admins may change lifecycle_state.
type UpdatePromotionRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Code           *string `json:"code"`
	DiscountType   *string `json:"discount_type"`
	DiscountValue  *int64  `json:"discount_value"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	LifecycleState *string `json:"lifecycle_state"`
}

// ChangeLifecycleRequest is the admin moderation payload.
type ChangeLifecycleRequest struct {
	LifecycleState string `json:"lifecycle_state" binding:"required"`
}

// PromotionService handles promotion use cases.
type PromotionService struct {
	repo      promotion.Repository
	merchants merchant.Repository
	publisher events.Publisher
	notifier  adapter.Notifier
	clock     clock.Clock
	logger    *zap.Logger
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(
	repo promotion.Repository,
	merchants merchant.Repository,
	publisher events.Publisher,
	notifier adapter.Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		repo:      repo,
		merchants: merchants,
		publisher: publisher,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
	}
}

// Create stores a new promotion for the caller. Merchants always create for
// their own merchant in pending_approval; admins name the merchant and may
// pick the initial state.
func (s *PromotionService) Create(ctx context.Context, identity auth.Identity, req CreatePromotionRequest) (_ *PromotionDTO, err error) {
	ctx, span := startSpan(ctx, "PromotionService.Create")
	defer endSpan(span, &err)

	var requested *promotion.LifecycleState
	if req.LifecycleState != nil {
		st := promotion.LifecycleState(*req.LifecycleState)
		requested = &st
	}
	state, err := promotion.InitialLifecycle(identity.Role, requested)
	if err != nil {
		return nil, err
	}

	merchantID, err := s.resolveMerchant(identity, req.MerchantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.merchants.FindByID(ctx, merchantID); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p, err := promotion.NewPromotion(promotion.NewParams{
		MerchantID:    merchantID,
		Title:         req.Title,
		Description:   req.Description,
		Code:          req.Code,
		DiscountType:  promotion.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		StartDate:     start,
		EndDate:       end,
		CreatedBy:     identity.SubjectID,
	}, state, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save promotion: %w", err)
	}
	span.SetAttributes(attribute.String("promotion.id", p.ID().String()))

	s.publish(ctx, events.TopicPromotionEvents, p.ID().String(), events.PromotionCreated, events.PromotionCreatedEvent{
		PromotionID:    p.ID(),
		MerchantID:     p.MerchantID(),
		LifecycleState: string(p.LifecycleState()),
		CreatedBy:      identity.SubjectID,
		OccurredAt:     now,
	})

	s.logger.Info("promotion created",
		zap.String("promotion_id", p.ID().String()),
		zap.String("merchant_id", merchantID.String()),
		zap.String("lifecycle_state", string(state)),
	)

	dto := toPromotionDTO(p, now)
	return &dto, nil
}

func (s *PromotionService) resolveMerchant(identity auth.Identity, raw *string) (uuid.UUID, error) {
	requested, err := parseOptionalUUID("merchant_id", raw)
	if err != nil {
		return uuid.Nil, err
	}
	if identity.IsAdmin() {
		if requested == nil {
			return uuid.Nil, domain.NewValidationError("merchant_id is required")
		}
		return *requested, nil
	}
	if !identity.IsMerchant() {
		return uuid.Nil, domain.NewForbiddenError("only merchants and admins can create promotions")
	}
	if requested != nil && *requested != *identity.MerchantID {
		return uuid.Nil, domain.NewForbiddenError("cannot create promotions for another merchant")
	}
	return *identity.MerchantID, nil
}

// Update applies req to the promotion. The caller has already passed the
// owner-or-admin policy. The date window is validated before anything else
// changes.
func (s *PromotionService) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, req UpdatePromotionRequest) (_ *PromotionDTO, err error) {
	ctx, span := startSpan(ctx, "PromotionService.Update")
	defer endSpan(span, &err)
	span.SetAttributes(attribute.String("promotion.id", id.String()))

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var target *promotion.LifecycleState
	if req.LifecycleState != nil {
		st, err := promotion.ParseLifecycleState(*req.LifecycleState)
		if err != nil {
			return nil, err
		}
		if st != p.LifecycleState() {
			if !identity.IsAdmin() {
				return nil, domain.NewForbiddenError("only admins can change lifecycle state")
			}
			target = &st
		}
	}

	rev, err := toRevision(req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := p.Revise(rev, now); err != nil {
		return nil, err
	}
	from := p.LifecycleState()
	if target != nil {
		if err := p.TransitionTo(*target, now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	if target != nil {
		s.announceLifecycle(ctx, p, from, identity.SubjectID, now)
	}

	dto := toPromotionDTO(p, now)
	return &dto, nil
}

func toRevision(req UpdatePromotionRequest) (promotion.Revision, error) {
	rev := promotion.Revision{
		Title:         req.Title,
		Description:   req.Description,
		Code:          req.Code,
		DiscountValue: req.DiscountValue,
	}
	if req.DiscountType != nil {
		dt := promotion.DiscountType(*req.DiscountType)
		rev.DiscountType = &dt
	}
	if req.StartDate != nil {
		t, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return rev, err
		}
		rev.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return rev, err
		}
		rev.EndDate = &t
	}
	return rev, nil
}

// Delete removes a promotion and its favorites.
func (s *PromotionService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "PromotionService.Delete")
	defer endSpan(span, &err)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("promotion deleted", zap.String("promotion_id", id.String()))
	return nil
}

// Get returns a promotion. Promotions that are not active are only visible to
// the owning merchant and admins; everyone else gets NotFound.
func (s *PromotionService) Get(ctx context.Context, identity auth.Identity, id uuid.UUID) (_ *PromotionDTO, err error) {
	ctx, span := startSpan(ctx, "PromotionService.Get")
	defer endSpan(span, &err)

	p, err := s.visible(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	dto := toPromotionDTO(p, s.clock.Now())
	return &dto, nil
}

func (s *PromotionService) visible(ctx context.Context, identity auth.Identity, id uuid.UUID) (*promotion.Promotion, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsPubliclyVisible(s.clock.Now()) || identity.IsAdmin() || p.OwnedBy(identity) {
		return p, nil
	}
	return nil, domain.NewNotFoundError("promotion", id.String())
}

// ListPublic returns the active promotions, soonest ending first.
func (s *PromotionService) ListPublic(ctx context.Context, page, limit int) (_ []PromotionDTO, _ int64, err error) {
	ctx, span := startSpan(ctx, "PromotionService.ListPublic")
	defer endSpan(span, &err)

	now := s.clock.Now()
	ps, total, err := s.repo.FindPublic(ctx, now, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toPromotionDTOs(ps, now), total, nil
}

// ListByMerchant returns every promotion of a merchant regardless of status.
func (s *PromotionService) ListByMerchant(ctx context.Context, merchantID uuid.UUID) (_ []PromotionDTO, err error) {
	ctx, span := startSpan(ctx, "PromotionService.ListByMerchant")
	defer endSpan(span, &err)

	ps, err := s.repo.FindByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return toPromotionDTOs(ps, s.clock.Now()), nil
}

// ListByLifecycle returns promotions in state, for the admin moderation queue.
func (s *PromotionService) ListByLifecycle(ctx context.Context, state string, page, limit int) (_ []PromotionDTO, _ int64, err error) {
	ctx, span := startSpan(ctx, "PromotionService.ListByLifecycle")
	defer endSpan(span, &err)

	st, err := promotion.ParseLifecycleState(state)
	if err != nil {
		return nil, 0, err
	}
	ps, total, err := s.repo.FindByLifecycle(ctx, st, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toPromotionDTOs(ps, s.clock.Now()), total, nil
}

// ChangeLifecycle moves a promotion to state, notifies the merchant and
// publishes the change.
func (s *PromotionService) ChangeLifecycle(ctx context.Context, identity auth.Identity, id uuid.UUID, req ChangeLifecycleRequest) (_ *PromotionDTO, err error) {
	ctx, span := startSpan(ctx, "PromotionService.ChangeLifecycle")
	defer endSpan(span, &err)

	if !identity.IsAdmin() {
		return nil, domain.NewForbiddenError("only admins can change lifecycle state")
	}
	state, err := promotion.ParseLifecycleState(req.LifecycleState)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	from := p.LifecycleState()
	if err := p.TransitionTo(state, now); err != nil {
		return nil, err
	}
	if from != state {
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to update promotion: %w", err)
		}
		s.announceLifecycle(ctx, p, from, identity.SubjectID, now)
	}

	dto := toPromotionDTO(p, now)
	return &dto, nil
}

func (s *PromotionService) announceLifecycle(ctx context.Context, p *promotion.Promotion, from promotion.LifecycleState, by uuid.UUID, now time.Time) {
	if err := s.notifier.NotifyPromotionDecision(ctx, p.MerchantID(), p.ID(), string(p.LifecycleState())); err != nil {
		s.logger.Warn("failed to notify merchant", zap.String("promotion_id", p.ID().String()), zap.Error(err))
	}
	s.publish(ctx, events.TopicPromotionEvents, p.ID().String(), events.PromotionLifecycleChanged, events.PromotionLifecycleChangedEvent{
		PromotionID: p.ID(),
		MerchantID:  p.MerchantID(),
		From:        string(from),
		To:          string(p.LifecycleState()),
		ChangedBy:   by,
		OccurredAt:  now,
	})
	s.logger.Info("promotion lifecycle changed",
		zap.String("promotion_id", p.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(p.LifecycleState())),
	)
}

// publish is best effort: the write has already committed.
func (s *PromotionService) publish(ctx context.Context, topic, key, eventType string, data interface{}) {
	if err := s.publisher.Publish(ctx, topic, key, eventType, data); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
