package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/click"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// DefaultSummaryWindow is used when no since parameter is given.
const DefaultSummaryWindow = 30 * 24 * time.Hour

// RecordClickRequest holds a click from a client.
type RecordClickRequest struct {
	Type string `json:"type" binding:"required"`
}

// ClickDTO acknowledges an accepted click.
type ClickDTO struct {
	ID          uuid.UUID `json:"id"`
	PromotionID uuid.UUID `json:"promotion_id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SummaryDTO reports click counts for a merchant.
type SummaryDTO struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	Since      time.Time `json:"since"`
	Views      int64     `json:"views"`
	Redeems    int64     `json:"redeems"`
	Shares     int64     `json:"shares"`
}

// AnalyticsService records promotion clicks and aggregates them.
type AnalyticsService struct {
	clicks     click.Repository
	promotions promotion.Repository
	publisher  events.Publisher
	clock      clock.Clock
	logger     *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	clicks click.Repository,
	promotions promotion.Repository,
	publisher events.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{clicks: clicks, promotions: promotions, publisher: publisher, clock: clk, logger: logger}
}

// RecordClick accepts a click on an active promotion and hands it to the
// click topic. Storage happens in HandleClickEvent.
func (s *AnalyticsService) RecordClick(ctx context.Context, identity auth.Identity, promotionID uuid.UUID, req RecordClickRequest) (_ *ClickDTO, err error) {
	ctx, span := startSpan(ctx, "AnalyticsService.RecordClick")
	defer endSpan(span, &err)

	typ, err := click.ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	p, err := s.promotions.FindByID(ctx, promotionID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !p.IsPubliclyVisible(now) {
		return nil, domain.NewNotFoundError("promotion", promotionID.String())
	}

	evt := events.PromotionClickedEvent{
		ClickID:     uuid.New(),
		PromotionID: p.ID(),
		MerchantID:  p.MerchantID(),
		Type:        string(typ),
		OccurredAt:  now,
	}
	if !identity.IsAnonymous() {
		uid := identity.SubjectID
		evt.UserID = &uid
	}
	if err := s.publisher.Publish(ctx, events.TopicPromotionClicks, p.ID().String(), events.PromotionClicked, evt); err != nil {
		return nil, fmt.Errorf("failed to publish click: %w", err)
	}

	return &ClickDTO{ID: evt.ClickID, PromotionID: p.ID(), Type: string(typ), OccurredAt: now}, nil
}

// HandleClickEvent stores a consumed click. Redeliveries are ignored by the repository.
func (s *AnalyticsService) HandleClickEvent(ctx context.Context, event events.PromotionClickedEvent) error {
	typ, err := click.ParseType(event.Type)
	if err != nil {
		s.logger.Warn("dropping click with unknown type", zap.String("type", event.Type))
		return nil
	}
	if err := s.clicks.Append(ctx, click.Click{
		ID:          event.ClickID,
		PromotionID: event.PromotionID,
		MerchantID:  event.MerchantID,
		UserID:      event.UserID,
		Type:        typ,
		OccurredAt:  event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("failed to store click: %w", err)
	}
	return nil
}

// MerchantSummary counts a merchant's clicks since the given instant. A zero
// since means the last DefaultSummaryWindow.
func (s *AnalyticsService) MerchantSummary(ctx context.Context, merchantID uuid.UUID, since time.Time) (*SummaryDTO, error) {
	if since.IsZero() {
		since = s.clock.Now().Add(-DefaultSummaryWindow)
	}
	summary, err := s.clicks.CountByType(ctx, merchantID, since)
	if err != nil {
		return nil, err
	}
	return &SummaryDTO{
		MerchantID: merchantID,
		Since:      since.UTC(),
		Views:      summary[click.TypeView],
		Redeems:    summary[click.TypeRedeem],
		Shares:     summary[click.TypeShare],
	}, nil
}
