package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/favorite"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// FavoriteService handles saved promotions.
type FavoriteService struct {
	repo       favorite.Repository
	promotions promotion.Repository
	clock      clock.Clock
	logger     *zap.Logger
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(repo favorite.Repository, promotions promotion.Repository, clk clock.Clock, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, promotions: promotions, clock: clk, logger: logger}
}

// Add saves a promotion the caller can see. Saving twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, identity auth.Identity, promotionID uuid.UUID) error {
	p, err := s.promotions.FindByID(ctx, promotionID)
	if err != nil {
		return err
	}
	if !p.IsPubliclyVisible(s.clock.Now()) && !identity.IsAdmin() && !p.OwnedBy(identity) {
		return domain.NewNotFoundError("promotion", promotionID.String())
	}
	return s.repo.Add(ctx, favorite.Favorite{
		UserID:      identity.SubjectID,
		PromotionID: promotionID,
		CreatedAt:   s.clock.Now(),
	})
}

// Remove drops a saved promotion. Removing one that was never saved is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, identity auth.Identity, promotionID uuid.UUID) error {
	return s.repo.Remove(ctx, identity.SubjectID, promotionID)
}

// List returns the user's saved promotions, newest first. Promotions deleted
// since they were saved are skipped.
func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) ([]PromotionDTO, error) {
	favs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]PromotionDTO, 0, len(favs))
	for _, f := range favs {
		p, err := s.promotions.FindByID(ctx, f.PromotionID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, toPromotionDTO(p, now))
	}
	return out, nil
}
