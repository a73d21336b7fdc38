package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/favorite"
)

// FavoriteModel is the GORM model for the favorites table.
type FavoriteModel struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromotionID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (FavoriteModel) TableName() string { return "favorites" }

// GormFavoriteRepository implements favorite.Repository using GORM.
type GormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a new GormFavoriteRepository.
func NewGormFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{db: db}
}

func (r *GormFavoriteRepository) Add(ctx context.Context, f favorite.Favorite) error {
	model := FavoriteModel{UserID: f.UserID, PromotionID: f.PromotionID, CreatedAt: f.CreatedAt.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *GormFavoriteRepository) Remove(ctx context.Context, userID, promotionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND promotion_id = ?", userID, promotionID).
		Delete(&FavoriteModel{}).Error
}

func (r *GormFavoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]favorite.Favorite, error) {
	var models []FavoriteModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]favorite.Favorite, len(models))
	for i, m := range models {
		out[i] = favorite.Favorite{UserID: m.UserID, PromotionID: m.PromotionID, CreatedAt: m.CreatedAt.UTC()}
	}
	return out, nil
}
