package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/click"
)

// ClickModel is the GORM model for the promotion_clicks table.
type ClickModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PromotionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	MerchantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `gorm:"type:uuid"`
	Type        string     `gorm:"type:varchar(16);not null"`
	OccurredAt  time.Time  `gorm:"not null;index"`
}

// TableName sets the table name.
func (ClickModel) TableName() string { return "promotion_clicks" }

// GormClickRepository implements click.Repository using GORM.
type GormClickRepository struct {
	db *gorm.DB
}

// NewGormClickRepository creates a new GormClickRepository.
func NewGormClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// Append stores a click. Redelivered events with a known id are ignored.
func (r *GormClickRepository) Append(ctx context.Context, c click.Click) error {
	model := ClickModel{
		ID:          c.ID,
		PromotionID: c.PromotionID,
		MerchantID:  c.MerchantID,
		UserID:      c.UserID,
		Type:        string(c.Type),
		OccurredAt:  c.OccurredAt.UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

// CountByType aggregates a merchant's clicks since the given instant.
func (r *GormClickRepository) CountByType(ctx context.Context, merchantID uuid.UUID, since time.Time) (click.Summary, error) {
	var rows []struct {
		Type  string
		Total int64
	}
	if err := r.db.WithContext(ctx).Model(&ClickModel{}).
		Select("type, COUNT(*) AS total").
		Where("merchant_id = ? AND occurred_at >= ?", merchantID, since.UTC()).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := click.Summary{click.TypeView: 0, click.TypeRedeem: 0, click.TypeShare: 0}
	for _, row := range rows {
		summary[click.Type(row.Type)] = row.Total
	}
	return summary, nil
}
