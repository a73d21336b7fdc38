package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	promoDomain "github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// PromotionModel is the GORM model for the promotions table. It has no status
// column; status is derived on read.
type PromotionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Title          string    `gorm:"type:varchar(200);not null"`
	Description    string    `gorm:"type:text"`
	Code           string    `gorm:"type:varchar(50);index"`
	DiscountType   string    `gorm:"type:varchar(20);not null"`
	DiscountValue  int64     `gorm:"not null"`
	LifecycleState string    `gorm:"type:varchar(32);not null;index"`
	StartDate      time.Time `gorm:"not null"`
	EndDate        time.Time `gorm:"not null"`
	CreatedBy      uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PromotionModel) TableName() string { return "promotions" }

// GormPromotionRepository implements promotion.Repository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository.
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// Save persists a new promotion.
func (r *GormPromotionRepository) Save(ctx context.Context, p *promoDomain.Promotion) error {
	model := toPromotionModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update overwrites a promotion.
func (r *GormPromotionRepository) Update(ctx context.Context, p *promoDomain.Promotion) error {
	model := toPromotionModel(p)
	res := r.db.WithContext(ctx).Model(&PromotionModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
		"title":           model.Title,
		"description":     model.Description,
		"code":            model.Code,
		"discount_type":   model.DiscountType,
		"discount_value":  model.DiscountValue,
		"lifecycle_state": model.LifecycleState,
		"start_date":      model.StartDate,
		"end_date":        model.EndDate,
		"updated_at":      model.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("promotion", model.ID.String())
	}
	return nil
}

// Delete removes a promotion and its favorites.
func (r *GormPromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promotion_id = ?", id).Delete(&FavoriteModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&PromotionModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NewNotFoundError("promotion", id.String())
		}
		return nil
	})
}

// FindByID returns a promotion by ID.
func (r *GormPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*promoDomain.Promotion, error) {
	var model PromotionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("promotion", id.String())
		}
		return nil, err
	}
	return toPromotionDomain(&model), nil
}

// FindByMerchant returns every promotion of a merchant, newest first.
func (r *GormPromotionRepository) FindByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*promoDomain.Promotion, error) {
	var models []PromotionModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toPromotionDomains(models), nil
}

// FindPublic returns approved promotions whose window contains now.
func (r *GormPromotionRepository) FindPublic(ctx context.Context, now time.Time, page, limit int) ([]*promoDomain.Promotion, int64, error) {
	now = now.UTC()
	q := r.db.WithContext(ctx).Model(&PromotionModel{}).
		Where("lifecycle_state = ?", string(promoDomain.StateApproved)).
		Where("start_date <= ? AND end_date >= ?", now, now)
	return r.paginate(q, "end_date ASC", page, limit)
}

// FindByLifecycle returns promotions in state, newest first.
func (r *GormPromotionRepository) FindByLifecycle(ctx context.Context, state promoDomain.LifecycleState, page, limit int) ([]*promoDomain.Promotion, int64, error) {
	q := r.db.WithContext(ctx).Model(&PromotionModel{}).Where("lifecycle_state = ?", string(state))
	return r.paginate(q, "created_at DESC", page, limit)
}

func (r *GormPromotionRepository) paginate(q *gorm.DB, order string, page, limit int) ([]*promoDomain.Promotion, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []PromotionModel
	if err := q.Order(order).Scopes(Paginate(page, limit)).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return toPromotionDomains(models), total, nil
}

func toPromotionModel(p *promoDomain.Promotion) PromotionModel {
	return PromotionModel{
		ID:             p.ID(),
		MerchantID:     p.MerchantID(),
		Title:          p.Title(),
		Description:    p.Description(),
		Code:           p.Code(),
		DiscountType:   string(p.DiscountType()),
		DiscountValue:  p.DiscountValue(),
		LifecycleState: string(p.LifecycleState()),
		StartDate:      p.StartDate().UTC(),
		EndDate:        p.EndDate().UTC(),
		CreatedBy:      p.CreatedBy(),
		CreatedAt:      p.CreatedAt().UTC(),
		UpdatedAt:      p.UpdatedAt().UTC(),
	}
}

func toPromotionDomain(m *PromotionModel) *promoDomain.Promotion {
	return promoDomain.Reconstruct(
		m.ID, m.MerchantID,
		m.Title, m.Description, m.Code,
		promoDomain.DiscountType(m.DiscountType), m.DiscountValue,
		promoDomain.LifecycleState(m.LifecycleState),
		m.StartDate.UTC(), m.EndDate.UTC(),
		m.CreatedBy,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
}

func toPromotionDomains(models []PromotionModel) []*promoDomain.Promotion {
	out := make([]*promoDomain.Promotion, len(models))
	for i := range models {
		out[i] = toPromotionDomain(&models[i])
	}
	return out
}
