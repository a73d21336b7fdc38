package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	merchantDomain "github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// MerchantModel is the GORM model for the merchants table.
type MerchantModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"type:varchar(100)"`
	Address     string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(32);not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (MerchantModel) TableName() string { return "merchants" }

// GormMerchantRepository implements merchant.Repository using GORM.
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository.
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

func (r *GormMerchantRepository) Save(ctx context.Context, m *merchantDomain.Merchant) error {
	model := toMerchantModel(m)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormMerchantRepository) Update(ctx context.Context, m *merchantDomain.Merchant) error {
	model := toMerchantModel(m)
	res := r.db.WithContext(ctx).Model(&MerchantModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
		"name":        model.Name,
		"description": model.Description,
		"category":    model.Category,
		"address":     model.Address,
		"status":      model.Status,
		"updated_at":  model.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("merchant", model.ID.String())
	}
	return nil
}

func (r *GormMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*merchantDomain.Merchant, error) {
	var model MerchantModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("merchant", id.String())
		}
		return nil, err
	}
	return toMerchantDomain(&model), nil
}

func (r *GormMerchantRepository) List(ctx context.Context, page, limit int) ([]*merchantDomain.Merchant, int64, error) {
	q := r.db.WithContext(ctx).Model(&MerchantModel{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []MerchantModel
	if err := q.Order("created_at DESC").Scopes(Paginate(page, limit)).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*merchantDomain.Merchant, len(models))
	for i := range models {
		out[i] = toMerchantDomain(&models[i])
	}
	return out, total, nil
}

// DeleteCascade removes the merchant with its promotions, their favorites and
// clicks, and demotes linked users, in one transaction. Demoted users are
// stamped with now.
func (r *GormMerchantRepository) DeleteCascade(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MerchantModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.NewNotFoundError("merchant", id.String())
		}

		promotionIDs := tx.Model(&PromotionModel{}).Select("id").Where("merchant_id = ?", id)
		if err := tx.Where("promotion_id IN (?)", promotionIDs).Delete(&FavoriteModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("merchant_id = ?", id).Delete(&ClickModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("merchant_id = ?", id).Delete(&PromotionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&UserModel{}).Where("merchant_id = ?", id).Updates(map[string]interface{}{
			"role":        string(auth.RoleUser),
			"merchant_id": nil,
			"updated_at":  now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&MerchantModel{}).Error
	})
}

func toMerchantModel(m *merchantDomain.Merchant) MerchantModel {
	return MerchantModel{
		ID:          m.ID(),
		OwnerID:     m.OwnerID(),
		Name:        m.Name(),
		Description: m.Description(),
		Category:    m.Category(),
		Address:     m.Address(),
		Status:      string(m.Status()),
		CreatedAt:   m.CreatedAt().UTC(),
		UpdatedAt:   m.UpdatedAt().UTC(),
	}
}

func toMerchantDomain(m *MerchantModel) *merchantDomain.Merchant {
	return merchantDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Description, m.Category, m.Address,
		merchantDomain.Status(m.Status),
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
}
