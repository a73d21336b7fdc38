package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	userDomain "github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Name         string     `gorm:"type:varchar(200)"`
	Role         string     `gorm:"type:varchar(20);not null;default:'user'"`
	MerchantID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (UserModel) TableName() string { return "users" }

// GormUserRepository implements user.Repository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save persists a new user. A taken email is a conflict.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("email already registered")
		}
		return err
	}
	return nil
}

// Update writes role, merchant link and profile together.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
		"name":        model.Name,
		"role":        model.Role,
		"merchant_id": model.MerchantID,
		"updated_at":  model.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("user", model.ID.String())
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	return r.findOne(ctx, "user", id.String(), "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	return r.findOne(ctx, "user", email, "email = ?", email)
}

func (r *GormUserRepository) List(ctx context.Context, page, limit int) ([]*userDomain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []UserModel
	if err := q.Order("created_at DESC").Scopes(Paginate(page, limit)).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*userDomain.User, len(models))
	for i := range models {
		out[i] = toUserDomain(&models[i])
	}
	return out, total, nil
}

func (r *GormUserRepository) findOne(ctx context.Context, entity, key string, query string, args ...interface{}) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(entity, key)
		}
		return nil, err
	}
	return toUserDomain(&model), nil
}

func toUserModel(u *userDomain.User) UserModel {
	return UserModel{
		ID:           u.ID(),
		Email:        u.Email(),
		PasswordHash: u.PasswordHash(),
		Name:         u.Name(),
		Role:         string(u.Role()),
		MerchantID:   u.MerchantID(),
		CreatedAt:    u.CreatedAt().UTC(),
		UpdatedAt:    u.UpdatedAt().UTC(),
	}
}

func toUserDomain(m *UserModel) *userDomain.User {
	return userDomain.Reconstruct(
		m.ID, m.Email, m.PasswordHash, m.Name,
		auth.Role(m.Role), m.MerchantID,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
}
