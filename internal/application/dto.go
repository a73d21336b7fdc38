package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// PromotionDTO is the API representation of a promotion. Status is derived
// at the time the DTO is built.
type PromotionDTO struct {
	ID             uuid.UUID `json:"id"`
	MerchantID     uuid.UUID `json:"merchant_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Code           string    `json:"code,omitempty"`
	DiscountType   string    `json:"discount_type"`
	DiscountValue  int64     `json:"discount_value"`
	LifecycleState string    `json:"lifecycle_state"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPromotionDTO(p *promotion.Promotion, now time.Time) PromotionDTO {
	return PromotionDTO{
		ID:             p.ID(),
		MerchantID:     p.MerchantID(),
		Title:          p.Title(),
		Description:    p.Description(),
		Code:           p.Code(),
		DiscountType:   string(p.DiscountType()),
		DiscountValue:  p.DiscountValue(),
		LifecycleState: string(p.LifecycleState()),
		Status:         string(p.Status(now)),
		StartDate:      p.StartDate(),
		EndDate:        p.EndDate(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func toPromotionDTOs(ps []*promotion.Promotion, now time.Time) []PromotionDTO {
	out := make([]PromotionDTO, len(ps))
	for i, p := range ps {
		out[i] = toPromotionDTO(p, now)
	}
	return out
}

// MerchantDTO is the API representation of a merchant.
type MerchantDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Address     string    `json:"address,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMerchantDTO(m *merchant.Merchant) MerchantDTO {
	return MerchantDTO{
		ID:          m.ID(),
		OwnerID:     m.OwnerID(),
		Name:        m.Name(),
		Description: m.Description(),
		Category:    m.Category(),
		Address:     m.Address(),
		Status:      string(m.Status()),
		CreatedAt:   m.CreatedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
}

// UserDTO is the API representation of a user. The password hash never leaves the service.
type UserDTO struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name,omitempty"`
	Role       string     `json:"role"`
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:         u.ID(),
		Email:      u.Email(),
		Name:       u.Name(),
		Role:       string(u.Role()),
		MerchantID: u.MerchantID(),
		CreatedAt:  u.CreatedAt(),
	}
}

// AuthResponse is returned by register, login and merchant onboarding.
type AuthResponse struct {
	User   UserDTO        `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// dateLayouts are accepted for promotion windows, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewValidationError("invalid %s format (use RFC3339 or YYYY-MM-DD)", field)
}

func parseOptionalUUID(field string, value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, domain.NewValidationError("invalid %s", field)
	}
	return &id, nil
}
