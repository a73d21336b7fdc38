package click

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// Type is the kind of interaction recorded.
type Type string

const (
	TypeView   Type = "view"
	TypeRedeem Type = "redeem"
	TypeShare  Type = "share"
)

// ParseType validates s.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeView, TypeRedeem, TypeShare:
		return t, nil
	default:
		return "", domain.NewValidationError("unknown click type %q", s)
	}
}

// Click is an immutable interaction with a promotion.
type Click struct {
	ID          uuid.UUID  `json:"id"`
	PromotionID uuid.UUID  `json:"promotion_id"`
	MerchantID  uuid.UUID  `json:"merchant_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Type        Type       `json:"type"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// Summary counts clicks per type.
type Summary map[Type]int64

// Repository appends and aggregates clicks.
type Repository interface {
	Append(ctx context.Context, c Click) error
	CountByType(ctx context.Context, merchantID uuid.UUID, since time.Time) (Summary, error)
}
