package favorite

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Favorite marks a promotion saved by a user.
type Favorite struct {
	UserID      uuid.UUID
	PromotionID uuid.UUID
	CreatedAt   time.Time
}

// Repository defines persistence operations for favorites.
type Repository interface {
	// Add is idempotent.
	Add(ctx context.Context, f Favorite) error
	Remove(ctx context.Context, userID, promotionID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error)
}
