package promotion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for promotions.
type Repository interface {
	Save(ctx context.Context, p *Promotion) error
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Promotion, error)
	FindByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*Promotion, error)
	// FindPublic returns approved promotions whose window contains now.
	FindPublic(ctx context.Context, now time.Time, page, limit int) ([]*Promotion, int64, error)
	FindByLifecycle(ctx context.Context, state LifecycleState, page, limit int) ([]*Promotion, int64, error)
}
