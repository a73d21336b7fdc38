package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicPromotionEvents = "promotion.events"
	TopicPromotionClicks = "promotion.clicks"
)

// Event types.
const (
	PromotionCreated          = "promotion.created"
	PromotionLifecycleChanged = "promotion.lifecycle_changed"
	PromotionClicked          = "promotion.clicked"
	MerchantOnboarded         = "merchant.onboarded"
	MerchantDeleted           = "merchant.deleted"
)

// Source identifies this service in CloudEvents.
const Source = "service-promotion"

// PromotionCreatedEvent is published after a promotion is stored.
type PromotionCreatedEvent struct {
	PromotionID    uuid.UUID `json:"promotion_id"`
	MerchantID     uuid.UUID `json:"merchant_id"`
	LifecycleState string    `json:"lifecycle_state"`
	CreatedBy      uuid.UUID `json:"created_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PromotionLifecycleChangedEvent is published when an admin moves a promotion.
type PromotionLifecycleChangedEvent struct {
	PromotionID uuid.UUID `json:"promotion_id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ChangedBy   uuid.UUID `json:"changed_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PromotionClickedEvent carries one interaction from the API to the click consumer.
type PromotionClickedEvent struct {
	ClickID     uuid.UUID  `json:"click_id"`
	PromotionID uuid.UUID  `json:"promotion_id"`
	MerchantID  uuid.UUID  `json:"merchant_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Type        string     `json:"type"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// MerchantOnboardedEvent is published when a user becomes a merchant.
type MerchantOnboardedEvent struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MerchantDeletedEvent is published after a merchant and its promotions are removed.
type MerchantDeletedEvent struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	DeletedBy  uuid.UUID `json:"deleted_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
