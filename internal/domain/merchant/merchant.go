package merchant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// Status is the moderation status of a merchant.
type Status string

const (
	StatusActive          Status = "active"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusSuspended       Status = "suspended"
	StatusNeedsReview     Status = "needs_review"
)

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusPendingApproval, StatusApproved, StatusRejected, StatusSuspended, StatusNeedsReview:
		return st, nil
	default:
		return "", domain.NewValidationError("unknown merchant status %q", s)
	}
}

// Merchant is the aggregate root for businesses that publish promotions.
type Merchant struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	description string
	category    string
	address     string
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

// NewMerchant creates a merchant awaiting approval.
func NewMerchant(ownerID uuid.UUID, name, description, category, address string, now time.Time) (*Merchant, error) {
	m := &Merchant{
		id:          uuid.New(),
		ownerID:     ownerID,
		description: strings.TrimSpace(description),
		category:    strings.TrimSpace(category),
		address:     strings.TrimSpace(address),
		status:      StatusPendingApproval,
		createdAt:   now,
		updatedAt:   now,
	}
	if err := m.Rename(name, now); err != nil {
		return nil, err
	}
	return m, nil
}

// Reconstruct rebuilds a Merchant from persistence.
func Reconstruct(id, ownerID uuid.UUID, name, description, category, address string, status Status, createdAt, updatedAt time.Time) *Merchant {
	return &Merchant{
		id: id, ownerID: ownerID, name: name, description: description,
		category: category, address: address, status: status,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (m *Merchant) ID() uuid.UUID        { return m.id }
func (m *Merchant) OwnerID() uuid.UUID   { return m.ownerID }
func (m *Merchant) Name() string         { return m.name }
func (m *Merchant) Description() string  { return m.description }
func (m *Merchant) Category() string     { return m.category }
func (m *Merchant) Address() string      { return m.address }
func (m *Merchant) Status() Status       { return m.status }
func (m *Merchant) CreatedAt() time.Time { return m.createdAt }
func (m *Merchant) UpdatedAt() time.Time { return m.updatedAt }

// Rename changes the display name.
func (m *Merchant) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("merchant name is required")
	}
	m.name = name
	m.updatedAt = now
	return nil
}

// UpdateProfile replaces the descriptive fields. Empty values are kept as is.
func (m *Merchant) UpdateProfile(description, category, address string, now time.Time) {
	if v := strings.TrimSpace(description); v != "" {
		m.description = v
	}
	if v := strings.TrimSpace(category); v != "" {
		m.category = v
	}
	if v := strings.TrimSpace(address); v != "" {
		m.address = v
	}
	m.updatedAt = now
}

// ChangeStatus moves the merchant to status.
func (m *Merchant) ChangeStatus(status Status, now time.Time) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if status == m.status {
		return nil
	}
	m.status = status
	m.updatedAt = now
	return nil
}

// Repository defines persistence operations for merchants.
type Repository interface {
	Save(ctx context.Context, m *Merchant) error
	Update(ctx context.Context, m *Merchant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Merchant, error)
	List(ctx context.Context, page, limit int) ([]*Merchant, int64, error)
	// DeleteCascade removes the merchant, its promotions and their favorites,
	// and demotes every linked user to the user role as of now, atomically.
	DeleteCascade(ctx context.Context, id uuid.UUID, now time.Time) error
}
