package promotion

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// DiscountType represents the type of discount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Promotion is the aggregate root for merchant promotions. It stores the
// lifecycle state only; the visible status is always derived.
type Promotion struct {
	id             uuid.UUID
	merchantID     uuid.UUID
	title          string
	description    string
	code           string
	discountType   DiscountType
	discountValue  int64 // percentage (1-100) or fixed amount in cents
	lifecycleState LifecycleState
	startDate      time.Time
	endDate        time.Time
	createdBy      uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

// NewParams carries the fields needed to create a promotion.
type NewParams struct {
	MerchantID    uuid.UUID
	Title         string
	Description   string
	Code          string
	DiscountType  DiscountType
	DiscountValue int64
	StartDate     time.Time
	EndDate       time.Time
	CreatedBy     uuid.UUID
}

// NewPromotion validates params and creates a promotion in state.
func NewPromotion(params NewParams, state LifecycleState, now time.Time) (*Promotion, error) {
	if params.MerchantID == uuid.Nil {
		return nil, domain.NewValidationError("merchant_id is required")
	}
	if err := validateWindow(params.StartDate, params.EndDate); err != nil {
		return nil, err
	}
	if _, err := ParseLifecycleState(string(state)); err != nil {
		return nil, err
	}

	p := &Promotion{
		id:             uuid.New(),
		merchantID:     params.MerchantID,
		description:    strings.TrimSpace(params.Description),
		lifecycleState: state,
		startDate:      params.StartDate.UTC(),
		endDate:        params.EndDate.UTC(),
		createdBy:      params.CreatedBy,
		createdAt:      now,
		updatedAt:      now,
	}
	if err := p.setTitle(params.Title); err != nil {
		return nil, err
	}
	p.code = normalizeCode(params.Code)
	if err := p.setDiscount(params.DiscountType, params.DiscountValue); err != nil {
		return nil, err
	}
	return p, nil
}

// Reconstruct rebuilds a Promotion from persistence.
func Reconstruct(
	id, merchantID uuid.UUID,
	title, description, code string,
	discountType DiscountType,
	discountValue int64,
	state LifecycleState,
	startDate, endDate time.Time,
	createdBy uuid.UUID,
	createdAt, updatedAt time.Time,
) *Promotion {
	return &Promotion{
		id: id, merchantID: merchantID,
		title: title, description: description, code: code,
		discountType: discountType, discountValue: discountValue,
		lifecycleState: state,
		startDate:      startDate, endDate: endDate,
		createdBy: createdBy, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Getters.
func (p *Promotion) ID() uuid.UUID                  { return p.id }
func (p *Promotion) MerchantID() uuid.UUID          { return p.merchantID }
func (p *Promotion) Title() string                  { return p.title }
func (p *Promotion) Description() string            { return p.description }
func (p *Promotion) Code() string                   { return p.code }
func (p *Promotion) DiscountType() DiscountType     { return p.discountType }
func (p *Promotion) DiscountValue() int64           { return p.discountValue }
func (p *Promotion) LifecycleState() LifecycleState { return p.lifecycleState }
func (p *Promotion) StartDate() time.Time           { return p.startDate }
func (p *Promotion) EndDate() time.Time             { return p.endDate }
func (p *Promotion) CreatedBy() uuid.UUID           { return p.createdBy }
func (p *Promotion) CreatedAt() time.Time           { return p.createdAt }
func (p *Promotion) UpdatedAt() time.Time           { return p.updatedAt }

// Status derives the visible status at now.
func (p *Promotion) Status(now time.Time) Status {
	return DeriveStatus(p.lifecycleState, p.startDate, p.endDate, now)
}

// IsPubliclyVisible reports whether anonymous callers may see the promotion at now.
func (p *Promotion) IsPubliclyVisible(now time.Time) bool {
	return p.Status(now) == StatusActive
}

// OwnedBy reports whether identity is the merchant that owns the promotion.
func (p *Promotion) OwnedBy(identity auth.Identity) bool {
	return identity.OwnsMerchant(p.merchantID)
}

// Revision lists optional edits to the non-lifecycle fields. Nil fields are left unchanged.
type Revision struct {
	Title         *string
	Description   *string
	Code          *string
	DiscountType  *DiscountType
	DiscountValue *int64
	StartDate     *time.Time
	EndDate       *time.Time
}

// Revise applies rev. The date window is checked before any field changes, so
// a rejected revision leaves the promotion untouched.
func (p *Promotion) Revise(rev Revision, now time.Time) error {
	start, end := p.startDate, p.endDate
	if rev.StartDate != nil {
		start = rev.StartDate.UTC()
	}
	if rev.EndDate != nil {
		end = rev.EndDate.UTC()
	}
	if err := validateWindow(start, end); err != nil {
		return err
	}

	next := *p
	next.startDate, next.endDate = start, end
	if rev.Title != nil {
		if err := next.setTitle(*rev.Title); err != nil {
			return err
		}
	}
	if rev.Description != nil {
		next.description = strings.TrimSpace(*rev.Description)
	}
	if rev.Code != nil {
		next.code = normalizeCode(*rev.Code)
	}
	if rev.DiscountType != nil || rev.DiscountValue != nil {
		dt, dv := next.discountType, next.discountValue
		if rev.DiscountType != nil {
			dt = *rev.DiscountType
		}
		if rev.DiscountValue != nil {
			dv = *rev.DiscountValue
		}
		if err := next.setDiscount(dt, dv); err != nil {
			return err
		}
	}
	next.updatedAt = now
	*p = next
	return nil
}

// TransitionTo moves the promotion to state. Moving to the current state is a no-op.
// Role checks belong to the caller.
func (p *Promotion) TransitionTo(state LifecycleState, now time.Time) error {
	if _, err := ParseLifecycleState(string(state)); err != nil {
		return err
	}
	if state == p.lifecycleState {
		return nil
	}
	p.lifecycleState = state
	p.updatedAt = now
	return nil
}

// InitialLifecycle picks the lifecycle state a new promotion starts in for a
// creator with role. Merchants always start in pending_approval; admins get
// the requested state or approved.
func InitialLifecycle(role auth.Role, requested *LifecycleState) (LifecycleState, error) {
	switch role {
	case auth.RoleAdmin:
		if requested == nil {
			return StateApproved, nil
		}
		return ParseLifecycleState(string(*requested))
	case auth.RoleMerchant:
		if requested != nil && *requested != StatePendingApproval {
			return "", domain.NewForbiddenError("only admins can set lifecycle state")
		}
		return StatePendingApproval, nil
	default:
		return "", domain.NewForbiddenError("only merchants and admins can create promotions")
	}
}

func (p *Promotion) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewValidationError("title is required")
	}
	if len(title) > 200 {
		return domain.NewValidationError("title must be at most 200 characters")
	}
	p.title = title
	return nil
}

func (p *Promotion) setDiscount(dt DiscountType, value int64) error {
	if dt != DiscountTypePercentage && dt != DiscountTypeFixed {
		return domain.NewValidationError("invalid discount type: %s", dt)
	}
	if value <= 0 {
		return domain.NewValidationError("discount value must be positive")
	}
	if dt == DiscountTypePercentage && value > 100 {
		return domain.NewValidationError("percentage discount cannot exceed 100")
	}
	p.discountType, p.discountValue = dt, value
	return nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.NewValidationError("start_date and end_date are required")
	}
	if end.Before(start) {
		return domain.NewValidationError("end_date must not be before start_date")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
