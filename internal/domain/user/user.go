package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// User is the aggregate root for accounts. Role and merchant link always
// change together through AssignRole.
type User struct {
	id           uuid.UUID
	email        string
	passwordHash string
	name         string
	role         auth.Role
	merchantID   *uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a user with the user role.
func NewUser(email, passwordHash, name string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("invalid email %q", email)
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}
	return &User{
		id:           uuid.New(),
		email:        email,
		passwordHash: passwordHash,
		name:         strings.TrimSpace(name),
		role:         auth.RoleUser,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persistence.
func Reconstruct(id uuid.UUID, email, passwordHash, name string, role auth.Role, merchantID *uuid.UUID, createdAt, updatedAt time.Time) *User {
	return &User{
		id: id, email: email, passwordHash: passwordHash, name: name,
		role: role, merchantID: merchantID, createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (u *User) ID() uuid.UUID          { return u.id }
func (u *User) Email() string          { return u.email }
func (u *User) PasswordHash() string   { return u.passwordHash }
func (u *User) Name() string           { return u.name }
func (u *User) Role() auth.Role        { return u.role }
func (u *User) MerchantID() *uuid.UUID { return u.merchantID }
func (u *User) CreatedAt() time.Time   { return u.createdAt }
func (u *User) UpdatedAt() time.Time   { return u.updatedAt }

// Rename updates the display name.
func (u *User) Rename(name string, now time.Time) {
	u.name = strings.TrimSpace(name)
	u.updatedAt = now
}

// AssignRole sets the role and merchant link together. The merchant role
// requires merchantID; every other role requires it to be nil.
func (u *User) AssignRole(role auth.Role, merchantID *uuid.UUID, now time.Time) error {
	if _, err := auth.ParseRole(string(role)); err != nil {
		return err
	}
	if role == auth.RoleMerchant && (merchantID == nil || *merchantID == uuid.Nil) {
		return domain.NewValidationError("merchant role requires a merchant id")
	}
	if role != auth.RoleMerchant && merchantID != nil {
		return domain.NewValidationError("only merchants can be linked to a merchant")
	}

	u.role = role
	u.merchantID = nil
	if merchantID != nil {
		m := *merchantID
		u.merchantID = &m
	}
	u.updatedAt = now
	return nil
}

// LinkMerchant promotes the user to merchant of merchantID.
func (u *User) LinkMerchant(merchantID uuid.UUID, now time.Time) error {
	return u.AssignRole(auth.RoleMerchant, &merchantID, now)
}

// UnlinkMerchant demotes a merchant back to the user role.
func (u *User) UnlinkMerchant(now time.Time) error {
	return u.AssignRole(auth.RoleUser, nil, now)
}

// Identity returns the identity to embed in issued tokens.
func (u *User) Identity() (auth.Identity, error) {
	return auth.NewIdentity(u.id, u.email, u.role, u.merchantID)
}

// Repository defines persistence operations for users.
type Repository interface {
	Save(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]*User, int64, error)
}
