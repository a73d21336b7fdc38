package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// Role is the coarse access level carried by every identity.
type Role string

const (
	RoleUser     Role = "user"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleMerchant, RoleAdmin:
		return r, nil
	default:
		return "", domain.NewValidationError("unknown role %q", s)
	}
}

// Identity is the authenticated caller as established by a verified access token.
type Identity struct {
	SubjectID  uuid.UUID
	Email      string
	Role       Role
	MerchantID *uuid.UUID
}

// Anonymous is the identity of a caller without a valid token.
var Anonymous = Identity{}

// NewIdentity builds an Identity, enforcing that a merchant id is present
// exactly when the role is merchant.
func NewIdentity(subjectID uuid.UUID, email string, role Role, merchantID *uuid.UUID) (Identity, error) {
	if subjectID == uuid.Nil {
		return Identity{}, domain.NewValidationError("identity subject is required")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Identity{}, err
	}
	if role == RoleMerchant && (merchantID == nil || *merchantID == uuid.Nil) {
		return Identity{}, domain.NewValidationError("merchant identity requires a merchant id")
	}
	if role != RoleMerchant && merchantID != nil {
		return Identity{}, domain.NewValidationError("%s identity cannot carry a merchant id", role)
	}

	id := Identity{SubjectID: subjectID, Email: email, Role: role}
	if merchantID != nil {
		m := *merchantID
		id.MerchantID = &m
	}
	return id, nil
}

// IsAnonymous reports whether no caller was authenticated.
func (i Identity) IsAnonymous() bool { return i.SubjectID == uuid.Nil }

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsMerchant reports whether the caller holds the merchant role.
func (i Identity) IsMerchant() bool { return i.Role == RoleMerchant && i.MerchantID != nil }

// OwnsMerchant reports whether the caller is the merchant identified by merchantID.
func (i Identity) OwnsMerchant(merchantID uuid.UUID) bool {
	return i.IsMerchant() && *i.MerchantID == merchantID
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	if i.MerchantID != nil {
		return fmt.Sprintf("%s(%s, merchant %s)", i.Role, i.SubjectID, *i.MerchantID)
	}
	return fmt.Sprintf("%s(%s)", i.Role, i.SubjectID)
}
