package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	MerchantID string `json:"merchant_id,omitempty"`
	jwt.RegisteredClaims
}

func claimsFor(identity Identity) Claims {
	c := Claims{
		Email: identity.Email,
		Role:  string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: identity.SubjectID.String(),
			ID:      uuid.NewString(),
		},
	}
	if identity.MerchantID != nil {
		c.MerchantID = identity.MerchantID.String()
	}
	return c
}

// Identity converts decoded claims back into a validated Identity.
func (c Claims) Identity() (Identity, error) {
	subject, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, err
	}
	role, err := ParseRole(c.Role)
	if err != nil {
		return Identity{}, err
	}
	var merchantID *uuid.UUID
	if c.MerchantID != "" {
		m, err := uuid.Parse(c.MerchantID)
		if err != nil {
			return Identity{}, err
		}
		merchantID = &m
	}
	return NewIdentity(subject, c.Email, role, merchantID)
}
