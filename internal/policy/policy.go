package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
)

// Name identifies a policy.
type Name string

const (
	RequireAuthenticated         Name = "RequireAuthenticated"
	OptionalAuthenticate         Name = "OptionalAuthenticate"
	RequireAdmin                 Name = "RequireAdmin"
	RequireSelfOrAdmin           Name = "RequireSelfOrAdmin"
	RequireMerchantSelfOrAdmin   Name = "RequireMerchantSelfOrAdmin"
	RequirePromotionOwnerOrAdmin Name = "RequirePromotionOwnerOrAdmin"
)

// Input is what a policy is evaluated against.
type Input struct {
	Identity   auth.Identity
	ResourceID uuid.UUID
}

// Clause is one alternative inside a policy. A clause that cannot decide
// returns a Forbidden deny so that the next clause is tried.
type Clause func(ctx context.Context, in Input) Decision

// Policy is a named short-circuit OR over clauses.
type Policy struct {
	name            Name
	requireIdentity bool
	clauses         []Clause
	deny            Decision
}

// AnyOf builds a policy that allows as soon as one clause allows. A clause
// deny other than Forbidden ends evaluation immediately. When every clause
// declines, the policy returns deny.
func AnyOf(name Name, deny Decision, clauses ...Clause) Policy {
	return Policy{name: name, requireIdentity: true, clauses: clauses, deny: deny}
}

// Name returns the policy name.
func (p Policy) Name() Name { return p.name }

// Evaluate runs the policy.
func (p Policy) Evaluate(ctx context.Context, in Input) Decision {
	if p.requireIdentity && in.Identity.IsAnonymous() {
		return Deny(ReasonUnauthenticated, "authentication required")
	}
	for _, clause := range p.clauses {
		d := clause(ctx, in)
		if d.Allowed {
			return d
		}
		if d.Reason != ReasonForbidden {
			return d
		}
	}
	return p.deny
}

var declined = Deny(ReasonForbidden, "")

// IsAdmin allows administrators.
func IsAdmin(_ context.Context, in Input) Decision {
	if in.Identity.IsAdmin() {
		return Allow()
	}
	return declined
}

// IsSelf allows a caller acting on their own user record.
func IsSelf(_ context.Context, in Input) Decision {
	if in.ResourceID != uuid.Nil && in.Identity.SubjectID == in.ResourceID {
		return Allow()
	}
	return declined
}

// IsMerchantSelf allows a merchant acting on their own merchant record.
func IsMerchantSelf(_ context.Context, in Input) Decision {
	if in.Identity.OwnsMerchant(in.ResourceID) {
		return Allow()
	}
	return declined
}
