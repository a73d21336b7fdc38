package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// PromotionFinder loads a promotion by id. It returns an error wrapping
// domain.ErrNotFound when the promotion does not exist.
type PromotionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error)
}

// OwnsPromotion allows the merchant that owns the promotion in Input.ResourceID.
// Callers that are not merchants are declined without touching finder.
func OwnsPromotion(finder PromotionFinder) Clause {
	return func(ctx context.Context, in Input) Decision {
		if !in.Identity.IsMerchant() {
			return declined
		}
		p, err := finder.FindByID(ctx, in.ResourceID)
		if err != nil {
			if domain.IsNotFound(err) {
				return Deny(ReasonNotFound, "promotion not found")
			}
			return Deny(ReasonServerError, "promotion lookup failed: "+err.Error())
		}
		if p.MerchantID() == *in.Identity.MerchantID {
			return Allow()
		}
		return declined
	}
}

func authenticatedPolicy() Policy {
	return Policy{name: RequireAuthenticated, requireIdentity: true, deny: Allow()}
}

func optionalPolicy() Policy {
	return Policy{name: OptionalAuthenticate, deny: Allow()}
}

func adminPolicy() Policy {
	return AnyOf(RequireAdmin, Deny(ReasonForbidden, "admin required"), IsAdmin)
}

func selfOrAdminPolicy() Policy {
	return AnyOf(RequireSelfOrAdmin, Deny(ReasonForbidden, "not resource owner"), IsAdmin, IsSelf)
}

func merchantSelfOrAdminPolicy() Policy {
	return AnyOf(RequireMerchantSelfOrAdmin, Deny(ReasonForbidden, "not merchant owner"), IsAdmin, IsMerchantSelf)
}

// IsAdmin comes first so administrators never pay for the fetch.
func promotionOwnerOrAdminPolicy(finder PromotionFinder) Policy {
	return AnyOf(RequirePromotionOwnerOrAdmin, Deny(ReasonForbidden, "not promotion owner"), IsAdmin, OwnsPromotion(finder))
}

// Defaults returns the standard policy set keyed by name.
func Defaults(finder PromotionFinder) map[Name]Policy {
	set := []Policy{
		authenticatedPolicy(),
		optionalPolicy(),
		adminPolicy(),
		selfOrAdminPolicy(),
		merchantSelfOrAdminPolicy(),
		promotionOwnerOrAdminPolicy(finder),
	}
	out := make(map[Name]Policy, len(set))
	for _, p := range set {
		out[p.name] = p
	}
	return out
}
