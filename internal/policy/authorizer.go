package policy

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string, kind auth.KeyKind) (auth.Identity, error)
}

// Authorizer authenticates requests and evaluates named policies.
type Authorizer struct {
	tokens    TokenVerifier
	policies  map[Name]Policy
	decisions *prometheus.CounterVec
	logger    *zap.Logger
}

// NewAuthorizer creates an Authorizer with the default policy set. reg may be
// nil, in which case decisions are counted but not exported.
func NewAuthorizer(tokens TokenVerifier, finder PromotionFinder, reg prometheus.Registerer, logger *zap.Logger) *Authorizer {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promotion",
		Name:      "authz_decisions_total",
		Help:      "Authorization decisions by policy and outcome.",
	}, []string{"policy", "outcome"})
	if reg != nil {
		reg.MustRegister(decisions)
	}
	return &Authorizer{
		tokens:    tokens,
		policies:  Defaults(finder),
		decisions: decisions,
		logger:    logger,
	}
}

// Authenticate resolves the Authorization header to an identity. Any missing,
// malformed, expired or forged access token is Unauthenticated.
func (a *Authorizer) Authenticate(header string) (auth.Identity, error) {
	token, err := auth.ExtractBearer(header)
	if err != nil {
		a.record(RequireAuthenticated, Deny(ReasonUnauthenticated, err.Error()))
		return auth.Anonymous, err
	}
	identity, err := a.tokens.Verify(token, auth.AccessKey)
	if err != nil {
		a.record(RequireAuthenticated, Deny(ReasonUnauthenticated, err.Error()))
		return auth.Anonymous, domain.NewUnauthenticatedError("invalid or expired access token")
	}
	a.record(RequireAuthenticated, Allow())
	return identity, nil
}

// AuthenticateOptional resolves the header when it carries a valid access
// token and falls back to the anonymous identity otherwise.
func (a *Authorizer) AuthenticateOptional(header string) auth.Identity {
	if header == "" {
		a.record(OptionalAuthenticate, Allow())
		return auth.Anonymous
	}
	identity := auth.Anonymous
	if token, err := auth.ExtractBearer(header); err == nil {
		if id, err := a.tokens.Verify(token, auth.AccessKey); err == nil {
			identity = id
		}
	}
	a.record(OptionalAuthenticate, Allow())
	return identity
}

// Authorize evaluates the named policy for identity against resourceID.
func (a *Authorizer) Authorize(ctx context.Context, name Name, identity auth.Identity, resourceID uuid.UUID) Decision {
	p, ok := a.policies[name]
	if !ok {
		d := Deny(ReasonServerError, "unknown policy "+string(name))
		a.record(name, d)
		return d
	}
	d := p.Evaluate(ctx, Input{Identity: identity, ResourceID: resourceID})
	a.record(name, d)
	return d
}

func (a *Authorizer) record(name Name, d Decision) {
	a.decisions.WithLabelValues(string(name), d.Outcome()).Inc()
	if !d.Allowed && a.logger != nil {
		a.logger.Debug("authorization denied",
			zap.String("policy", string(name)),
			zap.String("reason", d.Reason.String()),
			zap.String("message", d.Message),
		)
	}
}
