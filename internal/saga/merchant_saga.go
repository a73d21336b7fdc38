package saga

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// OnboardingService turns a plain user into the owner of a new merchant.
type OnboardingService struct {
	merchants merchant.Repository
	users     user.Repository
	publisher events.Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

// NewOnboardingService creates an OnboardingService.
func NewOnboardingService(
	merchants merchant.Repository,
	users user.Repository,
	publisher events.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
) *OnboardingService {
	return &OnboardingService{merchants: merchants, users: users, publisher: publisher, clock: clk, logger: logger}
}

// OnboardInput describes the merchant to create.
type OnboardInput struct {
	Name        string
	Description string
	Category    string
	Address     string
}

// Onboard creates the merchant, links ownerID to it and announces it. Any
// failure rolls back the earlier steps. The returned user carries the new role.
func (s *OnboardingService) Onboard(ctx context.Context, ownerID uuid.UUID, in OnboardInput) (*merchant.Merchant, *user.User, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	switch owner.Role() {
	case auth.RoleMerchant:
		return nil, nil, domain.NewConflictError("user already owns a merchant")
	case auth.RoleAdmin:
		return nil, nil, domain.NewForbiddenError("admins cannot own a merchant")
	}

	now := s.clock.Now()
	m, err := merchant.NewMerchant(ownerID, in.Name, in.Description, in.Category, in.Address, now)
	if err != nil {
		return nil, nil, err
	}
	prevRole, prevMerchant := owner.Role(), owner.MerchantID()

	sg := New("onboard_merchant", s.logger)
	sg.AddStep(Step{
		Name:    "save_merchant",
		Execute: func(ctx context.Context) error { return s.merchants.Save(ctx, m) },
		Compensate: func(ctx context.Context) error {
			return s.merchants.DeleteCascade(ctx, m.ID(), s.clock.Now())
		},
	})
	sg.AddStep(Step{
		Name: "link_owner",
		Execute: func(ctx context.Context) error {
			if err := owner.LinkMerchant(m.ID(), now); err != nil {
				return err
			}
			return s.users.Update(ctx, owner)
		},
		Compensate: func(ctx context.Context) error {
			if err := owner.AssignRole(prevRole, prevMerchant, s.clock.Now()); err != nil {
				return err
			}
			return s.users.Update(ctx, owner)
		},
	})
	sg.AddStep(Step{
		Name: "publish_onboarded",
		Execute: func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.TopicPromotionEvents, m.ID().String(), events.MerchantOnboarded,
				events.MerchantOnboardedEvent{
					MerchantID: m.ID(),
					OwnerID:    ownerID,
					Name:       m.Name(),
					OccurredAt: now,
				})
		},
	})

	if err := sg.Execute(ctx); err != nil {
		return nil, nil, err
	}
	return m, owner, nil
}
