package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/user"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/repository/repotest"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/saga"
)

type published struct {
	topic     string
	eventType string
	data      interface{}
}

type stubPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *stubPublisher) Publish(_ context.Context, topic, _, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, eventType: eventType, data: data})
	return nil
}

func (p *stubPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type stubNotifier struct {
	decisions []string
	statuses  []string
}

func (n *stubNotifier) NotifyPromotionDecision(_ context.Context, _, _ uuid.UUID, state string) error {
	n.decisions = append(n.decisions, state)
	return nil
}

func (n *stubNotifier) NotifyMerchantStatus(_ context.Context, _ uuid.UUID, status string) error {
	n.statuses = append(n.statuses, status)
	return nil
}

var (
	jan01 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan10 = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	clk       *clock.Fixed
	pub       *stubPublisher
	notes     *stubNotifier
	users     *repository.GormUserRepository
	merchants *repository.GormMerchantRepository
	store     *auth.MemoryRefreshTokenStore
	tokens    *auth.TokenService

	auth       *AuthService
	promotions *PromotionService
	merchant   *MerchantService
	user       *UserService
	favorites  *FavoriteService
	analytics  *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	logger := zap.NewNop()

	f := &fixture{
		clk:       clock.NewFixed(jan10),
		pub:       &stubPublisher{},
		notes:     &stubNotifier{},
		users:     repository.NewGormUserRepository(db),
		merchants: repository.NewGormMerchantRepository(db),
	}
	f.store = auth.NewMemoryRefreshTokenStore(f.clk)
	tokens, err := auth.NewTokenService(auth.TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"}, f.store, f.clk)
	require.NoError(t, err)
	f.tokens = tokens

	promos := repository.NewGormPromotionRepository(db)
	onboarding := saga.NewOnboardingService(f.merchants, f.users, f.pub, f.clk, logger)

	f.auth = NewAuthService(f.users, tokens, f.clk, logger)
	f.promotions = NewPromotionService(promos, f.merchants, f.pub, f.notes, f.clk, logger)
	f.merchant = NewMerchantService(f.merchants, onboarding, tokens, f.pub, f.notes, f.clk, logger)
	f.user = NewUserService(f.users, f.merchants, f.clk, logger)
	f.favorites = NewFavoriteService(repository.NewGormFavoriteRepository(db), promos, f.clk, logger)
	f.analytics = NewAnalyticsService(repository.NewGormClickRepository(db), promos, f.pub, f.clk, logger)
	return f
}

func (f *fixture) seedUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser(uuid.NewString()[:8]+"@example.com", "hash", "Someone", jan01)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}

// merchantIdentity onboards a fresh user and returns the identity carried by
// the tokens issued on onboarding.
func (f *fixture) merchantIdentity(t *testing.T) auth.Identity {
	t.Helper()
	u := f.seedUser(t)
	caller, err := u.Identity()
	require.NoError(t, err)

	resp, err := f.merchant.Onboard(context.Background(), caller, OnboardMerchantRequest{Name: "Kopi Kita"})
	require.NoError(t, err)

	identity, err := f.tokens.Verify(resp.Tokens.AccessToken, auth.AccessKey)
	require.NoError(t, err)
	require.True(t, identity.IsMerchant())
	return identity
}

func adminIdentity(t *testing.T) auth.Identity {
	t.Helper()
	id, err := auth.NewIdentity(uuid.New(), "admin@example.com", auth.RoleAdmin, nil)
	require.NoError(t, err)
	return id
}

func januaryPromotion() CreatePromotionRequest {
	return CreatePromotionRequest{
		Title:         "New Year Brew",
		Code:          "brew10",
		DiscountType:  "percentage",
		DiscountValue: 10,
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-31T00:00:00Z",
	}
}

func strPtr(s string) *string { return &s }

func TestAuthService_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, RegisterRequest{Email: "Ana@Example.com", Password: "s3cretpass", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", reg.User.Email)
	assert.Equal(t, string(auth.RoleUser), reg.User.Role)

	_, err = f.auth.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.auth.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	login, err := f.auth.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	require.NoError(t, err)
	identity, err := f.tokens.Verify(refreshed.AccessToken, auth.AccessKey)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.SubjectID)

	require.NoError(t, f.auth.Logout(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken}))
	_, err = f.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// TestAuthService_RefreshUsesCurrentRole checks that a refresh token issued
// while the user was a merchant mints a plain user token once the merchant is
// deleted.
func TestAuthService_RefreshUsesCurrentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller, err := f.seedUser(t).Identity()
	require.NoError(t, err)

	onboarded, err := f.merchant.Onboard(ctx, caller, OnboardMerchantRequest{Name: "Kopi Kita"})
	require.NoError(t, err)
	require.NoError(t, f.merchant.Delete(ctx, adminIdentity(t), onboarded.Merchant.ID))

	refreshed, err := f.auth.Refresh(ctx, RefreshRequest{RefreshToken: onboarded.Tokens.RefreshToken})
	require.NoError(t, err)
	identity, err := f.tokens.Verify(refreshed.AccessToken, auth.AccessKey)
	require.NoError(t, err)
	assert.Equal(t, caller.SubjectID, identity.SubjectID)
	assert.Equal(t, auth.RoleUser, identity.Role)
	assert.Nil(t, identity.MerchantID)
}

func TestAuthService_RefreshRejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghost, err := auth.NewIdentity(uuid.New(), "ghost@example.com", auth.RoleUser, nil)
	require.NoError(t, err)

	pair, err := f.tokens.IssuePair(ctx, ghost)
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// TestPromotionService_ApprovalFlow walks a merchant promotion from creation
// through admin approval and checks who can see it at each step.
func TestPromotionService_ApprovalFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	admin := adminIdentity(t)

	created, err := f.promotions.Create(ctx, owner, januaryPromotion())
	require.NoError(t, err)
	assert.Equal(t, "pending_approval", created.LifecycleState)
	assert.Equal(t, "pending_approval", created.Status)
	assert.Equal(t, "BREW10", created.Code)
	assert.Equal(t, *owner.MerchantID, created.MerchantID)

	_, err = f.promotions.Get(ctx, auth.Anonymous, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.promotions.Get(ctx, owner, created.ID)
	require.NoError(t, err)

	public, total, err := f.promotions.ListPublic(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, public)

	approved, err := f.promotions.ChangeLifecycle(ctx, admin, created.ID, ChangeLifecycleRequest{LifecycleState: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "active", approved.Status)
	assert.Equal(t, []string{"approved"}, f.notes.decisions)
	assert.Contains(t, f.pub.types(), events.PromotionLifecycleChanged)

	got, err := f.promotions.Get(ctx, auth.Anonymous, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", got.Status)

	public, total, err = f.promotions.ListPublic(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, public, 1)

	f.clk.Set(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.promotions.Get(ctx, auth.Anonymous, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err = f.promotions.Get(ctx, admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status)

	_, err = f.promotions.ChangeLifecycle(ctx, owner, created.ID, ChangeLifecycleRequest{LifecycleState: "admin_paused"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPromotionService_CreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	other := f.merchantIdentity(t)
	admin := adminIdentity(t)

	req := januaryPromotion()
	req.LifecycleState = strPtr("approved")
	_, err := f.promotions.Create(ctx, owner, req)
	assert.ErrorIs(t, err, domain.ErrForbidden, "merchants cannot pick the lifecycle state")

	req = januaryPromotion()
	req.MerchantID = strPtr(other.MerchantID.String())
	_, err = f.promotions.Create(ctx, owner, req)
	assert.ErrorIs(t, err, domain.ErrForbidden, "merchants cannot create for another merchant")

	plain, err := f.seedUser(t).Identity()
	require.NoError(t, err)
	_, err = f.promotions.Create(ctx, plain, januaryPromotion())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.promotions.Create(ctx, admin, januaryPromotion())
	assert.ErrorIs(t, err, domain.ErrValidation, "admins must name the merchant")

	req = januaryPromotion()
	req.MerchantID = strPtr(uuid.NewString())
	_, err = f.promotions.Create(ctx, admin, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req = januaryPromotion()
	req.MerchantID = strPtr(owner.MerchantID.String())
	dto, err := f.promotions.Create(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, "approved", dto.LifecycleState)
	assert.Equal(t, "active", dto.Status)

	req = januaryPromotion()
	req.EndDate = "2023-12-31"
	_, err = f.promotions.Create(ctx, owner, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = januaryPromotion()
	req.StartDate = "yesterday"
	_, err = f.promotions.Create(ctx, owner, req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPromotionService_UpdateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	admin := adminIdentity(t)

	created, err := f.promotions.Create(ctx, owner, januaryPromotion())
	require.NoError(t, err)

	_, err = f.promotions.Update(ctx, owner, created.ID, UpdatePromotionRequest{LifecycleState: strPtr("approved")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := f.promotions.Update(ctx, owner, created.ID, UpdatePromotionRequest{
		Title:          strPtr("Renamed"),
		LifecycleState: strPtr("pending_approval"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = f.promotions.Update(ctx, owner, created.ID, UpdatePromotionRequest{
		Title:   strPtr("Never stored"),
		EndDate: strPtr("2023-12-01"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := f.promotions.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.True(t, stored.EndDate.Equal(jan31))

	byAdmin, err := f.promotions.Update(ctx, admin, created.ID, UpdatePromotionRequest{LifecycleState: strPtr("approved")})
	require.NoError(t, err)
	assert.Equal(t, "active", byAdmin.Status)
	assert.Equal(t, []string{"approved"}, f.notes.decisions)

	queue, total, err := f.promotions.ListByLifecycle(ctx, "pending_approval", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, queue)

	_, _, err = f.promotions.ListByLifecycle(ctx, "bogus", 1, 20)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.promotions.Delete(ctx, created.ID))
	assert.ErrorIs(t, f.promotions.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestUserService_ChangeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t)
	owner := f.merchantIdentity(t)

	_, err := f.user.ChangeRole(ctx, u.ID(), ChangeRoleRequest{Role: "merchant", MerchantID: strPtr(uuid.NewString())})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.user.ChangeRole(ctx, u.ID(), ChangeRoleRequest{Role: "merchant"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.user.ChangeRole(ctx, u.ID(), ChangeRoleRequest{Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	dto, err := f.user.ChangeRole(ctx, u.ID(), ChangeRoleRequest{Role: "merchant", MerchantID: strPtr(owner.MerchantID.String())})
	require.NoError(t, err)
	assert.Equal(t, "merchant", dto.Role)
	require.NotNil(t, dto.MerchantID)
	assert.Equal(t, *owner.MerchantID, *dto.MerchantID)

	dto, err = f.user.ChangeRole(ctx, u.ID(), ChangeRoleRequest{Role: "user"})
	require.NoError(t, err)
	assert.Nil(t, dto.MerchantID)

	renamed, err := f.user.UpdateProfile(ctx, u.ID(), UpdateProfileRequest{Name: "  New Name "})
	require.NoError(t, err)
	assert.Equal(t, "New Name", renamed.Name)
}

// TestMerchantService_DeleteCascade checks that deleting a merchant removes its
// promotions and demotes the owner.
func TestMerchantService_DeleteCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	admin := adminIdentity(t)

	created, err := f.promotions.Create(ctx, owner, januaryPromotion())
	require.NoError(t, err)

	status, err := f.merchant.ChangeStatus(ctx, *owner.MerchantID, ChangeMerchantStatusRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "approved", status.Status)
	assert.Equal(t, []string{"approved"}, f.notes.statuses)

	require.NoError(t, f.merchant.Delete(ctx, admin, *owner.MerchantID))
	assert.Contains(t, f.pub.types(), events.MerchantDeleted)

	_, err = f.promotions.Get(ctx, admin, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err := f.user.Get(ctx, owner.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, "user", u.Role)
	assert.Nil(t, u.MerchantID)

	_, err = f.merchant.Get(ctx, *owner.MerchantID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFavoriteService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	admin := adminIdentity(t)
	fan, err := f.seedUser(t).Identity()
	require.NoError(t, err)

	pending, err := f.promotions.Create(ctx, owner, januaryPromotion())
	require.NoError(t, err)
	assert.ErrorIs(t, f.favorites.Add(ctx, fan, pending.ID), domain.ErrNotFound)

	_, err = f.promotions.ChangeLifecycle(ctx, admin, pending.ID, ChangeLifecycleRequest{LifecycleState: "approved"})
	require.NoError(t, err)

	require.NoError(t, f.favorites.Add(ctx, fan, pending.ID))
	require.NoError(t, f.favorites.Add(ctx, fan, pending.ID))

	list, err := f.favorites.List(ctx, fan.SubjectID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	require.NoError(t, f.favorites.Remove(ctx, fan, pending.ID))
	list, err = f.favorites.List(ctx, fan.SubjectID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyticsService_ClickFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.merchantIdentity(t)
	admin := adminIdentity(t)

	p, err := f.promotions.Create(ctx, owner, januaryPromotion())
	require.NoError(t, err)

	_, err = f.analytics.RecordClick(ctx, auth.Anonymous, p.ID, RecordClickRequest{Type: "view"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "pending promotions cannot be clicked")

	_, err = f.promotions.ChangeLifecycle(ctx, admin, p.ID, ChangeLifecycleRequest{LifecycleState: "approved"})
	require.NoError(t, err)

	_, err = f.analytics.RecordClick(ctx, auth.Anonymous, p.ID, RecordClickRequest{Type: "poke"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	for _, typ := range []string{"view", "view", "redeem"} {
		_, err := f.analytics.RecordClick(ctx, auth.Anonymous, p.ID, RecordClickRequest{Type: typ})
		require.NoError(t, err)
	}

	// Feed what was published back through the consumer side, twice to
	// simulate redelivery.
	for round := 0; round < 2; round++ {
		for _, e := range f.pub.events {
			if e.eventType != events.PromotionClicked {
				continue
			}
			assert.Equal(t, events.TopicPromotionClicks, e.topic)
			require.NoError(t, f.analytics.HandleClickEvent(ctx, e.data.(events.PromotionClickedEvent)))
		}
	}

	summary, err := f.analytics.MerchantSummary(ctx, *owner.MerchantID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Views)
	assert.Equal(t, int64(1), summary.Redeems)
	assert.Zero(t, summary.Shares)
}
