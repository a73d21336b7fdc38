package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

var epoch = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestTokenService(t *testing.T) (*TokenService, *MemoryRefreshTokenStore, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(epoch)
	store := NewMemoryRefreshTokenStore(clk)
	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}, store, clk)
	require.NoError(t, err)
	return svc, store, clk
}

func merchantIdentity(t *testing.T) Identity {
	t.Helper()
	merchantID := uuid.New()
	id, err := NewIdentity(uuid.New(), "shop@example.com", RoleMerchant, &merchantID)
	require.NoError(t, err)
	return id
}

// TestNewTokenService_RejectsSharedSecret ensures access and refresh keys are never the same.
func TestNewTokenService_RejectsSharedSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{AccessSecret: "x", RefreshSecret: "x"}, NewMemoryRefreshTokenStore(nil), nil)
	require.Error(t, err)

	_, err = NewTokenService(TokenConfig{AccessSecret: "x"}, NewMemoryRefreshTokenStore(nil), nil)
	require.Error(t, err)
}

// TestAccessToken_RoundTrip verifies every identity field survives signing and verification.
func TestAccessToken_RoundTrip(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	identity := merchantIdentity(t)

	token, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)

	got, err := svc.Verify(token, AccessKey)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

// TestVerify_KeysAreNotCrossValidated checks that each token kind only verifies with its own key.
func TestVerify_KeysAreNotCrossValidated(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	identity := merchantIdentity(t)

	access, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(context.Background(), identity)
	require.NoError(t, err)

	_, err = svc.Verify(access, RefreshKey)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Verify(refresh, AccessKey)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestVerify_Expired uses the injected clock to move past the access TTL.
func TestVerify_Expired(t *testing.T) {
	svc, _, clk := newTestTokenService(t)
	token, err := svc.IssueAccessToken(merchantIdentity(t))
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = svc.Verify(token, AccessKey)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = svc.Verify(token, AccessKey)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestVerify_Garbage covers malformed and tampered tokens.
func TestVerify_Garbage(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	token, err := svc.IssueAccessToken(merchantIdentity(t))
	require.NoError(t, err)

	for _, bad := range []string{"", "not-a-jwt", token + "x"} {
		_, err := svc.Verify(bad, AccessKey)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, bad)
	}
}

// TestRefresh_MintsAccessTokenWithoutRotation verifies the refresh token stays usable.
func TestRefresh_MintsAccessTokenWithoutRotation(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()
	identity := merchantIdentity(t)

	pair, err := svc.IssuePair(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	for i := 0; i < 2; i++ {
		access, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		got, err := svc.Verify(access, AccessKey)
		require.NoError(t, err)
		assert.Equal(t, identity, got)
	}
}

func TestVerifyRefresh_ReturnsClaimedIdentity(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()
	identity := merchantIdentity(t)

	pair, err := svc.IssuePair(ctx, identity)
	require.NoError(t, err)

	got, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestRefresh_RevokedTokenNeverMints checks that a revoked but unexpired refresh
// token is rejected even though its signature still verifies.
func TestRefresh_RevokedTokenNeverMints(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	refresh, err := svc.IssueRefreshToken(ctx, merchantIdentity(t))
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, refresh))
	require.NoError(t, svc.Revoke(ctx, refresh), "revoke is idempotent")

	_, err = svc.Verify(refresh, RefreshKey)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestRefresh_StoreExpiryMatchesToken verifies store entries lapse with the token.
func TestRefresh_StoreExpiryMatchesToken(t *testing.T) {
	svc, store, clk := newTestTokenService(t)
	ctx := context.Background()

	refresh, err := svc.IssueRefreshToken(ctx, merchantIdentity(t))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	clk.Advance(25 * time.Hour)
	_, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	ok, err := store.Contains(ctx, refresh)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRefresh_AccessTokenRejected ensures access tokens cannot be used to refresh.
func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	access, err := svc.IssueAccessToken(merchantIdentity(t))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// TestIssue_AnonymousRejected verifies tokens are never signed for the anonymous identity.
func TestIssue_AnonymousRejected(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	_, err := svc.IssueAccessToken(Anonymous)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type failingStore struct{ *MemoryRefreshTokenStore }

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

// TestRefresh_StoreFailureIsNotInvalidToken distinguishes infrastructure failures.
func TestRefresh_StoreFailureIsNotInvalidToken(t *testing.T) {
	clk := clock.NewFixed(epoch)
	store := failingStore{MemoryRefreshTokenStore: NewMemoryRefreshTokenStore(clk)}
	svc, err := NewTokenService(TokenConfig{AccessSecret: "a", RefreshSecret: "b"}, store, clk)
	require.NoError(t, err)

	refresh, err := svc.IssueRefreshToken(context.Background(), merchantIdentity(t))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), refresh)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidToken)
}
