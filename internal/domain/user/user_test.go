package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Alice@Example.com ", "hash", "Alice", now)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email())
	assert.Equal(t, auth.RoleUser, u.Role())
	assert.Nil(t, u.MerchantID())

	_, err = NewUser("not-an-email", "hash", "", now)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewUser("a@b.c", "", "", now)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// TestAssignRole_MerchantLinkMovesWithRole checks the role and merchant link change atomically.
func TestAssignRole_MerchantLinkMovesWithRole(t *testing.T) {
	u, err := NewUser("m@x.y", "hash", "", now)
	require.NoError(t, err)
	merchantID := uuid.New()

	require.NoError(t, u.LinkMerchant(merchantID, now))
	assert.Equal(t, auth.RoleMerchant, u.Role())
	require.NotNil(t, u.MerchantID())
	assert.Equal(t, merchantID, *u.MerchantID())

	id, err := u.Identity()
	require.NoError(t, err)
	assert.True(t, id.OwnsMerchant(merchantID))

	require.NoError(t, u.AssignRole(auth.RoleAdmin, nil, now))
	assert.Equal(t, auth.RoleAdmin, u.Role())
	assert.Nil(t, u.MerchantID())

	require.NoError(t, u.LinkMerchant(merchantID, now))
	require.NoError(t, u.UnlinkMerchant(now))
	assert.Equal(t, auth.RoleUser, u.Role())
	assert.Nil(t, u.MerchantID())
}

func TestAssignRole_RejectsInconsistentInput(t *testing.T) {
	u, err := NewUser("m@x.y", "hash", "", now)
	require.NoError(t, err)
	merchantID := uuid.New()

	assert.ErrorIs(t, u.AssignRole(auth.RoleMerchant, nil, now), domain.ErrValidation)
	assert.ErrorIs(t, u.AssignRole(auth.RoleUser, &merchantID, now), domain.ErrValidation)
	assert.ErrorIs(t, u.AssignRole("root", nil, now), domain.ErrValidation)

	assert.Equal(t, auth.RoleUser, u.Role(), "failed assignments leave the user unchanged")
	assert.Nil(t, u.MerchantID())
}
