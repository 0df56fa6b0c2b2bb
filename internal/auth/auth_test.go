package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

func TestCapabilities(t *testing.T) {
	participantActions := []Action{ActionAcknowledge, ActionStartWork, ActionComplete, ActionRequestApproval}
	supervisoryActions := []Action{
		ActionVerify, ActionClose, ActionReject, ActionHold, ActionResume,
		ActionSetStatus, ActionApproveRequest, ActionDenyRequest,
		ActionContainEmergency, ActionResolveEmergency,
	}
	allRoles := []domain.Role{domain.RoleUser, domain.RoleVendor, domain.RoleManager, domain.RoleAdmin}

	for _, action := range participantActions {
		for _, role := range allRoles {
			assert.True(t, Can(role, action), "%s should allow %s", action, role)
		}
	}
	for _, action := range supervisoryActions {
		assert.False(t, Can(domain.RoleUser, action), "%s should deny USER", action)
		assert.False(t, Can(domain.RoleVendor, action), "%s should deny VENDOR", action)
		assert.True(t, Can(domain.RoleManager, action), "%s should allow MANAGER", action)
		assert.True(t, Can(domain.RoleAdmin, action), "%s should allow ADMIN", action)
	}
}

func TestCanUnknownActionDeniesEveryone(t *testing.T) {
	assert.False(t, Can(domain.RoleAdmin, Action("drop_tables")))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("user-1", "tenant-1", domain.RoleManager)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ActorID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("user-1", "tenant-1", domain.RoleUser)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsIncompleteClaims(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, _, err := tm.GenerateToken("user-1", "", domain.RoleUser)
	require.NoError(t, err)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)

	token, _, err = tm.GenerateToken("user-1", "tenant-1", domain.Role("SUPERHERO"))
	require.NoError(t, err)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestSecretHashing(t *testing.T) {
	hashed, err := HashSecret("cron-secret", bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, CompareSecret(hashed, "cron-secret"))
	assert.Error(t, CompareSecret(hashed, "wrong-secret"))
}
