package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDefaults(t *testing.T) {
	u, err := CreateUser("Jordan Example", "jordan@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_OWNER, u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.Equal(t, BillingStatusInactive, u.Billing.Status)
	assert.Equal(t, PaymentStatusUnpaid, u.PaymentStatus)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "jordan@example.com", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("Jordan Example", "not-an-email", "secret123")
	assert.Error(t, err)
}

func TestEffectiveBillingStatus(t *testing.T) {
	u := &User{Billing: BillingRecord{Status: BillingStatusActive}, PaymentStatus: PaymentStatusFailed}
	assert.Equal(t, BillingStatusActive, u.EffectiveBillingStatus())

	// Legacy fallback for records written before the sub-record existed.
	u = &User{PaymentStatus: PaymentStatusPaid}
	assert.Equal(t, PaymentStatusPaid, u.EffectiveBillingStatus())
}

func TestPermissionsForRole(t *testing.T) {
	owner := PermissionsForRole(ROLE_OWNER)
	assert.True(t, owner.ManageTeam)
	assert.True(t, owner.ManageBilling)

	admin := PermissionsForRole(ROLE_ADMIN)
	assert.True(t, admin.ManageTeam)
	assert.False(t, admin.ManageBilling)

	member := PermissionsForRole(ROLE_MEMBER)
	assert.False(t, member.ManageTeam)
	assert.True(t, member.EditOrders)
	assert.False(t, member.ViewReports)

	// Unknown roles get member permissions.
	assert.Equal(t, member, PermissionsForRole("intern"))
}
