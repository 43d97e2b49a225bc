package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdateMapBillingFields(t *testing.T) {
	upd, err := ParseUpdateMap(map[string]interface{}{
		"billing.status":             "active",
		"billing.plan":               "pro",
		"billing.paymentDate":        "2026-08-01T10:30:00Z",
		"billing.providerCustomerId": "cus_1",
		"billing.providerSessionId":  "cs_1",
	})
	require.NoError(t, err)

	require.NotNil(t, upd.Status)
	assert.Equal(t, "active", *upd.Status)
	require.NotNil(t, upd.Plan)
	assert.Equal(t, "pro", *upd.Plan)
	require.NotNil(t, upd.PaymentDate)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), upd.PaymentDate.UTC())
	require.NotNil(t, upd.ProviderCustomerID)
	assert.Equal(t, "cus_1", *upd.ProviderCustomerID)
	require.NotNil(t, upd.ProviderSessionID)
	assert.Equal(t, "cs_1", *upd.ProviderSessionID)
	assert.Nil(t, upd.LegacyPaymentStatus)
}

func TestParseUpdateMapLegacyFields(t *testing.T) {
	upd, err := ParseUpdateMap(map[string]interface{}{
		"paymentStatus":      "paid",
		"subscriptionTier":   "enterprise",
		"paymentDate":        "2026-08-01T10:30:00Z",
		"providerCustomerId": "cus_2",
	})
	require.NoError(t, err)

	require.NotNil(t, upd.LegacyPaymentStatus)
	assert.Equal(t, "paid", *upd.LegacyPaymentStatus)
	require.NotNil(t, upd.LegacySubscriptionTier)
	assert.Equal(t, "enterprise", *upd.LegacySubscriptionTier)
	require.NotNil(t, upd.PaymentDate)
	require.NotNil(t, upd.ProviderCustomerID)
	assert.Nil(t, upd.Status)
}

func TestParseUpdateMapRejectsUnknownKeys(t *testing.T) {
	_, err := ParseUpdateMap(map[string]interface{}{"billing.staus": "active"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing.staus")
}

func TestParseUpdateMapRejectsWrongTypes(t *testing.T) {
	_, err := ParseUpdateMap(map[string]interface{}{"billing.status": 42})
	assert.Error(t, err)

	_, err = ParseUpdateMap(map[string]interface{}{"billing.paymentDate": "yesterday"})
	assert.Error(t, err)

	_, err = ParseUpdateMap(map[string]interface{}{"billing.paymentDate": 1234567890})
	assert.Error(t, err)
}

func TestParseUpdateMapEmpty(t *testing.T) {
	upd, err := ParseUpdateMap(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, Update{}, upd)
}
