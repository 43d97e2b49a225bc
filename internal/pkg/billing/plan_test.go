package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xpert786/SurePoint/app/models"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, models.BillingStatusCancelled, NormalizeStatus("canceled"))
	assert.Equal(t, models.BillingStatusCancelled, NormalizeStatus("  Canceled "))
	assert.Equal(t, models.BillingStatusCancelled, NormalizeStatus("cancelled"))
	assert.Equal(t, models.BillingStatusActive, NormalizeStatus("ACTIVE"))

	// Unknown statuses pass through; transitions are never validated.
	assert.Equal(t, "paused", NormalizeStatus("paused"))
	assert.Equal(t, "", NormalizeStatus("  "))
}

func TestNormalizePlan(t *testing.T) {
	assert.Equal(t, models.PlanPro, NormalizePlan("pro"))
	assert.Equal(t, models.PlanPro, NormalizePlan(" PRO "))
	assert.Equal(t, models.PlanEnterprise, NormalizePlan("enterprise"))
	assert.Equal(t, models.PlanBasic, NormalizePlan("basic"))
	assert.Equal(t, models.PlanBasic, NormalizePlan(""))
	assert.Equal(t, models.PlanBasic, NormalizePlan("gold"))
}

func TestLegacyPaymentStatus(t *testing.T) {
	assert.Equal(t, models.PaymentStatusPaid, LegacyPaymentStatus("active"))
	assert.Equal(t, models.PaymentStatusFailed, LegacyPaymentStatus("failed"))
	assert.Equal(t, models.PaymentStatusCancelled, LegacyPaymentStatus("cancelled"))
	assert.Equal(t, models.PaymentStatusCancelled, LegacyPaymentStatus("canceled"))
	assert.Equal(t, models.PaymentStatusUnpaid, LegacyPaymentStatus("inactive"))
	assert.Equal(t, models.PaymentStatusUnpaid, LegacyPaymentStatus("anything else"))
}
