package billing

import (
	"strings"

	"github.com/xpert786/SurePoint/app/models"
)

// NormalizeStatus canonicalizes the spelling of a billing status. It never
// rejects a value: status transitions are not validated, any caller may set
// any status (last writer wins).
func NormalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "canceled":
		return models.BillingStatusCancelled
	default:
		return s
	}
}

// NormalizePlan maps arbitrary plan strings to a known plan, defaulting to
// basic for anything unrecognized.
func NormalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanPro:
		return models.PlanPro
	case models.PlanEnterprise:
		return models.PlanEnterprise
	default:
		return models.PlanBasic
	}
}

// LegacyPaymentStatus maps a billing sub-record status to the root-level
// payment status mirror.
func LegacyPaymentStatus(billingStatus string) string {
	switch NormalizeStatus(billingStatus) {
	case models.BillingStatusActive:
		return models.PaymentStatusPaid
	case models.BillingStatusFailed:
		return models.PaymentStatusFailed
	case models.BillingStatusCancelled:
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusUnpaid
	}
}
