package entitlements

import (
	"strings"

	"github.com/xpert786/SurePoint/app/models"
)

// CanAccessDashboard is the access gate every protected route consults. The
// billing sub-record status takes precedence; the legacy root-level payment
// status is the fallback for records written before the sub-record existed.
// Only an active subscription (or the legacy "paid" marker) passes.
func CanAccessDashboard(billingStatus, legacyPaymentStatus string) bool {
	status := strings.ToLower(strings.TrimSpace(billingStatus))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(legacyPaymentStatus))
	}
	switch status {
	case models.BillingStatusActive, models.PaymentStatusPaid:
		return true
	default:
		return false
	}
}

// SeatLimit returns how many team members a plan allows, -1 for unlimited.
func SeatLimit(plan string) int {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanEnterprise:
		return -1
	case models.PlanPro:
		return 10
	default:
		return 3
	}
}

// AllowsReports reports whether KPI report exports are available on a plan.
func AllowsReports(plan string) bool {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanPro, models.PlanEnterprise:
		return true
	default:
		return false
	}
}
