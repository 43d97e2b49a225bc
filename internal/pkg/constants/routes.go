package constants

// Static route constants
const (
	LoginRoute     = "/login"
	DashboardRoute = "/dashboard"
	UpgradeRoute   = "/billing/upgrade"
	ReturnRoute    = "/billing/return"
)
