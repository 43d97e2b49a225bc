package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xpert786/SurePoint/app/repository"
	"github.com/xpert786/SurePoint/internal/pkg/entitlements"
	"github.com/xpert786/SurePoint/internal/pkg/usercontext"
	"github.com/xpert786/SurePoint/internal/pkg/utils"
)

// HandleDashboard returns the account overview: billing state, entitlements
// and headline counts.
func HandleDashboard(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	user, err := repositoryUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "account load failed"})
	}

	repos := repository.GetGlobalRepositories()
	openOrders, err := repos.Order.CountByUserID(userID, "")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "order count failed"})
	}
	clients, err := repos.Client.CountByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client count failed"})
	}
	team, err := repos.Team.CountByOwner(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "team count failed"})
	}

	return c.JSON(fiber.Map{
		"account": fiber.Map{
			"name":       user.Name,
			"email":      user.Email,
			"avatar_url": utils.GetGravatarURL(user.Email, 80),
		},
		"billing": fiber.Map{
			"status":       user.EffectiveBillingStatus(),
			"plan":         user.Billing.Plan,
			"payment_date": formatTimePtr(user.Billing.PaymentDate),
		},
		"entitlements": fiber.Map{
			"dashboard":  entitlements.CanAccessDashboard(user.Billing.Status, user.PaymentStatus),
			"reports":    entitlements.AllowsReports(user.Billing.Plan),
			"seat_limit": entitlements.SeatLimit(user.Billing.Plan),
		},
		"counts": fiber.Map{
			"orders":       openOrders,
			"clients":      clients,
			"team_members": team,
		},
	})
}

// HandleOrderKPIs returns per-status order count and revenue rollups over a
// date range (default: the last 30 days).
func HandleOrderKPIs(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "start must be YYYY-MM-DD"})
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "end must be YYYY-MM-DD"})
		}
		// Inclusive end date.
		end = t.AddDate(0, 0, 1)
	}
	if end.Before(start) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "end must not precede start"})
	}

	kpis, err := repository.GetGlobalFactory().GetOrderRepository().GetKPIs(userID, start, end)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "kpi rollup failed"})
	}

	var totalOrders, totalRevenue int64
	for _, k := range kpis {
		totalOrders += k.OrderCount
		totalRevenue += k.RevenueCents
	}

	return c.JSON(fiber.Map{
		"start":               start.UTC().Format("2006-01-02"),
		"end":                 end.UTC().Format("2006-01-02"),
		"by_status":           kpis,
		"total_orders":        totalOrders,
		"total_revenue_cents": totalRevenue,
	})
}
