package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/xpert786/SurePoint/internal/pkg/statistics"
)

// HandleStatus is the public status endpoint with platform-wide counters.
func HandleStatus(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()

	return c.JSON(fiber.Map{
		"status":       "ok",
		"total_users":  stats.TotalUsers,
		"total_orders": stats.TotalOrders,
		"today_orders": stats.TodayOrders,
	})
}
