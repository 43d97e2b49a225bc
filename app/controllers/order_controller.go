package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/app/repository"
	"github.com/xpert786/SurePoint/internal/pkg/usercontext"
)

type createOrderRequest struct {
	ClientID    uint   `json:"client_id"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Notes       string `json:"notes"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func validOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// HandleListOrders returns the account's orders, optionally filtered by
// status, newest first with offset/limit paging.
func HandleListOrders(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !validOrderStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "unknown order status"})
	}
	limit := queryInt(c, "limit", 25, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<30)

	repo := repository.GetGlobalFactory().GetOrderRepository()
	orders, err := repo.GetByUserID(userID, status, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "order list failed"})
	}
	total, err := repo.CountByUserID(userID, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "order count failed"})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleGetOrder returns one order by uuid, scoped to the logged-in account.
func HandleGetOrder(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByUUID(c.Params("uuid"))
	if err != nil || order.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "order not found"})
	}

	return c.JSON(order)
}

// HandleCreateOrder creates an order for one of the account's clients.
func HandleCreateOrder(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if req.ClientID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "client_id is required"})
	}
	if req.AmountCents < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "amount_cents must not be negative"})
	}

	client, err := repository.GetGlobalFactory().GetClientRepository().GetByID(req.ClientID)
	if err != nil || client.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	order := &models.Order{
		UserID:      userID,
		ClientID:    client.ID,
		Reference:   strings.TrimSpace(req.Reference),
		Status:      models.OrderStatusPending,
		AmountCents: req.AmountCents,
		Currency:    currency,
		Notes:       req.Notes,
		PlacedAt:    time.Now(),
	}
	if err := repository.GetGlobalFactory().GetOrderRepository().Create(order); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "order create failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrderStatus moves an order to a new status. No transition
// matrix, last writer wins, same as the billing side.
func HandleUpdateOrderStatus(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if !validOrderStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "unknown order status"})
	}

	repo := repository.GetGlobalFactory().GetOrderRepository()
	order, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil || order.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "order not found"})
	}

	if err := repo.UpdateStatus(order.ID, req.Status); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "order update failed"})
	}
	order.Status = req.Status

	return c.JSON(order)
}
