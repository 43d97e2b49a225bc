package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/app/repository"
	"github.com/xpert786/SurePoint/internal/pkg/usercontext"
)

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// HandleListClients returns the account's clients; ?q= switches to a name or
// email search.
func HandleListClients(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetClientRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		clients, err := repo.Search(userID, q)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client search failed"})
		}
		return c.JSON(fiber.Map{"clients": clients, "total": len(clients)})
	}

	limit := queryInt(c, "limit", 25, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<30)
	clients, err := repo.GetByUserID(userID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client list failed"})
	}
	total, err := repo.CountByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client count failed"})
	}

	return c.JSON(fiber.Map{
		"clients": clients,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

// HandleGetClient returns one client by uuid, scoped to the account.
func HandleGetClient(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	client, err := repository.GetGlobalFactory().GetClientRepository().GetByUUID(c.Params("uuid"))
	if err != nil || client.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}

	return c.JSON(client)
}

// HandleCreateClient adds a client record to the account.
func HandleCreateClient(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "name is required"})
	}

	client := &models.Client{
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.Company),
	}
	if err := repository.GetGlobalFactory().GetClientRepository().Create(client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client create failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

// HandleUpdateClient overwrites the mutable client fields.
func HandleUpdateClient(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetClientRepository()

	client, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil || client.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}

	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if strings.TrimSpace(req.Name) != "" {
		client.Name = strings.TrimSpace(req.Name)
	}
	client.Email = strings.TrimSpace(req.Email)
	client.Phone = strings.TrimSpace(req.Phone)
	client.Company = strings.TrimSpace(req.Company)

	if err := repo.Update(client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "client update failed"})
	}

	return c.JSON(client)
}
