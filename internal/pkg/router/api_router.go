package router

import (
	"github.com/xpert786/SurePoint/app/controllers"
	"github.com/xpert786/SurePoint/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
		// The payment provider retries webhooks aggressively; never throttle it.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/webhooks/stripe"
		},
	}))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})
	api.Get("/status", controllers.HandleStatus)

	// Auth
	api.Post("/auth/register", controllers.HandleRegister)
	api.Post("/auth/login", controllers.HandleLogin)
	api.Post("/auth/logout", controllers.HandleLogout)
	api.Post("/auth/activate", controllers.HandleActivateInvite)

	// Payment provider callbacks. Signature-authenticated, no session.
	api.Post("/webhooks/stripe", controllers.HandlePaymentWebhook)

	// Billing state endpoints for the post-payment frontend.
	sessionAuthed := api.Group("", middleware.RequireAPISessionAuth)
	sessionAuthed.Get("/billing/session/:id", controllers.HandleSessionLookup)
	sessionAuthed.Post("/billing/confirm", controllers.HandleBillingConfirm)

	// Trusted internal tooling, static token auth.
	internal := api.Group("/internal", middleware.InternalTokenMiddleware())
	internal.Post("/billing/update", controllers.HandleInternalBillingUpdate)

	// Dashboard product surface: session auth plus an active subscription.
	gated := api.Group("", middleware.RequireAPISessionAuth, middleware.RequireActiveBillingAPI)

	gated.Get("/dashboard", controllers.HandleDashboard)
	gated.Get("/dashboard/kpis", controllers.HandleOrderKPIs)

	gated.Get("/orders", controllers.HandleListOrders)
	gated.Post("/orders", controllers.HandleCreateOrder)
	gated.Get("/orders/:uuid", controllers.HandleGetOrder)
	gated.Patch("/orders/:uuid/status", controllers.HandleUpdateOrderStatus)

	gated.Get("/clients", controllers.HandleListClients)
	gated.Post("/clients", controllers.HandleCreateClient)
	gated.Get("/clients/:uuid", controllers.HandleGetClient)
	gated.Put("/clients/:uuid", controllers.HandleUpdateClient)

	gated.Get("/team", controllers.HandleListTeam)
	gated.Post("/team", controllers.HandleInviteMember)
	gated.Get("/team/permissions", controllers.HandleTeamPermissions)
	gated.Patch("/team/:userId", controllers.HandleChangeMemberRole)
	gated.Delete("/team/:userId", controllers.HandleRemoveMember)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
