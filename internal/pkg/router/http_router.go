package router

import (
	"github.com/xpert786/SurePoint/app/controllers"
	"github.com/xpert786/SurePoint/internal/pkg/constants"
	"github.com/xpert786/SurePoint/internal/pkg/middleware"
	"github.com/xpert786/SurePoint/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
	})

	// Checkout and return pages need a session but not an active
	// subscription; they are how an account becomes active.
	billing := app.Group("/billing", middleware.RequireAuth)
	billing.Post("/checkout", controllers.HandleCreateCheckout)
	billing.Post("/portal", controllers.HandleCreatePortal)
	billing.Get("/return", controllers.HandleBillingReturn)
	billing.Get("/upgrade", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "your subscription is not active",
			"plans":   []string{"basic", "pro", "enterprise"},
		})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
