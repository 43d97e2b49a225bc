package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/internal/pkg/constants"
	"github.com/xpert786/SurePoint/internal/pkg/database"
	"github.com/xpert786/SurePoint/internal/pkg/entitlements"
	icuser "github.com/xpert786/SurePoint/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	v := c.Locals(icuser.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	v := c.Locals(icuser.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireActiveBilling gates protected pages on the reconciled billing
// status. The user row is re-read on every navigation; no caching across
// requests, the reconciled state is always consulted fresh.
func RequireActiveBilling(c *fiber.Ctx) error {
	ok, err := billingActive(c)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if !ok {
		return c.Redirect(constants.UpgradeRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireActiveBillingAPI is the JSON variant of the billing gate.
func RequireActiveBillingAPI(c *fiber.Ctx) error {
	ok, err := billingActive(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !ok {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "payment_required",
			"message": "an active subscription is required",
		})
	}
	return c.Next()
}

func billingActive(c *fiber.Ctx) (bool, error) {
	userCtx := icuser.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return false, errors.New("not logged in")
	}

	var user models.User
	if err := database.GetDB().First(&user, userCtx.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Middleware] billing gate lookup for user %d failed: %v", userCtx.UserID, err)
		}
		return false, err
	}

	return entitlements.CanAccessDashboard(user.Billing.Status, user.PaymentStatus), nil
}
