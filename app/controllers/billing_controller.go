package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/app/repository"
	"github.com/xpert786/SurePoint/internal/pkg/billing"
	"github.com/xpert786/SurePoint/internal/pkg/constants"
	"github.com/xpert786/SurePoint/internal/pkg/database"
	"github.com/xpert786/SurePoint/internal/pkg/env"
	"github.com/xpert786/SurePoint/internal/pkg/usercontext"
)

const webhookProcessTimeout = 15 * time.Second

func newBillingUpdater() *billing.Updater {
	return billing.NewUpdaterFromDB(database.GetDB())
}

func newBillingDispatcher() *billing.Dispatcher {
	db := database.GetDB()
	return billing.NewDispatcher(
		billing.NewUpdaterFromDB(db),
		billing.NewRepository(db),
		billing.NewStripeClientFromEnv(),
		billing.NewCacheUserIndex(),
	)
}

// HandlePaymentWebhook receives provider payment notifications. Every delivery
// is persisted first (with its signature verdict) so replays are detected by
// event id; only first deliveries with a valid signature are dispatched.
// Handler-level failures never turn into a non-2xx ack: the provider retrying
// a processed event would only hit the dedup row.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	event, verifyErr := billing.VerifyWebhookSignature(rawBody, signature, secret)
	if errors.Is(verifyErr, billing.ErrMissingSecret) {
		log.Errorf("[Billing] webhook received but STRIPE_WEBHOOK_SECRET is not set")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_secret_missing"})
	}

	input := billing.WebhookEventInput{
		PayloadJSON:    string(rawBody),
		SignatureValid: verifyErr == nil,
	}
	if event != nil {
		input.ProviderEventID = event.ID
		input.EventType = event.Type
	}

	updater := newBillingUpdater()
	created, stored, err := updater.RecordWebhookEvent(ctx, input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}
	if verifyErr != nil {
		_ = updater.MarkWebhookProcessed(ctx, stored.ID, verifyErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	newBillingDispatcher().Dispatch(ctx, event)
	_ = updater.MarkWebhookProcessed(ctx, stored.ID, nil)

	return c.JSON(fiber.Map{"received": true})
}

// HandleSessionLookup is the point lookup for one checkout session's paid
// state, used by the post-payment frontend.
func HandleSessionLookup(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "session id is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	sess, err := billing.NewStripeClientFromEnv().GetCheckoutSession(ctx, sessionID)
	if err != nil {
		log.Warnf("[Billing] session lookup %s failed: %v", sessionID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session_not_found"})
	}

	return c.JSON(fiber.Map{
		"paid":        sess.Paid,
		"status":      sess.Status,
		"customerRef": sess.CustomerRef,
	})
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
	UserID    uint   `json:"userId"`
}

// HandleBillingConfirm lets the post-payment frontend push the paid state
// itself instead of waiting for the webhook. The session is re-verified at the
// provider and its metadata must attribute the payment to the claimed user;
// the applied update is identical to the webhook's, so both paths converge.
func HandleBillingConfirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if strings.TrimSpace(req.SessionID) == "" || req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "sessionId and userId are required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	sess, err := billing.NewStripeClientFromEnv().GetCheckoutSession(ctx, req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session_not_found"})
	}
	if !sess.Paid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session_not_paid"})
	}
	if metaUser := strings.TrimSpace(sess.Metadata["userId"]); metaUser != "" {
		if metaUser != strconv.FormatUint(uint64(req.UserID), 10) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "session does not belong to this user"})
		}
	}

	now := time.Now()
	status := models.BillingStatusActive
	upd := billing.Update{
		Status:            &status,
		PaymentDate:       &now,
		ProviderSessionID: &sess.ID,
	}
	if sess.CustomerRef != "" {
		upd.ProviderCustomerID = &sess.CustomerRef
	}
	if plan := billing.NormalizePlan(sess.Metadata["plan"]); sess.Metadata["plan"] != "" {
		upd.Plan = &plan
	}

	res, err := newBillingUpdater().Apply(ctx, req.UserID, upd)
	if err != nil {
		if errors.Is(err, billing.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
	}

	return c.JSON(fiber.Map{
		"billingStatus": res.Status,
		"paymentStatus": billing.LegacyPaymentStatus(res.Status),
		"confirmed":     res.Confirmed,
	})
}

type internalUpdateRequest struct {
	UserID  uint                   `json:"userId"`
	Updates map[string]interface{} `json:"updates"`
}

// HandleInternalBillingUpdate applies a sparse billing update on behalf of
// trusted internal tooling. Auth is the static internal token middleware.
func HandleInternalBillingUpdate(c *fiber.Ctx) error {
	var req internalUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid body"})
	}
	if req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "userId is required"})
	}
	if len(req.Updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "updates must not be empty"})
	}

	upd, err := billing.ParseUpdateMap(req.Updates)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	res, err := newBillingUpdater().Apply(ctx, req.UserID, upd)
	if err != nil {
		if errors.Is(err, billing.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
	}

	return c.JSON(fiber.Map{
		"billingStatus": res.Status,
		"priorStatus":   res.PriorStatus,
		"confirmed":     res.Confirmed,
	})
}

// HandleCreateCheckout creates a provider checkout session for the logged-in
// user and redirects to its hosted payment page. The session and customer ids
// are remembered in the cache index so later charge events without metadata
// can still be attributed.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	plan := billing.NormalizePlan(c.FormValue("plan"))
	priceRef := env.GetEnv("STRIPE_PRICE_"+strings.ToUpper(plan), "")
	if priceRef == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "This plan is not available right now"}).Redirect(constants.UpgradeRoute)
	}

	user, err := repositoryUser(userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Account could not be loaded"}).Redirect(constants.UpgradeRoute)
	}

	publicDomain := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	sess, err := billing.NewStripeClientFromEnv().CreateCheckoutSession(ctx, billing.CheckoutParams{
		UserID:     user.ID,
		Plan:       plan,
		PriceRef:   priceRef,
		CustomerID: user.Billing.ProviderCustomerID,
		SuccessURL: publicDomain + "/billing/return?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  publicDomain + "/billing/upgrade",
	})
	if err != nil {
		log.Errorf("[Billing] checkout session creation for user %d failed: %v", user.ID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout could not be started"}).Redirect(constants.UpgradeRoute)
	}

	index := billing.NewCacheUserIndex()
	index.RememberSession(sess.ID, user.ID)
	if sess.CustomerRef != "" {
		index.RememberCustomer(sess.CustomerRef, user.ID)
	}

	return c.Redirect(sess.URL, fiber.StatusSeeOther)
}

// HandleCreatePortal redirects the logged-in user to the provider's billing
// portal for plan and payment method management.
func HandleCreatePortal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	user, err := repositoryUser(userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Account could not be loaded"}).Redirect(constants.DashboardRoute)
	}
	customerID := user.Billing.ProviderCustomerID
	if customerID == "" {
		customerID = user.ProviderCustomerID
	}
	if customerID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No billing account linked yet"}).Redirect(constants.UpgradeRoute)
	}

	publicDomain := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	portalURL, err := billing.NewStripeClientFromEnv().CreatePortalSession(ctx, customerID, publicDomain+"/dashboard")
	if err != nil {
		log.Errorf("[Billing] portal session creation for user %d failed: %v", user.ID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Billing portal is unavailable"}).Redirect(constants.DashboardRoute)
	}

	return c.Redirect(portalURL, fiber.StatusSeeOther)
}

// HandleBillingReturn is the landing page after the hosted payment flow. It
// runs the convergence poller so access unlocks even when the webhook is
// delayed or lost.
func HandleBillingReturn(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Missing checkout session reference"}).Redirect(constants.DashboardRoute)
	}

	cv := billing.NewConvergence(billing.NewStripeClientFromEnv(), newBillingUpdater())
	state, err := cv.Run(c.Context(), sessionID, userCtx.UserID)
	if err != nil {
		log.Warnf("[Billing] convergence for session %s aborted: %v", sessionID, err)
	}

	if state == billing.StateConverged {
		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Payment confirmed, your subscription is active"}).Redirect(constants.DashboardRoute)
	}
	return flash.WithInfo(c, fiber.Map{"type": "info", "message": "Payment is still processing, access unlocks automatically once confirmed"}).Redirect(constants.DashboardRoute)
}

func repositoryUser(id uint) (*models.User, error) {
	return repository.GetGlobalFactory().GetUserRepository().GetByID(id)
}
