package billing

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

// How many recent checkout sessions the fallback user lookup scans when an
// event carries no user id. Best-effort and bounded; unattributable events
// are logged and skipped rather than guessed at.
const recentSessionScanLimit = 20

const metadataUserIDKey = "userId"
const metadataPlanKey = "plan"

// Dispatcher routes verified payment events by type to their handler. Unknown
// types are logged and acknowledged so new provider event types never break
// the webhook. Handler failures are logged, never surfaced: the webhook
// always acknowledges receipt and the client-side convergence path is the
// self-healing backstop for transient persistence errors.
type Dispatcher struct {
	updater  *Updater
	repo     Repository
	provider PaymentProvider
	index    UserIndex
}

// NewDispatcher wires a dispatcher. provider and index may be nil; the
// fallback user lookups that need them are skipped then.
func NewDispatcher(updater *Updater, repo Repository, provider PaymentProvider, index UserIndex) *Dispatcher {
	return &Dispatcher{updater: updater, repo: repo, provider: provider, index: index}
}

// Dispatch processes one verified event. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *VerifiedEvent) {
	switch canonicalEventType(ev.Type) {
	case eventCheckoutCompleted:
		d.handleCheckoutCompleted(ctx, ev)
	case eventPaymentSucceeded:
		d.handlePaymentSucceeded(ctx, ev)
	case eventPaymentFailed:
		d.handlePaymentFailed(ctx, ev)
	case eventSubscriptionDeleted:
		d.handleSubscriptionDeleted(ctx, ev)
	default:
		log.Infof("[Billing] ignoring unhandled event type %q (id=%s)", ev.Type, ev.ID)
	}
}

type dispatchedEvent int

const (
	eventUnknown dispatchedEvent = iota
	eventCheckoutCompleted
	eventPaymentSucceeded
	eventPaymentFailed
	eventSubscriptionDeleted
)

func canonicalEventType(eventType string) dispatchedEvent {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.completed", "checkout_completed":
		return eventCheckoutCompleted
	case "charge.succeeded", "charge_succeeded", "payment_intent.succeeded", "payment_succeeded":
		return eventPaymentSucceeded
	case "invoice.payment_failed", "payment_failed":
		return eventPaymentFailed
	case "customer.subscription.deleted", "subscription_deleted":
		return eventSubscriptionDeleted
	default:
		return eventUnknown
	}
}

type sessionObject struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

type chargeObject struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

func (d *Dispatcher) handleCheckoutCompleted(ctx context.Context, ev *VerifiedEvent) {
	var sess sessionObject
	if err := json.Unmarshal(ev.Object, &sess); err != nil {
		log.Errorf("[Billing] event %s: decode checkout session: %v", ev.ID, err)
		return
	}

	// A completed checkout can still be unpaid (async payment methods).
	if !strings.EqualFold(sess.PaymentStatus, "paid") {
		log.Infof("[Billing] event %s: session %s payment_status=%q, skipping", ev.ID, sess.ID, sess.PaymentStatus)
		return
	}

	userID := userIDFromMetadata(sess.Metadata)
	if userID == 0 {
		// Metadata can be missing on upstream misconfiguration. Skip rather
		// than misattribute the payment.
		log.Warnf("[Billing] event %s: session %s has no user metadata, skipping", ev.ID, sess.ID)
		return
	}

	now := time.Now()
	plan := NormalizePlan(sess.Metadata[metadataPlanKey])
	res, err := d.updater.Apply(ctx, userID, Update{
		Status:             strPtr(models.BillingStatusActive),
		Plan:               strPtr(plan),
		PaymentDate:        &now,
		ProviderCustomerID: strPtr(sess.Customer),
		ProviderSessionID:  strPtr(sess.ID),
	})
	if err != nil {
		log.Errorf("[Billing] event %s: update user %d failed: %v", ev.ID, userID, err)
		return
	}
	log.Infof("[Billing] event %s: user %d %s -> %s (plan=%s)", ev.ID, userID, res.PriorStatus, res.Status, plan)
}

func (d *Dispatcher) handlePaymentSucceeded(ctx context.Context, ev *VerifiedEvent) {
	var charge chargeObject
	if err := json.Unmarshal(ev.Object, &charge); err != nil {
		log.Errorf("[Billing] event %s: decode charge: %v", ev.ID, err)
		return
	}

	userID := userIDFromMetadata(charge.Metadata)
	if userID == 0 {
		userID = d.resolveUserForCharge(ctx, &charge)
	}
	if userID == 0 {
		log.Warnf("[Billing] event %s: charge %s not attributable to a user, skipping", ev.ID, charge.ID)
		return
	}

	now := time.Now()
	upd := Update{
		Status:      strPtr(models.BillingStatusActive),
		PaymentDate: &now,
	}
	if charge.Customer != "" {
		upd.ProviderCustomerID = strPtr(charge.Customer)
	}
	if _, err := d.updater.Apply(ctx, userID, upd); err != nil {
		log.Errorf("[Billing] event %s: update user %d failed: %v", ev.ID, userID, err)
	}
}

func (d *Dispatcher) handlePaymentFailed(ctx context.Context, ev *VerifiedEvent) {
	var charge chargeObject
	if err := json.Unmarshal(ev.Object, &charge); err != nil {
		log.Errorf("[Billing] event %s: decode failed payment: %v", ev.ID, err)
		return
	}

	userID := userIDFromMetadata(charge.Metadata)
	if userID == 0 {
		userID = d.resolveUserForCharge(ctx, &charge)
	}
	if userID == 0 {
		log.Warnf("[Billing] event %s: failed payment %s not attributable to a user, skipping", ev.ID, charge.ID)
		return
	}

	// Plan stays untouched on failure; only the status flips.
	if _, err := d.updater.Apply(ctx, userID, Update{Status: strPtr(models.BillingStatusFailed)}); err != nil {
		log.Errorf("[Billing] event %s: update user %d failed: %v", ev.ID, userID, err)
	}
}

func (d *Dispatcher) handleSubscriptionDeleted(ctx context.Context, ev *VerifiedEvent) {
	var sub subscriptionObject
	if err := json.Unmarshal(ev.Object, &sub); err != nil {
		log.Errorf("[Billing] event %s: decode subscription: %v", ev.ID, err)
		return
	}

	userID := userIDFromMetadata(sub.Metadata)
	if userID == 0 {
		// No owning-user mapping exists without metadata; the event is a no-op.
		log.Warnf("[Billing] event %s: subscription %s carries no user metadata, skipping", ev.ID, sub.ID)
		return
	}

	if _, err := d.updater.Apply(ctx, userID, Update{
		Status: strPtr(models.BillingStatusCancelled),
		Plan:   strPtr(""),
	}); err != nil {
		log.Errorf("[Billing] event %s: update user %d failed: %v", ev.ID, userID, err)
	}
}

// resolveUserForCharge attributes a charge-style event that carries no user
// metadata. Order: the customer->user index written at checkout creation,
// then the stored provider customer id on the user row, then a bounded scan
// of the provider's most recent checkout sessions.
func (d *Dispatcher) resolveUserForCharge(ctx context.Context, charge *chargeObject) uint {
	if charge.Customer != "" {
		if d.index != nil {
			if id, ok := d.index.LookupCustomer(charge.Customer); ok {
				return id
			}
		}
		if d.repo != nil {
			user, err := d.repo.GetUserByProviderCustomerID(ctx, charge.Customer)
			if err == nil {
				return user.ID
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] customer lookup for %s failed: %v", charge.Customer, err)
			}
		}
	}

	if d.provider == nil {
		return 0
	}
	sessions, err := d.provider.ListRecentCheckoutSessions(ctx, recentSessionScanLimit)
	if err != nil {
		log.Warnf("[Billing] recent session scan failed: %v", err)
		return 0
	}
	for i := range sessions {
		s := &sessions[i]
		if !sessionReferencesCharge(s, charge) {
			continue
		}
		if id := userIDFromMetadata(s.Metadata); id != 0 {
			return id
		}
	}
	return 0
}

func sessionReferencesCharge(s *CheckoutSession, charge *chargeObject) bool {
	if charge.PaymentIntent != "" && s.PaymentIntent == charge.PaymentIntent {
		return true
	}
	return charge.Customer != "" && s.CustomerRef == charge.Customer
}

func userIDFromMetadata(metadata map[string]string) uint {
	raw := strings.TrimSpace(metadata[metadataUserIDKey])
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0
	}
	return uint(id)
}

func strPtr(s string) *string {
	return &s
}
