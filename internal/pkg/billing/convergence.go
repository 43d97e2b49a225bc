package billing

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/xpert786/SurePoint/app/models"
	"github.com/xpert786/SurePoint/internal/pkg/env"
)

// State is the convergence poller's position in its state machine.
type State int

const (
	StateVerifying State = iota
	StateUpdating
	StatePolling
	StateConverged
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateUpdating:
		return "updating"
	case StatePolling:
		return "polling"
	case StateConverged:
		return "converged"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

const (
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxAttempts = 15
)

// Convergence re-verifies a checkout session's paid state after the payment
// redirect, independently of the webhook. If the session is paid it pushes
// the same update the webhook would (idempotent, safe to apply twice), so a
// delayed or lost webhook delivery still converges. Unpaid sessions are
// re-checked on a fixed interval up to a bounded attempt count; exhaustion
// is reported as TimedOut, not as a payment failure, since the webhook may
// still complete later.
type Convergence struct {
	Provider PaymentProvider
	Updater  *Updater

	Interval    time.Duration
	MaxAttempts int
}

// NewConvergence builds a poller with interval/attempt budget from the
// environment, falling back to 2s x 15.
func NewConvergence(provider PaymentProvider, updater *Updater) *Convergence {
	return &Convergence{
		Provider:    provider,
		Updater:     updater,
		Interval:    time.Duration(env.GetEnvInt("BILLING_POLL_INTERVAL_SECONDS", 2)) * time.Second,
		MaxAttempts: env.GetEnvInt("BILLING_POLL_MAX_ATTEMPTS", defaultPollMaxAttempts),
	}
}

// Run drives the state machine to a terminal state. It always returns
// StateConverged or StateTimedOut within Interval*MaxAttempts wall-clock,
// unless ctx is cancelled first.
func (cv *Convergence) Run(ctx context.Context, sessionID string, userID uint) (State, error) {
	interval := cv.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := cv.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultPollMaxAttempts
	}

	for attempt := 0; ; attempt++ {
		sess, err := cv.Provider.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			log.Warnf("[Billing] convergence lookup %s (attempt %d): %v", sessionID, attempt+1, err)
		} else if sess.Paid {
			cv.applyPaidSession(ctx, sess, userID)
			return StateConverged, nil
		}

		if attempt+1 >= maxAttempts {
			return StateTimedOut, nil
		}

		select {
		case <-ctx.Done():
			return StatePolling, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// applyPaidSession pushes the paid state through the shared update path.
// Optimistic: a failed manual update is only logged, since the webhook path
// converges on the same values and the access gate re-blocks if neither
// writer landed.
func (cv *Convergence) applyPaidSession(ctx context.Context, sess *CheckoutSession, userID uint) {
	now := time.Now()
	upd := Update{
		Status:            strPtr(models.BillingStatusActive),
		PaymentDate:       &now,
		ProviderSessionID: strPtr(sess.ID),
	}
	if sess.CustomerRef != "" {
		upd.ProviderCustomerID = strPtr(sess.CustomerRef)
	}
	if plan := sess.Metadata[metadataPlanKey]; plan != "" {
		upd.Plan = strPtr(NormalizePlan(plan))
	}

	if _, err := cv.Updater.Apply(ctx, userID, upd); err != nil {
		log.Warnf("[Billing] convergence update for user %d failed (webhook remains the backstop): %v", userID, err)
	}
}
