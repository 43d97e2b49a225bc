package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound means the user id does not reference an existing
	// record. Terminal; callers must not retry.
	ErrUserNotFound = errors.New("billing: user not found")
)

// Updater performs the read-merge-write of billing fields against a user
// record. It is the single serialization point all billing writers funnel
// through: the webhook dispatcher, the manual client confirmation call and
// the convergence poller all end up here.
type Updater struct {
	repo Repository
}

// NewUpdater creates an updater from an injected repository.
func NewUpdater(repo Repository) *Updater {
	return &Updater{repo: repo}
}

// NewUpdaterFromDB creates an updater from a GORM DB handle.
func NewUpdaterFromDB(db *gorm.DB) *Updater {
	return NewUpdater(NewRepository(db))
}

// Apply merges the sparse update into the user's stored billing sub-record.
// Fields not present in upd keep their previous value. The legacy root-level
// mirror columns are written alongside whenever their sub-record counterpart
// is present, so both copies agree after any successful write. The update
// timestamp is stamped server-side; a version counter is bumped in the same
// atomic update call.
//
// Concurrency: this is a read-then-write, not a compare-and-swap. Concurrent
// callers race and the last writer wins per field. All callers project the
// same provider-side truth, so overwrites converge in the common case.
func (u *Updater) Apply(ctx context.Context, userID uint, upd Update) (Result, error) {
	if userID == 0 {
		return Result{}, errors.New("billing: user id is required")
	}

	user, err := u.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("billing: load user %d: %w", userID, err)
	}
	prior := user.EffectiveBillingStatus()

	cols := make(map[string]interface{})
	status := user.Billing.Status
	if upd.Status != nil {
		status = NormalizeStatus(*upd.Status)
		cols["billing_status"] = status
		cols["payment_status"] = LegacyPaymentStatus(status)
	}
	if upd.Plan != nil {
		plan := strings.TrimSpace(*upd.Plan)
		if plan != "" {
			plan = NormalizePlan(plan)
		}
		cols["billing_plan"] = plan
		cols["subscription_tier"] = plan
	}
	if upd.PaymentDate != nil {
		cols["billing_payment_date"] = *upd.PaymentDate
		cols["payment_date"] = *upd.PaymentDate
	}
	if upd.ProviderCustomerID != nil {
		id := strings.TrimSpace(*upd.ProviderCustomerID)
		cols["billing_provider_customer_id"] = id
		cols["provider_customer_id"] = id
	}
	if upd.ProviderSessionID != nil {
		cols["billing_provider_session_id"] = strings.TrimSpace(*upd.ProviderSessionID)
	}

	// Direct legacy writes lose to the derived mirror when both are given.
	if upd.LegacyPaymentStatus != nil {
		if _, derived := cols["payment_status"]; !derived {
			cols["payment_status"] = strings.ToLower(strings.TrimSpace(*upd.LegacyPaymentStatus))
		}
	}
	if upd.LegacySubscriptionTier != nil {
		if _, derived := cols["subscription_tier"]; !derived {
			cols["subscription_tier"] = strings.TrimSpace(*upd.LegacySubscriptionTier)
		}
	}

	if len(cols) == 0 {
		return Result{Status: prior, PriorStatus: prior, Confirmed: true}, nil
	}

	cols["billing_updated_at"] = time.Now()
	cols["billing_version"] = gorm.Expr("billing_version + 1")

	if err := u.repo.UpdateBillingColumns(ctx, userID, cols); err != nil {
		return Result{}, fmt.Errorf("billing: persist update for user %d: %w", userID, err)
	}

	// Re-read to confirm persistence. A failed re-read does not roll back;
	// it only downgrades the confirmation and gets logged.
	confirmed := true
	fresh, err := u.repo.GetUser(ctx, userID)
	if err != nil {
		log.Warnf("[Billing] read-after-write failed for user %d: %v", userID, err)
		confirmed = false
	} else if upd.Status != nil && fresh.Billing.Status != status {
		log.Warnf("[Billing] user %d stored status %q does not match written %q", userID, fresh.Billing.Status, status)
		confirmed = false
	}

	return Result{Status: status, PriorStatus: prior, Confirmed: confirmed}, nil
}

// RecordWebhookEvent persists a webhook delivery idempotently. The returned
// bool is false when the provider event id was already recorded, in which
// case the delivery is acknowledged without being dispatched again.
func (u *Updater) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return u.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (u *Updater) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("billing: webhook event id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return u.repo.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}
