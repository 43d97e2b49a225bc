package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xpert786/SurePoint/app/models"
)

// fakeRepo keeps users in memory and applies column writes the way the real
// repository would, so read-after-write behaves.
type fakeRepo struct {
	users  map[uint]*models.User
	events map[string]*models.BillingWebhookEvent

	writes      []map[string]interface{}
	dropWrites  bool
	failGetUser error

	nextEventID uint
}

func newFakeRepo(users ...*models.User) *fakeRepo {
	r := &fakeRepo{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.BillingWebhookEvent),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) GetUser(_ context.Context, id uint) (*models.User, error) {
	if r.failGetUser != nil {
		return nil, r.failGetUser
	}
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeRepo) GetUserByProviderCustomerID(_ context.Context, customerID string) (*models.User, error) {
	for _, u := range r.users {
		if u.Billing.ProviderCustomerID == customerID || u.ProviderCustomerID == customerID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdateBillingColumns(_ context.Context, id uint, cols map[string]interface{}) error {
	r.writes = append(r.writes, cols)
	if r.dropWrites {
		return nil
	}
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, raw := range cols {
		switch key {
		case "billing_status":
			u.Billing.Status = raw.(string)
		case "billing_plan":
			u.Billing.Plan = raw.(string)
		case "billing_payment_date":
			t := raw.(time.Time)
			u.Billing.PaymentDate = &t
		case "billing_provider_customer_id":
			u.Billing.ProviderCustomerID = raw.(string)
		case "billing_provider_session_id":
			u.Billing.ProviderSessionID = raw.(string)
		case "billing_updated_at":
			t := raw.(time.Time)
			u.Billing.UpdatedAt = &t
		case "billing_version":
			u.Billing.Version++
		case "payment_status":
			u.PaymentStatus = raw.(string)
		case "subscription_tier":
			u.SubscriptionTier = raw.(string)
		case "payment_date":
			t := raw.(time.Time)
			u.PaymentDate = &t
		case "provider_customer_id":
			u.ProviderCustomerID = raw.(string)
		}
	}
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(_ context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	if existing, ok := r.events[event.ProviderEventID]; ok {
		return false, existing, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	r.events[event.ProviderEventID] = event
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func testUser(id uint) *models.User {
	return &models.User{
		ID:     id,
		Name:   "Test User",
		Email:  "user@example.com",
		Status: models.STATUS_ACTIVE,
		Billing: models.BillingRecord{
			Status: models.BillingStatusInactive,
		},
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func TestApplyMergesInsteadOfReplacing(t *testing.T) {
	user := testUser(1)
	user.Billing.Plan = models.PlanPro
	user.SubscriptionTier = models.PlanPro
	user.Billing.ProviderCustomerID = "cus_123"
	repo := newFakeRepo(user)
	updater := NewUpdater(repo)

	status := models.BillingStatusFailed
	res, err := updater.Apply(context.Background(), 1, Update{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.BillingStatusFailed, res.Status)
	assert.Equal(t, models.BillingStatusInactive, res.PriorStatus)
	assert.True(t, res.Confirmed)

	// Fields absent from the update keep their stored values.
	assert.Equal(t, models.PlanPro, repo.users[1].Billing.Plan)
	assert.Equal(t, "cus_123", repo.users[1].Billing.ProviderCustomerID)
	assert.Equal(t, models.BillingStatusFailed, repo.users[1].Billing.Status)
}

func TestApplyKeepsLegacyMirrorsInSync(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	plan := models.PlanPro
	now := time.Now()
	_, err := updater.Apply(context.Background(), 1, Update{
		Status:             &status,
		Plan:               &plan,
		PaymentDate:        &now,
		ProviderCustomerID: strPtr("cus_42"),
	})
	require.NoError(t, err)

	u := repo.users[1]
	assert.Equal(t, models.BillingStatusActive, u.Billing.Status)
	assert.Equal(t, models.PaymentStatusPaid, u.PaymentStatus)
	assert.Equal(t, u.Billing.Plan, u.SubscriptionTier)
	assert.Equal(t, u.Billing.ProviderCustomerID, u.ProviderCustomerID)
	require.NotNil(t, u.PaymentDate)
	require.NotNil(t, u.Billing.PaymentDate)
	assert.Equal(t, u.Billing.PaymentDate.Unix(), u.PaymentDate.Unix())
}

func TestApplyLegacyStatusMapping(t *testing.T) {
	cases := map[string]string{
		models.BillingStatusActive:    models.PaymentStatusPaid,
		models.BillingStatusFailed:    models.PaymentStatusFailed,
		models.BillingStatusCancelled: models.PaymentStatusCancelled,
		models.BillingStatusInactive:  models.PaymentStatusUnpaid,
	}
	for billingStatus, legacy := range cases {
		repo := newFakeRepo(testUser(1))
		updater := NewUpdater(repo)

		s := billingStatus
		_, err := updater.Apply(context.Background(), 1, Update{Status: &s})
		require.NoError(t, err)
		assert.Equal(t, legacy, repo.users[1].PaymentStatus, "status %s", billingStatus)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	plan := models.PlanBasic
	upd := Update{Status: &status, Plan: &plan}

	res1, err := updater.Apply(context.Background(), 1, upd)
	require.NoError(t, err)
	stateAfterFirst := *repo.users[1]

	res2, err := updater.Apply(context.Background(), 1, upd)
	require.NoError(t, err)

	assert.Equal(t, res1.Status, res2.Status)
	assert.Equal(t, stateAfterFirst.Billing.Status, repo.users[1].Billing.Status)
	assert.Equal(t, stateAfterFirst.Billing.Plan, repo.users[1].Billing.Plan)
	assert.Equal(t, stateAfterFirst.PaymentStatus, repo.users[1].PaymentStatus)
	// The version counter still moves; everything observable stays put.
	assert.Equal(t, stateAfterFirst.Billing.Version+1, repo.users[1].Billing.Version)
}

func TestApplyStampsTimestampAndVersion(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	_, err := updater.Apply(context.Background(), 1, Update{Status: &status})
	require.NoError(t, err)

	require.Len(t, repo.writes, 1)
	cols := repo.writes[0]
	assert.Contains(t, cols, "billing_updated_at")
	assert.Contains(t, cols, "billing_version")
	assert.Equal(t, uint64(1), repo.users[1].Billing.Version)
	require.NotNil(t, repo.users[1].Billing.UpdatedAt)
	assert.WithinDuration(t, time.Now(), *repo.users[1].Billing.UpdatedAt, 5*time.Second)
}

func TestApplyNormalizesStatusSpelling(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	status := "Canceled"
	res, err := updater.Apply(context.Background(), 1, Update{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.BillingStatusCancelled, res.Status)
	assert.Equal(t, models.PaymentStatusCancelled, repo.users[1].PaymentStatus)
}

func TestApplyDerivedMirrorWinsOverLegacyField(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	legacy := models.PaymentStatusFailed
	_, err := updater.Apply(context.Background(), 1, Update{
		Status:              &status,
		LegacyPaymentStatus: &legacy,
	})
	require.NoError(t, err)

	// The mirror derived from the sub-record write wins; both copies agree.
	assert.Equal(t, models.PaymentStatusPaid, repo.users[1].PaymentStatus)
}

func TestApplyLegacyOnlyUpdate(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	legacy := models.PaymentStatusPaid
	tier := models.PlanPro
	_, err := updater.Apply(context.Background(), 1, Update{
		LegacyPaymentStatus:    &legacy,
		LegacySubscriptionTier: &tier,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, repo.users[1].PaymentStatus)
	assert.Equal(t, models.PlanPro, repo.users[1].SubscriptionTier)
	// The sub-record is untouched by legacy-only writes.
	assert.Equal(t, models.BillingStatusInactive, repo.users[1].Billing.Status)
}

func TestApplyEmptyUpdateIsNoOp(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	res, err := updater.Apply(context.Background(), 1, Update{})
	require.NoError(t, err)

	assert.True(t, res.Confirmed)
	assert.Empty(t, repo.writes)
	assert.Equal(t, uint64(0), repo.users[1].Billing.Version)
}

func TestApplyUnknownUser(t *testing.T) {
	repo := newFakeRepo()
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	_, err := updater.Apply(context.Background(), 99, Update{Status: &status})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestApplyUnconfirmedWhenReadBackDiffers(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	repo.dropWrites = true
	updater := NewUpdater(repo)

	status := models.BillingStatusActive
	res, err := updater.Apply(context.Background(), 1, Update{Status: &status})
	require.NoError(t, err)

	// The write itself succeeded; only the confirmation is downgraded.
	assert.Equal(t, models.BillingStatusActive, res.Status)
	assert.False(t, res.Confirmed)
	assert.Equal(t, models.BillingStatusInactive, repo.users[1].Billing.Status)
}

func TestConcurrentAppliesLastWriterWins(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	updater := NewUpdater(repo)

	active := models.BillingStatusActive
	failed := models.BillingStatusFailed

	_, err := updater.Apply(context.Background(), 1, Update{Status: &active})
	require.NoError(t, err)
	_, err = updater.Apply(context.Background(), 1, Update{Status: &failed})
	require.NoError(t, err)

	u := repo.users[1]
	assert.Equal(t, models.BillingStatusFailed, u.Billing.Status)
	assert.Equal(t, models.PaymentStatusFailed, u.PaymentStatus)
	assert.Equal(t, uint64(2), u.Billing.Version)
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	updater := NewUpdater(repo)

	created, first, err := updater.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_1",
		EventType:       "charge.succeeded",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	created, again, err := updater.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_1",
		EventType:       "charge.succeeded",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestRecordWebhookEventHashFallbackID(t *testing.T) {
	repo := newFakeRepo()
	updater := NewUpdater(repo)

	created, stored, err := updater.RecordWebhookEvent(context.Background(), WebhookEventInput{
		PayloadJSON: `{"type":"charge.succeeded"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, stored.ProviderEventID, "hash:")

	// The same payload without an id hashes to the same synthetic id.
	created, _, err = updater.RecordWebhookEvent(context.Background(), WebhookEventInput{
		PayloadJSON: `{"type":"charge.succeeded"}`,
	})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMarkWebhookProcessedStoresError(t *testing.T) {
	repo := newFakeRepo()
	updater := NewUpdater(repo)

	_, stored, err := updater.RecordWebhookEvent(context.Background(), WebhookEventInput{ProviderEventID: "evt_9", PayloadJSON: "{}"})
	require.NoError(t, err)

	require.NoError(t, updater.MarkWebhookProcessed(context.Background(), stored.ID, errors.New("handler blew up")))
	assert.NotNil(t, repo.events["evt_9"].ProcessedAt)
	assert.Equal(t, "handler blew up", repo.events["evt_9"].ProcessingError)
}
