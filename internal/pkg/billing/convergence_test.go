package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpert786/SurePoint/app/models"
)

// seqProvider replays a fixed sequence of session lookups, repeating the last
// entry once exhausted.
type seqProvider struct {
	fakeProvider
	sequence []CheckoutSession
	calls    int
}

func (p *seqProvider) GetCheckoutSession(_ context.Context, _ string) (*CheckoutSession, error) {
	idx := p.calls
	if idx >= len(p.sequence) {
		idx = len(p.sequence) - 1
	}
	p.calls++
	clone := p.sequence[idx]
	return &clone, nil
}

func newTestConvergence(provider PaymentProvider, repo *fakeRepo, maxAttempts int) *Convergence {
	return &Convergence{
		Provider:    provider,
		Updater:     NewUpdater(repo),
		Interval:    time.Microsecond,
		MaxAttempts: maxAttempts,
	}
}

func TestConvergencePaidImmediately(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &seqProvider{sequence: []CheckoutSession{
		{ID: "cs_1", Paid: true, CustomerRef: "cus_1", Metadata: map[string]string{"plan": "pro"}},
	}}
	cv := newTestConvergence(provider, repo, 15)

	state, err := cv.Run(context.Background(), "cs_1", 1)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, state)
	assert.Equal(t, 1, provider.calls)

	u := repo.users[1]
	assert.Equal(t, models.BillingStatusActive, u.Billing.Status)
	assert.Equal(t, models.PlanPro, u.Billing.Plan)
	assert.Equal(t, "cus_1", u.Billing.ProviderCustomerID)
	assert.Equal(t, "cs_1", u.Billing.ProviderSessionID)
}

func TestConvergencePaidMidPoll(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &seqProvider{sequence: []CheckoutSession{
		{ID: "cs_1", Paid: false},
		{ID: "cs_1", Paid: false},
		{ID: "cs_1", Paid: true},
	}}
	cv := newTestConvergence(provider, repo, 15)

	state, err := cv.Run(context.Background(), "cs_1", 1)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, state)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, models.BillingStatusActive, repo.users[1].Billing.Status)
}

func TestConvergenceTimesOut(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &seqProvider{sequence: []CheckoutSession{{ID: "cs_1", Paid: false}}}
	cv := newTestConvergence(provider, repo, 5)

	state, err := cv.Run(context.Background(), "cs_1", 1)
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, state)
	// The attempt budget bounds the lookups exactly.
	assert.Equal(t, 5, provider.calls)
	assert.Equal(t, models.BillingStatusInactive, repo.users[1].Billing.Status)
}

func TestConvergenceTerminatesOnLookupErrors(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &fakeProvider{} // every lookup errors
	cv := newTestConvergence(provider, repo, 4)

	state, err := cv.Run(context.Background(), "cs_missing", 1)
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, state)
	assert.Equal(t, 4, provider.lookups)
}

func TestConvergenceContextCancel(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &seqProvider{sequence: []CheckoutSession{{ID: "cs_1", Paid: false}}}
	cv := &Convergence{
		Provider:    provider,
		Updater:     NewUpdater(repo),
		Interval:    time.Hour,
		MaxAttempts: 15,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	state, err := cv.Run(ctx, "cs_1", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePolling, state)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestConvergenceDefaultsApplied(t *testing.T) {
	repo := newFakeRepo(testUser(1))
	provider := &seqProvider{sequence: []CheckoutSession{{ID: "cs_1", Paid: true}}}
	cv := &Convergence{Provider: provider, Updater: NewUpdater(repo)}

	// Zero interval/attempts fall back to the defaults instead of spinning.
	state, err := cv.Run(context.Background(), "cs_1", 1)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, state)
}

func TestConvergenceStateStrings(t *testing.T) {
	assert.Equal(t, "verifying", StateVerifying.String())
	assert.Equal(t, "updating", StateUpdating.String())
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "converged", StateConverged.String())
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.Equal(t, "unknown", State(99).String())
}
