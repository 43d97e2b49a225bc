package billing

import (
	"encoding/json"
	"time"
)

// VerifiedEvent is a provider notification whose authenticity has been
// cryptographically confirmed. Object carries the provider's data.object
// payload untouched; handlers decode the slice they care about.
type VerifiedEvent struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// Update is a sparse set of billing fields. Nil pointers mean "leave the
// stored value alone"; a pointer to the empty string clears the field. The
// legacy root-level mirrors are derived from the sub-record fields when those
// are present, and can be set directly by internal callers otherwise.
type Update struct {
	Status             *string
	Plan               *string
	PaymentDate        *time.Time
	ProviderCustomerID *string
	ProviderSessionID  *string

	LegacyPaymentStatus    *string
	LegacySubscriptionTier *string
}

// Result reports the outcome of a billing update. Confirmed is false when the
// read-after-write verification could not confirm persistence; the write
// itself is still treated as succeeded.
type Result struct {
	Status      string
	PriorStatus string
	Confirmed   bool
}

// CheckoutSession is the provider-side projection of a checkout session used
// by point lookups, the convergence poller and the recent-session scan.
type CheckoutSession struct {
	ID            string
	Paid          bool
	Status        string
	CustomerRef   string
	PaymentIntent string
	URL           string
	Metadata      map[string]string
}

// CheckoutParams describes a checkout session to create at the provider.
type CheckoutParams struct {
	UserID     uint
	Plan       string
	PriceRef   string
	CustomerID string
	SuccessURL string
	CancelURL  string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
