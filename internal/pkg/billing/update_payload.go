package billing

import (
	"fmt"
	"time"
)

// ParseUpdateMap converts the wire-format sparse field map accepted by the
// internal update endpoint into an Update. Accepted keys are the billing
// sub-record fields ("billing.status", "billing.plan", "billing.paymentDate",
// "billing.providerCustomerId", "billing.providerSessionId") and the legacy
// root-level mirrors ("paymentStatus", "subscriptionTier", "paymentDate",
// "providerCustomerId"). Unknown keys are rejected so a typo cannot silently
// drop a field.
func ParseUpdateMap(fields map[string]interface{}) (Update, error) {
	var upd Update

	for key, raw := range fields {
		switch key {
		case "billing.status":
			s, err := stringField(key, raw)
			if err != nil {
				return Update{}, err
			}
			upd.Status = &s
		case "billing.plan", "subscriptionTier":
			s, err := stringField(key, raw)
			if err != nil {
				return Update{}, err
			}
			if key == "billing.plan" {
				upd.Plan = &s
			} else {
				upd.LegacySubscriptionTier = &s
			}
		case "billing.paymentDate", "paymentDate":
			t, err := timeField(key, raw)
			if err != nil {
				return Update{}, err
			}
			upd.PaymentDate = &t
		case "billing.providerCustomerId", "providerCustomerId":
			s, err := stringField(key, raw)
			if err != nil {
				return Update{}, err
			}
			upd.ProviderCustomerID = &s
		case "billing.providerSessionId":
			s, err := stringField(key, raw)
			if err != nil {
				return Update{}, err
			}
			upd.ProviderSessionID = &s
		case "paymentStatus":
			s, err := stringField(key, raw)
			if err != nil {
				return Update{}, err
			}
			upd.LegacyPaymentStatus = &s
		default:
			return Update{}, fmt.Errorf("billing: unknown update field %q", key)
		}
	}

	return upd, nil
}

func stringField(key string, raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("billing: field %q must be a string", key)
	}
	return s, nil
}

func timeField(key string, raw interface{}) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("billing: field %q must be an RFC3339 timestamp", key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("billing: field %q: %v", key, err)
	}
	return t, nil
}
