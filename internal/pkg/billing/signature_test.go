package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

func signedHeader(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignatureValid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"object":{"id":"ch_1"}}}`)
	now := time.Now()

	ev, err := verifyWebhookSignatureAt(payload, signedHeader(payload, testSigningSecret, now), testSigningSecret, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "charge.succeeded", ev.Type)
	assert.JSONEq(t, `{"id":"ch_1"}`, string(ev.Object))
}

func TestVerifyWebhookSignatureMissingHeader(t *testing.T) {
	_, err := VerifyWebhookSignature([]byte("{}"), "", testSigningSecret)
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = VerifyWebhookSignature([]byte("{}"), "   ", testSigningSecret)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifyWebhookSignatureMissingSecret(t *testing.T) {
	payload := []byte("{}")
	header := signedHeader(payload, testSigningSecret, time.Now())

	_, err := VerifyWebhookSignature(payload, header, "")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestVerifyWebhookSignatureTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"charge.succeeded"}`)
	now := time.Now()
	header := signedHeader(payload, testSigningSecret, now)

	tampered := []byte(`{"id":"evt_1","type":"subscription_deleted"}`)
	_, err := verifyWebhookSignatureAt(tampered, header, testSigningSecret, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	payload := []byte("{}")
	now := time.Now()
	header := signedHeader(payload, "whsec_other", now)

	_, err := verifyWebhookSignatureAt(payload, header, testSigningSecret, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyWebhookSignatureStaleTimestamp(t *testing.T) {
	payload := []byte("{}")
	now := time.Now()
	stale := now.Add(-SignatureTolerance - time.Minute)

	_, err := verifyWebhookSignatureAt(payload, signedHeader(payload, testSigningSecret, stale), testSigningSecret, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	// A timestamp too far in the future is rejected the same way.
	future := now.Add(SignatureTolerance + time.Minute)
	_, err = verifyWebhookSignatureAt(payload, signedHeader(payload, testSigningSecret, future), testSigningSecret, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyWebhookSignatureWithinTolerance(t *testing.T) {
	payload := []byte(`{"id":"evt_2","type":"payment_failed"}`)
	now := time.Now()
	old := now.Add(-SignatureTolerance + time.Minute)

	ev, err := verifyWebhookSignatureAt(payload, signedHeader(payload, testSigningSecret, old), testSigningSecret, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_2", ev.ID)
}

func TestVerifyWebhookSignatureMultipleDigests(t *testing.T) {
	payload := []byte(`{"id":"evt_3","type":"checkout_completed"}`)
	now := time.Now()

	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	good := hex.EncodeToString(mac.Sum(nil))

	// A rotated-secret delivery carries digests for both secrets; one valid
	// digest is enough.
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), "00aabbcc", good)
	ev, err := verifyWebhookSignatureAt(payload, header, testSigningSecret, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_3", ev.ID)
}

func TestVerifyWebhookSignatureMalformedHeader(t *testing.T) {
	payload := []byte("{}")
	for _, header := range []string{
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		"t=12345",
		"garbage",
	} {
		_, err := VerifyWebhookSignature(payload, header, testSigningSecret)
		assert.Error(t, err, "header %q", header)
	}
}
