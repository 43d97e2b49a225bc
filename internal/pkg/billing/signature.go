package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance bounds how old a signed timestamp may be before the
// event is rejected as a likely replay.
const SignatureTolerance = 5 * time.Minute

var (
	// ErrMissingSignature is returned when no signature header was sent.
	ErrMissingSignature = errors.New("billing: missing webhook signature header")
	// ErrMissingSecret is returned when the signing secret is not configured.
	// This is an operator error, not a request error, and is surfaced as such.
	ErrMissingSecret = errors.New("billing: webhook signing secret is not configured")
	// ErrSignatureMismatch is returned when cryptographic verification fails.
	ErrSignatureMismatch = errors.New("billing: webhook signature mismatch")
)

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// VerifyWebhookSignature authenticates a raw webhook delivery and returns the
// typed event. The signature header carries a signed timestamp and one or
// more HMAC-SHA256 digests: "t=<unix>,v1=<hex>[,v1=<hex>...]", where the
// digest covers "<unix>.<payload>". Verification runs before any state
// mutation is attempted.
func VerifyWebhookSignature(payload []byte, signatureHeader, secret string) (*VerifiedEvent, error) {
	return verifyWebhookSignatureAt(payload, signatureHeader, secret, time.Now())
}

func verifyWebhookSignatureAt(payload []byte, signatureHeader, secret string, now time.Time) (*VerifiedEvent, error) {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return nil, ErrMissingSignature
	}
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}

	ts, digests, err := parseSignatureHeader(sig)
	if err != nil {
		return nil, err
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return nil, ErrSignatureMismatch
	}

	signed := strconv.FormatInt(ts, 10) + "."
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, d := range digests {
		if hmac.Equal(expected, d) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrSignatureMismatch
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("billing: decode webhook envelope: %w", err)
	}
	return &VerifiedEvent{
		ID:     strings.TrimSpace(env.ID),
		Type:   strings.TrimSpace(env.Type),
		Object: env.Data.Object,
	}, nil
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var ts int64 = -1
	var digests [][]byte

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrSignatureMismatch
			}
			ts = v
		case "v1":
			d, err := hex.DecodeString(strings.ToLower(kv[1]))
			if err != nil {
				continue
			}
			digests = append(digests, d)
		}
	}

	if ts < 0 || len(digests) == 0 {
		return 0, nil, ErrSignatureMismatch
	}
	return ts, digests, nil
}
