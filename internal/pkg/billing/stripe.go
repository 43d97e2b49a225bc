package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xpert786/SurePoint/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com"

// PaymentProvider abstracts the payment API surface the reconciliation core
// needs: synchronous session lookup, a bounded recent-session listing for
// fallback attribution, and checkout/portal session creation.
type PaymentProvider interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ListRecentCheckoutSessions(ctx context.Context, limit int) ([]CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripeClient talks to the payments API over its REST surface directly.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type stripeSessionPayload struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Customer      string            `json:"customer"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

func (p *stripeSessionPayload) toCheckoutSession() CheckoutSession {
	return CheckoutSession{
		ID:            p.ID,
		Paid:          strings.EqualFold(p.PaymentStatus, "paid"),
		Status:        p.Status,
		CustomerRef:   p.Customer,
		PaymentIntent: p.PaymentIntent,
		URL:           p.URL,
		Metadata:      p.Metadata,
	}
}

func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var payload stripeSessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.ID) == "" {
		return nil, errors.New("session lookup returned no id")
	}
	out := payload.toCheckoutSession()
	return &out, nil
}

func (c *StripeClient) ListRecentCheckoutSessions(ctx context.Context, limit int) ([]CheckoutSession, error) {
	if limit <= 0 {
		limit = recentSessionScanLimit
	}

	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []stripeSessionPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}

	out := make([]CheckoutSession, 0, len(list.Data))
	for i := range list.Data {
		out = append(out, list.Data[i].toCheckoutSession())
	}
	return out, nil
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.UserID == 0 {
		return nil, errors.New("user id is required")
	}
	if strings.TrimSpace(params.PriceRef) == "" {
		return nil, errors.New("price ref is required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", strings.TrimSpace(params.PriceRef))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata["+metadataUserIDKey+"]", strconv.FormatUint(uint64(params.UserID), 10))
	if params.Plan != "" {
		form.Set("metadata["+metadataPlanKey+"]", NormalizePlan(params.Plan))
	}
	if params.CustomerID != "" {
		form.Set("customer", strings.TrimSpace(params.CustomerID))
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var payload stripeSessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.ID) == "" {
		return nil, errors.New("checkout session creation returned no id")
	}
	out := payload.toCheckoutSession()
	return &out, nil
}

func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", errors.New("customer id is required")
	}

	form := url.Values{}
	form.Set("customer", strings.TrimSpace(customerID))
	form.Set("return_url", returnURL)

	body, err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form)
	if err != nil {
		return "", err
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.URL) == "" {
		return "", errors.New("portal session creation returned no url")
	}
	return payload.URL, nil
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIBaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payments api request failed: status=%d path=%s body=%s", resp.StatusCode, path, string(body))
	}
	return body, nil
}
