package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

// PaypalConfig holds the PayPal REST API credentials. WebhookID identifies the
// registered webhook endpoint and is required for signature verification.
type PaypalConfig struct {
	APIURL    string
	ClientID  string
	Secret    string
	WebhookID string
}

type Paypal struct {
	cfg    PaypalConfig
	client *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPaypal(logger *zap.Logger, cfg PaypalConfig) *Paypal {
	return &Paypal{
		cfg:    cfg,
		client: utils.NewHTTPClient(),
		logger: logger,
	}
}

func (p *Paypal) Name() pkg.Provider { return pkg.ProviderPaypal }

func (p *Paypal) Configured() bool {
	return p.cfg.APIURL != "" && p.cfg.ClientID != "" && p.cfg.Secret != ""
}
func (p *Paypal) WebhookConfigured() bool { return p.Configured() && p.cfg.WebhookID != "" }

// token returns a cached OAuth2 client-credentials token, refreshing when
// within a minute of expiry.
func (p *Paypal) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Until(p.tokenExpiry) > time.Minute {
		return p.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", pkg.NewAppError(pkg.ErrProviderCode, "paypal unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding paypal token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.AccessToken == "" {
		return "", errProviderRejected(p.Name(), resp.StatusCode, "token request failed")
	}

	p.accessToken = out.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return p.accessToken, nil
}

func (p *Paypal) CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !p.Configured() {
		return ChargeResult{}, errNotConfigured(p.Name(), "API")
	}
	accessToken, err := p.token(ctx)
	if err != nil {
		return ChargeResult{}, err
	}

	// PayPal takes major-unit decimal strings; minor units are ours alone.
	value := fmt.Sprintf("%d.%02d", req.Amount/100, req.Amount%100)
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"custom_id":   strconv.FormatInt(req.OrderID, 10),
			"description": req.ServiceName,
			"amount": map[string]string{
				"currency_code": req.Currency,
				"value":         value,
			},
		}},
		"application_context": map[string]string{
			"return_url": req.SuccessURL,
			"cancel_url": req.CancelURL,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIURL+"/v2/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return ChargeResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ChargeResult{}, pkg.NewAppError(pkg.ErrProviderCode, "paypal unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		Links   []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return ChargeResult{}, fmt.Errorf("decoding paypal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Error("paypal create order rejected",
			zap.Int("status", resp.StatusCode), zap.String("message", out.Message))
		return ChargeResult{}, errProviderRejected(p.Name(), resp.StatusCode, out.Message)
	}

	var approveURL string
	for _, link := range out.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	return ChargeResult{Reference: out.ID, RedirectURL: approveURL}, nil
}

// VerifyWebhook calls PayPal's verify-webhook-signature API with the
// transmission headers. A definitive FAILURE answer is an invalid signature;
// an unreachable or erroring verification API is a mechanism failure (500).
func (p *Paypal) VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error) {
	if !p.WebhookConfigured() {
		return false, errNotConfigured(p.Name(), "webhook")
	}
	accessToken, err := p.token(ctx)
	if err != nil {
		return false, pkg.NewAppError(pkg.ErrWebhookVerificationCode, "paypal token for verification", err)
	}

	verifyReq := map[string]any{
		"auth_algo":         headers.Get("paypal-auth-algo"),
		"cert_url":          headers.Get("paypal-cert-url"),
		"transmission_id":   headers.Get("paypal-transmission-id"),
		"transmission_sig":  headers.Get("paypal-transmission-sig"),
		"transmission_time": headers.Get("paypal-transmission-time"),
		"webhook_id":        p.cfg.WebhookID,
		"webhook_event":     json.RawMessage(body),
	}
	payload, err := json.Marshal(verifyReq)
	if err != nil {
		return false, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return false, pkg.NewAppError(pkg.ErrWebhookVerificationCode, "paypal verification API unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, pkg.NewAppError(pkg.ErrWebhookVerificationCode,
			"paypal verification API error", fmt.Errorf("status %d", resp.StatusCode))
	}
	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, pkg.NewAppError(pkg.ErrWebhookVerificationCode, "decoding verification response", err)
	}
	return out.VerificationStatus == "SUCCESS", nil
}

type paypalEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
		CustomID          string `json:"custom_id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

func (p *Paypal) ParseEvent(body []byte) (Event, error) {
	var raw paypalEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, err
	}

	// Capture id is the transaction; the checkout order id correlates back to
	// the order row's provider reference.
	chargeID := raw.Resource.SupplementaryData.RelatedIDs.OrderID
	if chargeID == "" {
		chargeID = raw.Resource.ID
	}

	var amount int64
	if raw.Resource.Amount.Value != "" {
		normalized, err := minorUnitsFromDecimal(raw.Resource.Amount.Value)
		if err != nil {
			return Event{}, err
		}
		amount = normalized
	}
	currency := raw.Resource.Amount.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	event := Event{
		Provider:      p.Name(),
		Type:          raw.EventType,
		Status:        raw.Resource.Status,
		ChargeID:      chargeID,
		TransactionID: raw.Resource.ID,
		Amount:        amount,
		Currency:      currency,
		Raw:           body,
	}
	if orderID, err := strconv.ParseInt(raw.Resource.CustomID, 10, 64); err == nil && orderID > 0 {
		event.OrderID = &orderID
	}
	return event, nil
}
