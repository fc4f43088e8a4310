package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

const paystackSignatureHeader = "x-paystack-signature"

// PaystackConfig holds the Paystack REST API credentials.
type PaystackConfig struct {
	APIURL        string
	SecretKey     string
	WebhookSecret string
}

type Paystack struct {
	cfg    PaystackConfig
	client *http.Client
	logger *zap.Logger
}

func NewPaystack(logger *zap.Logger, cfg PaystackConfig) *Paystack {
	return &Paystack{
		cfg:    cfg,
		client: utils.NewHTTPClient(),
		logger: logger,
	}
}

func (p *Paystack) Name() pkg.Provider { return pkg.ProviderPaystack }

func (p *Paystack) Configured() bool        { return p.cfg.APIURL != "" && p.cfg.SecretKey != "" }
func (p *Paystack) WebhookConfigured() bool { return p.cfg.WebhookSecret != "" }

type paystackInitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"` // minor units
	Currency    string            `json:"currency"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

type paystackInitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !p.Configured() {
		return ChargeResult{}, errNotConfigured(p.Name(), "API")
	}

	payload, err := json.Marshal(paystackInitializeRequest{
		Email:       req.CustomerEmail,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CallbackURL: req.SuccessURL,
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(req.OrderID, 10),
			"service_id":   req.ServiceID,
			"service_name": req.ServiceName,
		},
	})
	if err != nil {
		return ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return ChargeResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ChargeResult{}, pkg.NewAppError(pkg.ErrProviderCode, "paystack unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out paystackInitializeResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return ChargeResult{}, fmt.Errorf("decoding paystack response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Status {
		p.logger.Error("paystack initialize rejected",
			zap.Int("status", resp.StatusCode), zap.String("message", out.Message))
		return ChargeResult{}, errProviderRejected(p.Name(), resp.StatusCode, out.Message)
	}

	return ChargeResult{Reference: out.Data.Reference, RedirectURL: out.Data.AuthorizationURL}, nil
}

// VerifyWebhook checks the hex HMAC-SHA512 signature Paystack computes over
// the raw body. The webhook secret is mandatory: without it every delivery is
// rejected with a configuration error rather than accepted unverified.
func (p *Paystack) VerifyWebhook(_ context.Context, body []byte, headers http.Header) (bool, error) {
	if !p.WebhookConfigured() {
		return false, errNotConfigured(p.Name(), "webhook secret")
	}
	signature := headers.Get(paystackSignatureHeader)
	if signature == "" {
		return false, nil
	}
	expected := utils.HmacSHA512Hex([]byte(p.cfg.WebhookSecret), body)
	return utils.SecureCompare(expected, signature), nil
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number `json:"id"`
		Reference string      `json:"reference"`
		Amount    int64       `json:"amount"` // minor units natively
		Currency  string      `json:"currency"`
		Status    string      `json:"status"`
		Metadata  struct {
			OrderID json.Number `json:"order_id"`
		} `json:"metadata"`
	} `json:"data"`
}

func (p *Paystack) ParseEvent(body []byte) (Event, error) {
	var raw paystackEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, err
	}

	currency := raw.Data.Currency
	if currency == "" {
		currency = "ZAR"
	}
	event := Event{
		Provider:      p.Name(),
		Type:          raw.Event,
		Status:        raw.Data.Status,
		ChargeID:      raw.Data.Reference,
		TransactionID: raw.Data.ID.String(),
		Amount:        raw.Data.Amount,
		Currency:      currency,
		Raw:           body,
	}
	if event.TransactionID == "" || event.TransactionID == "0" {
		event.TransactionID = ""
	}
	if orderID, err := raw.Data.Metadata.OrderID.Int64(); err == nil && orderID > 0 {
		event.OrderID = &orderID
	}
	return event, nil
}
