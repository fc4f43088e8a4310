package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

const (
	yocoSignatureHeader = "x-yoco-signature"
	yocoTimestampHeader = "webhook-timestamp"

	// Replay window for timestamped signatures.
	yocoTimestampTolerance = 300 * time.Second
)

// YocoConfig holds the Yoco REST API credentials.
type YocoConfig struct {
	APIURL        string
	SecretKey     string
	WebhookSecret string
}

type Yoco struct {
	cfg    YocoConfig
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewYoco(logger *zap.Logger, cfg YocoConfig) *Yoco {
	return &Yoco{
		cfg:    cfg,
		client: utils.NewHTTPClient(),
		logger: logger,
		now:    time.Now,
	}
}

func (y *Yoco) Name() pkg.Provider { return pkg.ProviderYoco }

// Configured reports whether charge creation can work.
func (y *Yoco) Configured() bool { return y.cfg.APIURL != "" && y.cfg.SecretKey != "" }

// WebhookConfigured reports whether webhook verification can work.
func (y *Yoco) WebhookConfigured() bool { return y.cfg.WebhookSecret != "" }

type yocoChargeRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
	Redirect struct {
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	} `json:"redirect"`
}

type yocoChargeResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
	Redirect    struct {
		CheckoutURL string `json:"checkoutUrl"`
	} `json:"redirect"`
}

func (y *Yoco) CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !y.Configured() {
		return ChargeResult{}, errNotConfigured(y.Name(), "API")
	}

	body := yocoChargeRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(req.OrderID, 10),
			"service_id":   req.ServiceID,
			"service_name": req.ServiceName,
		},
	}
	body.Redirect.SuccessURL = req.SuccessURL
	body.Redirect.CancelURL = req.CancelURL

	payload, err := json.Marshal(body)
	if err != nil {
		return ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, y.cfg.APIURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return ChargeResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+y.cfg.SecretKey)

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return ChargeResult{}, pkg.NewAppError(pkg.ErrProviderCode, "yoco unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out yocoChargeResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return ChargeResult{}, fmt.Errorf("decoding yoco response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		y.logger.Error("yoco create charge rejected",
			zap.Int("status", resp.StatusCode), zap.String("message", out.Message))
		return ChargeResult{}, errProviderRejected(y.Name(), resp.StatusCode, out.Message)
	}

	redirect := out.CheckoutURL
	if redirect == "" {
		redirect = out.Redirect.CheckoutURL
	}
	if redirect == "" {
		redirect = out.RedirectURL
	}
	return ChargeResult{Reference: out.ID, RedirectURL: redirect}, nil
}

// VerifyWebhook checks the hex HMAC-SHA256 signature over the raw body. When
// the timestamped header is present, the signed content is "{timestamp}.{body}"
// and timestamps outside the tolerance window are rejected to block replays.
func (y *Yoco) VerifyWebhook(_ context.Context, body []byte, headers http.Header) (bool, error) {
	if !y.WebhookConfigured() {
		// Fail closed: a missing secret must never silently accept.
		return false, errNotConfigured(y.Name(), "webhook secret")
	}

	signature := headers.Get(yocoSignatureHeader)
	if signature == "" {
		return false, nil
	}

	signed := body
	if ts := headers.Get(yocoTimestampHeader); ts != "" {
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return false, nil
		}
		age := y.now().Sub(time.Unix(unix, 0))
		if age > yocoTimestampTolerance || age < -yocoTimestampTolerance {
			y.logger.Warn("yoco webhook timestamp outside tolerance", zap.String("timestamp", ts))
			return false, nil
		}
		signed = []byte(ts + "." + string(body))
	}

	expected := utils.HmacSHA256Hex([]byte(y.cfg.WebhookSecret), signed)
	return utils.SecureCompare(expected, signature), nil
}

type yocoEvent struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  struct {
		ID            string `json:"id"`
		ChargeID      string `json:"charge_id"`
		TransactionID string `json:"transaction_id"`
		Transaction   struct {
			ID string `json:"id"`
		} `json:"transaction"`
		Amount        int64  `json:"amount"`
		AmountInCents int64  `json:"amount_in_cents"`
		Currency      string `json:"currency"`
		Status        string `json:"status"`
		Metadata      struct {
			OrderID json.Number `json:"order_id"`
		} `json:"metadata"`
	} `json:"data"`
}

func (y *Yoco) ParseEvent(body []byte) (Event, error) {
	var raw yocoEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, err
	}

	eventType := raw.Type
	if eventType == "" {
		eventType = raw.Event
	}
	chargeID := raw.Data.ID
	if chargeID == "" {
		chargeID = raw.Data.ChargeID
	}
	transactionID := raw.Data.TransactionID
	if transactionID == "" {
		transactionID = raw.Data.Transaction.ID
	}
	amount := raw.Data.Amount // Yoco delivers minor units natively
	if amount == 0 {
		amount = raw.Data.AmountInCents
	}
	currency := raw.Data.Currency
	if currency == "" {
		currency = "ZAR"
	}

	event := Event{
		Provider:      y.Name(),
		Type:          eventType,
		Status:        raw.Data.Status,
		ChargeID:      chargeID,
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		Raw:           body,
	}
	if orderID, err := raw.Data.Metadata.OrderID.Int64(); err == nil && orderID > 0 {
		event.OrderID = &orderID
	}
	return event, nil
}
