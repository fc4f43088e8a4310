package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

const yocoTestSecret = "whsec_yoco_test"

func newTestYoco(cfg YocoConfig) *Yoco {
	return NewYoco(zap.NewNop(), cfg)
}

func TestYocoVerifyWebhookValidSignature(t *testing.T) {
	y := newTestYoco(YocoConfig{WebhookSecret: yocoTestSecret})
	body := []byte(`{"type":"payment.succeeded","data":{"id":"ch_1"}}`)

	headers := http.Header{}
	headers.Set("x-yoco-signature", utils.HmacSHA256Hex([]byte(yocoTestSecret), body))

	ok, err := y.VerifyWebhook(context.Background(), body, headers)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestYocoVerifyWebhookTamperedBody(t *testing.T) {
	y := newTestYoco(YocoConfig{WebhookSecret: yocoTestSecret})
	body := []byte(`{"type":"payment.succeeded","data":{"id":"ch_1","amount":40000}}`)

	headers := http.Header{}
	headers.Set("x-yoco-signature", utils.HmacSHA256Hex([]byte(yocoTestSecret), body))

	tampered := []byte(`{"type":"payment.succeeded","data":{"id":"ch_1","amount":1}}`)
	ok, err := y.VerifyWebhook(context.Background(), tampered, headers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYocoVerifyWebhookMissingSecretFailsClosed(t *testing.T) {
	y := newTestYoco(YocoConfig{})
	body := []byte(`{}`)

	headers := http.Header{}
	headers.Set("x-yoco-signature", utils.HmacSHA256Hex([]byte("anything"), body))

	ok, err := y.VerifyWebhook(context.Background(), body, headers)
	assert.False(t, ok)

	var appErr pkg.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkg.ErrConfigMissingCode.Code, appErr.Code.Code)
}

func TestYocoVerifyWebhookMissingSignatureHeader(t *testing.T) {
	y := newTestYoco(YocoConfig{WebhookSecret: yocoTestSecret})
	ok, err := y.VerifyWebhook(context.Background(), []byte(`{}`), http.Header{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYocoVerifyWebhookTimestampedSignature(t *testing.T) {
	y := newTestYoco(YocoConfig{WebhookSecret: yocoTestSecret})
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	y.now = func() time.Time { return now }

	body := []byte(`{"type":"payment.succeeded"}`)
	ts := strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)

	headers := http.Header{}
	headers.Set("webhook-timestamp", ts)
	headers.Set("x-yoco-signature", utils.HmacSHA256Hex([]byte(yocoTestSecret), []byte(ts+"."+string(body))))

	ok, err := y.VerifyWebhook(context.Background(), body, headers)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestYocoVerifyWebhookStaleTimestampRejected(t *testing.T) {
	y := newTestYoco(YocoConfig{WebhookSecret: yocoTestSecret})
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	y.now = func() time.Time { return now }

	body := []byte(`{"type":"payment.succeeded"}`)
	ts := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)

	headers := http.Header{}
	headers.Set("webhook-timestamp", ts)
	headers.Set("x-yoco-signature", utils.HmacSHA256Hex([]byte(yocoTestSecret), []byte(ts+"."+string(body))))

	ok, err := y.VerifyWebhook(context.Background(), body, headers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYocoCreateCharge(t *testing.T) {
	var gotReq yocoChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "ch_abc",
			"redirect": map[string]string{
				"checkoutUrl": "https://pay.example/ch_abc",
			},
		})
	}))
	defer srv.Close()

	y := newTestYoco(YocoConfig{APIURL: srv.URL, SecretKey: "sk_test_1"})
	result, err := y.CreateCharge(context.Background(), ChargeRequest{
		OrderID:     42,
		Amount:      40000,
		Currency:    "ZAR",
		ServiceID:   "s4",
		ServiceName: "Strategy Consulting (1 Hour)",
	})
	require.NoError(t, err)

	assert.Equal(t, "ch_abc", result.Reference)
	assert.Equal(t, "https://pay.example/ch_abc", result.RedirectURL)
	assert.Equal(t, int64(40000), gotReq.Amount)
	assert.Equal(t, "ZAR", gotReq.Currency)
	assert.Equal(t, "42", gotReq.Metadata["order_id"])
}

func TestYocoCreateChargeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"amount below minimum"}`)
	}))
	defer srv.Close()

	y := newTestYoco(YocoConfig{APIURL: srv.URL, SecretKey: "sk_test_1"})
	_, err := y.CreateCharge(context.Background(), ChargeRequest{Amount: 1, Currency: "ZAR"})

	var appErr pkg.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkg.ErrProviderCode.Code, appErr.Code.Code)
	assert.Contains(t, appErr.Message, "amount below minimum")
}

func TestYocoCreateChargeNotConfigured(t *testing.T) {
	y := newTestYoco(YocoConfig{})
	_, err := y.CreateCharge(context.Background(), ChargeRequest{})

	var appErr pkg.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkg.ErrConfigMissingCode.Code, appErr.Code.Code)
}

func TestYocoParseEvent(t *testing.T) {
	y := newTestYoco(YocoConfig{})
	body := []byte(`{
		"type": "payment.succeeded",
		"data": {
			"id": "ch_abc",
			"status": "succeeded",
			"amount": 40000,
			"currency": "ZAR",
			"transaction": {"id": "tx_9"},
			"metadata": {"order_id": "42"}
		}
	}`)

	event, err := y.ParseEvent(body)
	require.NoError(t, err)

	assert.Equal(t, pkg.ProviderYoco, event.Provider)
	assert.Equal(t, "payment.succeeded", event.Type)
	assert.Equal(t, "ch_abc", event.ChargeID)
	assert.Equal(t, "tx_9", event.TransactionID)
	assert.Equal(t, int64(40000), event.Amount)
	assert.Equal(t, "ZAR", event.Currency)
	require.NotNil(t, event.OrderID)
	assert.Equal(t, int64(42), *event.OrderID)
	assert.True(t, event.Succeeded())
	assert.Equal(t, "tx_9", event.IdempotencyKey())
	assert.Equal(t, body, event.Raw)
}

func TestYocoParseEventFallbackFields(t *testing.T) {
	y := newTestYoco(YocoConfig{})
	body := []byte(`{"event":"payment.succeeded","data":{"charge_id":"ch_1","amount_in_cents":500}}`)

	event, err := y.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "payment.succeeded", event.Type)
	assert.Equal(t, "ch_1", event.ChargeID)
	assert.Equal(t, int64(500), event.Amount)
	assert.Equal(t, "ZAR", event.Currency)
	assert.Nil(t, event.OrderID)
	assert.Equal(t, "ch_1", event.IdempotencyKey())
}
