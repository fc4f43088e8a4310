package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vaughnsterling/payments-api/pkg"
	middleware "github.com/vaughnsterling/payments-api/pkg/middlewares"
	"github.com/vaughnsterling/payments-api/pkg/models"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/services"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAPIRouter mirrors the production wiring: trace middleware on /api.
func newAPIRouter(register func(r *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.TraceID())
	register(api)
	return r
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// stubProvider satisfies both PaymentProvider and ProviderReporter.
type stubProvider struct {
	name              pkg.Provider
	configured        bool
	webhookConfigured bool
}

func (s *stubProvider) Name() pkg.Provider { return s.name }
func (s *stubProvider) Configured() bool   { return s.configured }
func (s *stubProvider) WebhookConfigured() bool {
	return s.webhookConfigured
}
func (s *stubProvider) CreateCharge(context.Context, providers.ChargeRequest) (providers.ChargeResult, error) {
	return providers.ChargeResult{}, nil
}
func (s *stubProvider) VerifyWebhook(context.Context, []byte, http.Header) (bool, error) {
	return true, nil
}
func (s *stubProvider) ParseEvent([]byte) (providers.Event, error) {
	return providers.Event{}, nil
}

type stubCheckoutService struct {
	resp     views.CreateChargeResponse
	err      error
	lastReq  views.CreateChargeRequest
	provider pkg.Provider
}

func (s *stubCheckoutService) CreateCharge(_ context.Context, _ string, provider providers.PaymentProvider, req views.CreateChargeRequest) (views.CreateChargeResponse, error) {
	s.lastReq = req
	s.provider = provider.Name()
	if s.err != nil {
		return views.CreateChargeResponse{}, s.err
	}
	return s.resp, nil
}

type stubReconcileService struct {
	outcome  services.Outcome
	err      error
	lastBody []byte
	provider pkg.Provider
}

func (s *stubReconcileService) ProcessWebhook(_ context.Context, _ string, provider providers.PaymentProvider, body []byte, _ http.Header) (services.Outcome, error) {
	s.lastBody = body
	s.provider = provider.Name()
	if s.err != nil {
		return "", s.err
	}
	return s.outcome, nil
}

type stubOrderRepo struct {
	orders  []models.Order
	listErr error
}

func (s *stubOrderRepo) Create(_ context.Context, order models.Order) (models.Order, error) {
	return order, nil
}
func (s *stubOrderRepo) AttachProviderReference(context.Context, int64, string) error { return nil }
func (s *stubOrderRepo) MarkPaidByID(context.Context, int64) error                    { return nil }
func (s *stubOrderRepo) MarkPaidByReference(context.Context, string) error            { return nil }
func (s *stubOrderRepo) FindByProviderReference(context.Context, string) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) List(context.Context, repositories.OrderFilter) ([]models.Order, error) {
	return s.orders, s.listErr
}

type stubPaymentRepo struct {
	payments []models.Payment
}

func (s *stubPaymentRepo) Insert(context.Context, models.Payment) (bool, error) { return true, nil }
func (s *stubPaymentRepo) ExistsByIdempotencyKey(context.Context, string) (bool, error) {
	return false, nil
}
func (s *stubPaymentRepo) List(context.Context, repositories.PaymentFilter) ([]models.Payment, error) {
	return s.payments, nil
}

func sampleOrder() models.Order {
	ref := "ch_abc"
	return models.Order{
		ID:                1,
		CustomerName:      "Thandi M",
		CustomerEmail:     "thandi@example.com",
		ServiceID:         "s4",
		ServiceName:       "Strategy Consulting (1 Hour)",
		TotalAmount:       80000,
		DepositAmount:     40000,
		Currency:          "ZAR",
		Status:            pkg.OrderStatusPaid,
		Provider:          pkg.ProviderYoco,
		ProviderReference: &ref,
		CreatedAt:         time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func samplePayment() models.Payment {
	orderID := int64(1)
	return models.Payment{
		ID:                    uuid.New(),
		OrderID:               &orderID,
		Provider:              pkg.ProviderYoco,
		ProviderChargeID:      "ch_abc",
		ProviderTransactionID: "tx_1",
		IdempotencyKey:        "tx_1",
		Amount:                40000,
		Currency:              "ZAR",
		Status:                pkg.PaymentStatusSucceeded,
		Raw:                   []byte(`{}`),
	}
}
