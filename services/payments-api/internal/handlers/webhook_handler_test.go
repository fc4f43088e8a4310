package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/services"
	"go.uber.org/zap"
)

func newWebhookRouter(reconcile services.ReconcileService) *gin.Engine {
	yoco := &stubProvider{name: pkg.ProviderYoco}
	paystack := &stubProvider{name: pkg.ProviderPaystack}
	paypal := &stubProvider{name: pkg.ProviderPaypal}
	h := NewWebhookHandler(zap.NewNop(), reconcile, yoco, paystack, paypal)
	return newAPIRouter(h.RegisterRoutes)
}

func TestWebhookAcknowledgesProcessedDelivery(t *testing.T) {
	stub := &stubReconcileService{outcome: services.OutcomeRecorded}
	r := newWebhookRouter(stub)

	body := `{"type":"payment.succeeded","data":{"id":"ch_1"}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/yoco-webhook", body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	// The exact raw bytes must reach the reconciler, untouched.
	assert.Equal(t, body, string(stub.lastBody))
	assert.Equal(t, pkg.ProviderYoco, stub.provider)
}

func TestWebhookDuplicateDeliveryStillAcknowledged(t *testing.T) {
	r := newWebhookRouter(&stubReconcileService{outcome: services.OutcomeDuplicate})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/paystack-webhook", `{}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestWebhookInvalidSignatureReturns400(t *testing.T) {
	stub := &stubReconcileService{
		err: pkg.NewAppError(pkg.ErrWebhookSignatureCode, "invalid signature", pkg.ErrInvalidSignature),
	}
	r := newWebhookRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/yoco-webhook", `{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "WEBHOOK_INVALID_SIGNATURE")
}

func TestWebhookVerificationFailureReturns500(t *testing.T) {
	stub := &stubReconcileService{
		err: pkg.NewAppError(pkg.ErrWebhookVerificationCode, "verification API unreachable", nil),
	}
	r := newWebhookRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/paypal-webhook", `{}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "WEBHOOK_VERIFICATION_FAILED")
}

func TestWebhookRoutesDispatchToMatchingProvider(t *testing.T) {
	stub := &stubReconcileService{outcome: services.OutcomeRecorded}
	r := newWebhookRouter(stub)

	for path, provider := range map[string]pkg.Provider{
		"/api/yoco-webhook":     pkg.ProviderYoco,
		"/api/paystack-webhook": pkg.ProviderPaystack,
		"/api/paypal-webhook":   pkg.ProviderPaypal,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPost, path, `{}`))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, provider, stub.provider)
	}
}
