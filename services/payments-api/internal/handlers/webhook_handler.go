package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/services"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
	"go.uber.org/zap"
)

// Cap webhook bodies well above any real provider payload.
const maxWebhookBody = 1 << 20 // 1 MiB

type WebhookHandler struct {
	logger    *zap.Logger
	reconcile services.ReconcileService
	yoco      providers.PaymentProvider
	paystack  providers.PaymentProvider
	paypal    providers.PaymentProvider
}

func NewWebhookHandler(logger *zap.Logger, reconcile services.ReconcileService, yoco, paystack, paypal providers.PaymentProvider) *WebhookHandler {
	return &WebhookHandler{logger: logger, reconcile: reconcile, yoco: yoco, paystack: paystack, paypal: paypal}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/yoco-webhook", h.handleWebhook(h.yoco))
	r.POST("/paystack-webhook", h.handleWebhook(h.paystack))
	r.POST("/paypal-webhook", h.handleWebhook(h.paypal))
}

func (h *WebhookHandler) handleWebhook(provider providers.PaymentProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, err := utils.GetTraceID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
				Code:    pkg.ErrServerCode.Code,
				Message: err.Error(),
			})
			return
		}

		// The signature covers the exact bytes received; read raw, never re-serialize.
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
				Code:    pkg.ErrInvalidInputCode.Code,
				Message: "unreadable body",
			})
			return
		}

		outcome, err := h.reconcile.ProcessWebhook(c.Request.Context(), traceID, provider, body, c.Request.Header)
		if err != nil {
			errResp := pkg.ToErrorResponse(h.logger, traceID, err)
			c.JSON(errResp.Status, errResp)
			return
		}

		h.logger.Info("webhook processed",
			zap.String(pkg.TraceId, traceID),
			zap.String("provider", string(provider.Name())),
			zap.String("outcome", string(outcome)))
		c.JSON(http.StatusOK, views.WebhookResponse{Received: true})
	}
}
