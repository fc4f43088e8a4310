package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/services"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	logger  *zap.Logger
	service services.CheckoutService
	yoco    providers.PaymentProvider
	paystack providers.PaymentProvider
	paypal  providers.PaymentProvider
}

func NewCheckoutHandler(logger *zap.Logger, svc services.CheckoutService, yoco, paystack, paypal providers.PaymentProvider) *CheckoutHandler {
	return &CheckoutHandler{logger: logger, service: svc, yoco: yoco, paystack: paystack, paypal: paypal}
}

// RegisterRoutes registers the create-charge endpoints on the rate-limited group.
func (h *CheckoutHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/create-yoco-charge", h.createCharge(h.yoco))
	r.POST("/create-paystack-charge", h.createCharge(h.paystack))
	r.POST("/create-paypal-order", h.createCharge(h.paypal))
}

func (h *CheckoutHandler) createCharge(provider providers.PaymentProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, err := utils.GetTraceID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
				Code:    pkg.ErrServerCode.Code,
				Message: err.Error(),
			})
			return
		}

		var req views.CreateChargeRequest
		if err = c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
				Code:    pkg.ErrInvalidInputCode.Code,
				Message: "service ID, customer name, and a valid email are required",
				Details: err.Error(),
			})
			return
		}

		resp, err := h.service.CreateCharge(c.Request.Context(), traceID, provider, req)
		if err != nil {
			errResp := pkg.ToErrorResponse(h.logger, traceID, err)
			c.JSON(errResp.Status, errResp)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
