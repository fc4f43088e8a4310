package handlers

import (
	"crypto/subtle"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
	"go.uber.org/zap"
)

// AdminConfig carries the operator credentials and token settings.
type AdminConfig struct {
	Username  string
	Password  string
	JwtSecret string
	JwtExpiry time.Duration
}

// AdminHandler serves the read-only operator surface: login, order and
// payment listings, CSV export.
type AdminHandler struct {
	logger      *zap.Logger
	cfg         AdminConfig
	orderRepo   repositories.OrderRepository
	paymentRepo repositories.PaymentRepository
}

func NewAdminHandler(logger *zap.Logger, cfg AdminConfig, orderRepo repositories.OrderRepository, paymentRepo repositories.PaymentRepository) *AdminHandler {
	return &AdminHandler{logger: logger, cfg: cfg, orderRepo: orderRepo, paymentRepo: paymentRepo}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/admin/login", h.Login)

	authed := r.Group("/admin")
	authed.Use(h.authRequired())
	authed.GET("/orders", h.ListOrders)
	authed.GET("/orders.csv", h.ExportOrdersCSV)
	authed.GET("/payments", h.ListPayments)
}

func (h *AdminHandler) Login(c *gin.Context) {
	if h.cfg.Username == "" || h.cfg.Password == "" || h.cfg.JwtSecret == "" {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrConfigMissingCode.Code,
			Message: "admin login not configured",
		})
		return
	}

	var req views.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "username and password are required",
		})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Password)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, pkg.ErrorResponse{
			Code:    pkg.ErrUnauthorizedCode.Code,
			Message: "invalid credentials",
		})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"sub":  req.Username,
		"iat":  now.Unix(),
		"exp":  now.Add(h.cfg.JwtExpiry).Unix(),
	})
	signed, err := token.SignedString([]byte(h.cfg.JwtSecret))
	if err != nil {
		h.logger.Error("failed to sign admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: pkg.ErrServerCode.Message,
		})
		return
	}

	c.JSON(http.StatusOK, views.AdminLoginResponse{
		Token:     signed,
		ExpiresIn: int(h.cfg.JwtExpiry.Seconds()),
	})
}

func (h *AdminHandler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.JwtSecret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.ErrorResponse{
				Code:    pkg.ErrConfigMissingCode.Code,
				Message: "admin auth not configured",
			})
			return
		}

		header := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || utils.IsEmpty(tokenStr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.ErrorResponse{
				Code:    pkg.ErrUnauthorizedCode.Code,
				Message: "missing bearer token",
			})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.cfg.JwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.ErrorResponse{
				Code:    pkg.ErrUnauthorizedCode.Code,
				Message: "invalid token",
			})
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["role"] != "admin" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.ErrorResponse{
				Code:    pkg.ErrUnauthorizedCode.Code,
				Message: "insufficient role",
			})
			return
		}
		c.Next()
	}
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderRepo.List(c.Request.Context(), orderFilterFromQuery(c))
	if err != nil {
		h.respondStorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

var orderCSVHeader = []string{
	"id", "customer_name", "customer_email", "service_id", "service_name",
	"total_amount", "deposit_amount", "currency", "status", "provider",
	"provider_reference", "created_at",
}

func (h *AdminHandler) ExportOrdersCSV(c *gin.Context) {
	orders, err := h.orderRepo.List(c.Request.Context(), orderFilterFromQuery(c))
	if err != nil {
		h.respondStorageError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write(orderCSVHeader)
	for _, o := range orders {
		ref := ""
		if o.ProviderReference != nil {
			ref = *o.ProviderReference
		}
		_ = w.Write([]string{
			strconv.FormatInt(o.ID, 10),
			o.CustomerName,
			o.CustomerEmail,
			o.ServiceID,
			o.ServiceName,
			strconv.FormatInt(o.TotalAmount, 10),
			strconv.FormatInt(o.DepositAmount, 10),
			o.Currency,
			string(o.Status),
			string(o.Provider),
			ref,
			o.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	filter := repositories.PaymentFilter{
		ID:            c.Query("id"),
		ChargeID:      c.Query("charge_id"),
		TransactionID: c.Query("transaction_id"),
		Limit:         limitFromQuery(c),
	}
	payments, err := h.paymentRepo.List(c.Request.Context(), filter)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payments})
}

func (h *AdminHandler) respondStorageError(c *gin.Context, err error) {
	traceID, _ := utils.GetTraceID(c)
	errResp := pkg.ToErrorResponse(h.logger, traceID, pkg.HandleSQLError(traceID, h.logger, err))
	c.JSON(errResp.Status, errResp)
}

func orderFilterFromQuery(c *gin.Context) repositories.OrderFilter {
	filter := repositories.OrderFilter{
		Email: c.Query("email"),
		Limit: limitFromQuery(c),
	}
	if id, err := strconv.ParseInt(c.Query("id"), 10, 64); err == nil {
		filter.ID = id
	}
	return filter
}

func limitFromQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
