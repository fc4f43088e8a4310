package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/views"
	"go.uber.org/zap"
)

// ProviderReporter is the subset of a provider adapter the status endpoint needs.
type ProviderReporter interface {
	Configured() bool
	WebhookConfigured() bool
}

type BaseHandler struct {
	logger    *zap.Logger
	providers map[pkg.Provider]ProviderReporter
}

func NewBaseHandler(logger *zap.Logger, providers map[pkg.Provider]ProviderReporter) *BaseHandler {
	return &BaseHandler{logger: logger, providers: providers}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/status", b.GetStatus)
}

func (b *BaseHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetStatus reports configuration flags for smoke tests and quick checks.
// Flags only; never secrets.
func (b *BaseHandler) GetStatus(c *gin.Context) {
	resp := views.StatusResponse{
		OK:        true,
		Providers: make(map[string]views.ProviderStatus, len(b.providers)),
	}
	for name, provider := range b.providers {
		resp.Providers[string(name)] = views.ProviderStatus{
			Configured:        provider.Configured(),
			WebhookConfigured: provider.WebhookConfigured(),
		}
	}
	resp.Storage.Configured = true // reaching here means the pool came up
	c.JSON(http.StatusOK, resp)
}
