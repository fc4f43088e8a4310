package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/cache"
	"github.com/vaughnsterling/payments-api/pkg/database"
	middleware "github.com/vaughnsterling/payments-api/pkg/middlewares"
	"github.com/vaughnsterling/payments-api/pkg/repositories"
	"github.com/vaughnsterling/payments-api/services/payments-api/configs"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/handlers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/providers"
	"github.com/vaughnsterling/payments-api/services/payments-api/internal/services"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Rate limiter: Redis-backed when configured, process-local otherwise.
	window := time.Duration(cfg.RateLimitWindow) * time.Second
	var limiter pkg.RateLimiter
	closeRedis := func() {}
	if cfg.RedisAddr != "" {
		redisClient, closer, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		closeRedis = closer
		limiter = pkg.NewDistributedLimiter(redisClient, cfg.RateLimitMax, window, logger)
	} else {
		limiter = pkg.NewFixedWindowLimiter(cfg.RateLimitMax, window)
	}

	// Provider adapters
	yoco := providers.NewYoco(logger, providers.YocoConfig{
		APIURL:        cfg.YocoAPIURL,
		SecretKey:     cfg.YocoSecretKey,
		WebhookSecret: cfg.YocoWebhookSecret,
	})
	paystack := providers.NewPaystack(logger, providers.PaystackConfig{
		APIURL:        cfg.PaystackAPIURL,
		SecretKey:     cfg.PaystackSecretKey,
		WebhookSecret: cfg.PaystackWebhookKey,
	})
	paypal := providers.NewPaypal(logger, providers.PaypalConfig{
		APIURL:    cfg.PaypalAPIURL,
		ClientID:  cfg.PaypalClientID,
		Secret:    cfg.PaypalSecret,
		WebhookID: cfg.PaypalWebhookID,
	})

	// Setup dependencies
	orderRepo := repositories.NewOrderRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	notifier := services.NewWebhookAlertNotifier(logger, cfg.MonitoringWebhookURL)
	checkoutService := services.NewCheckoutService(logger, orderRepo)
	reconcileService := services.NewReconcileService(logger, orderRepo, paymentRepo, notifier)

	baseHandler := handlers.NewBaseHandler(logger, map[pkg.Provider]handlers.ProviderReporter{
		pkg.ProviderYoco:     yoco,
		pkg.ProviderPaystack: paystack,
		pkg.ProviderPaypal:   paypal,
	})
	checkoutHandler := handlers.NewCheckoutHandler(logger, checkoutService, yoco, paystack, paypal)
	webhookHandler := handlers.NewWebhookHandler(logger, reconcileService, yoco, paystack, paypal)
	adminHandler := handlers.NewAdminHandler(logger, handlers.AdminConfig{
		Username:  cfg.AdminUsername,
		Password:  cfg.AdminPassword,
		JwtSecret: cfg.AdminJwtSecret,
		JwtExpiry: time.Duration(cfg.AdminJwtExpiry) * time.Second,
	}, orderRepo, paymentRepo)

	// Router
	r := gin.Default()

	api := r.Group("/api")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	// Public charge creation is rate limited; webhooks are not (the provider
	// retries on 429, and authenticity is enforced by signature instead).
	public := api.Group("")
	public.Use(middleware.RateLimit(limiter))
	checkoutHandler.RegisterRoutes(public)

	webhookHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		disconnect()
		closeRedis()
	}

	return srv, cleanup, nil
}
