package configs

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr string `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	// Rate limiting for public endpoints
	RateLimitMax    int    `mapstructure:"RATE_LIMIT_MAX" validate:"min=0"`
	RateLimitWindow int    `mapstructure:"RATE_LIMIT_WINDOW" validate:"min=1"` // seconds
	RedisAddr       string `mapstructure:"REDIS_ADDR"`                         // optional; enables cross-instance limiting
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`

	// Payment providers. A provider left unconfigured answers 500 on its
	// endpoints; /api/status reports the flags.
	YocoAPIURL         string `mapstructure:"YOCO_API_URL"`
	YocoSecretKey      string `mapstructure:"YOCO_SECRET_KEY"`
	YocoWebhookSecret  string `mapstructure:"YOCO_WEBHOOK_SECRET"`
	PaystackAPIURL     string `mapstructure:"PAYSTACK_API_URL"`
	PaystackSecretKey  string `mapstructure:"PAYSTACK_SECRET_KEY"`
	PaystackWebhookKey string `mapstructure:"PAYSTACK_WEBHOOK_SECRET"`
	PaypalAPIURL       string `mapstructure:"PAYPAL_API_URL"`
	PaypalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PaypalSecret       string `mapstructure:"PAYPAL_SECRET"`
	PaypalWebhookID    string `mapstructure:"PAYPAL_WEBHOOK_ID"`

	// Admin surface
	AdminUsername  string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
	AdminJwtSecret string `mapstructure:"ADMIN_JWT_SECRET"`
	AdminJwtExpiry int    `mapstructure:"ADMIN_JWT_EXPIRES" validate:"min=1"` // seconds

	// Operational alerting (best-effort JSON POSTs)
	MonitoringWebhookURL string `mapstructure:"MONITORING_WEBHOOK_URL"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("RATE_LIMIT_MAX", "60")
	viper.SetDefault("RATE_LIMIT_WINDOW", "60")
	viper.SetDefault("PAYSTACK_API_URL", "https://api.paystack.co")
	viper.SetDefault("PAYPAL_API_URL", "https://api-m.sandbox.paypal.com")
	viper.SetDefault("ADMIN_JWT_EXPIRES", "86400")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/payments-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
