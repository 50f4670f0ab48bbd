package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string
	JWTSecret      string

	CORSAllowedOrigins []string
	RateLimit          string // ulule/limiter formatted rate, e.g. 300-M
	RedisURL           string // empty keeps the limiter store in memory
	PosthogAPIKey      string
	PosthogEndpoint    string

	// Notifications
	NATSURL                   string // empty logs notifications instead of publishing them
	NotificationSubjectPrefix string
	SendNotifications         bool

	// Billing ledger
	BillingAPIURL   string
	BillingAPIToken string
	BillingTimeout  time.Duration

	// Payment gateway
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayAPIURL    string // empty generates order ids locally
	GatewayTimeout   time.Duration

	// Fine policy
	CurrencyCode            string
	CurrencyPrecision       int32
	LateFeePercentage       decimal.Decimal
	LateFeeGraceDays        int
	LateFeeMaxAmount        decimal.Decimal
	LateFeeAccrualPeriod    time.Duration
	DefaultFineDueDays      int
	AutoIssueFineOnApproval bool
	BulkMaxBatchSize        int
	BulkConcurrency         int
	OverdueSweepSchedule    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("NOTIFICATION_SUBJECT_PREFIX", "notifications.fines")
	viper.SetDefault("SEND_NOTIFICATIONS", true)
	viper.SetDefault("BILLING_API_URL", "")
	viper.SetDefault("BILLING_API_TOKEN", "")
	viper.SetDefault("BILLING_TIMEOUT", "10s")
	viper.SetDefault("GATEWAY_KEY_ID", "")
	viper.SetDefault("GATEWAY_KEY_SECRET", "")
	viper.SetDefault("GATEWAY_API_URL", "")
	viper.SetDefault("GATEWAY_TIMEOUT", "10s")
	viper.SetDefault("CURRENCY_CODE", "INR")
	viper.SetDefault("CURRENCY_PRECISION", domain.DefaultMoneyPrecision)
	viper.SetDefault("LATE_FEE_PERCENTAGE", "2")
	viper.SetDefault("LATE_FEE_GRACE_DAYS", 15)
	viper.SetDefault("LATE_FEE_MAX_AMOUNT", "0")
	viper.SetDefault("LATE_FEE_ACCRUAL_PERIOD", "720h")
	viper.SetDefault("DEFAULT_FINE_DUE_DAYS", 30)
	viper.SetDefault("AUTO_ISSUE_FINE_ON_APPROVAL", true)
	viper.SetDefault("BULK_MAX_BATCH_SIZE", 100)
	viper.SetDefault("BULK_CONCURRENCY", 8)
	viper.SetDefault("OVERDUE_SWEEP_SCHEDULE", "@every 1h")

	// Environment variables override the defaults and anything loaded from .env.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	cfg.NATSURL = viper.GetString("NATS_URL")
	cfg.NotificationSubjectPrefix = viper.GetString("NOTIFICATION_SUBJECT_PREFIX")
	cfg.SendNotifications = viper.GetBool("SEND_NOTIFICATIONS")

	cfg.BillingAPIURL = viper.GetString("BILLING_API_URL")
	cfg.BillingAPIToken = viper.GetString("BILLING_API_TOKEN")
	cfg.BillingTimeout = durationOrDefault("BILLING_TIMEOUT", 10*time.Second)
	if cfg.BillingAPIURL == "" {
		log.Println("Warning: BILLING_API_URL not set. Billing integration will fail.")
	}

	cfg.GatewayKeyID = viper.GetString("GATEWAY_KEY_ID")
	cfg.GatewayKeySecret = viper.GetString("GATEWAY_KEY_SECRET")
	cfg.GatewayAPIURL = viper.GetString("GATEWAY_API_URL")
	cfg.GatewayTimeout = durationOrDefault("GATEWAY_TIMEOUT", 10*time.Second)
	if cfg.GatewayKeySecret == "" {
		log.Println("Warning: GATEWAY_KEY_SECRET not set. Gateway callbacks cannot be verified.")
	}

	cfg.CurrencyCode = strings.ToUpper(viper.GetString("CURRENCY_CODE"))
	cfg.CurrencyPrecision = viper.GetInt32("CURRENCY_PRECISION")
	cfg.LateFeeGraceDays = viper.GetInt("LATE_FEE_GRACE_DAYS")
	cfg.LateFeeAccrualPeriod = durationOrDefault("LATE_FEE_ACCRUAL_PERIOD", 720*time.Hour)
	cfg.DefaultFineDueDays = viper.GetInt("DEFAULT_FINE_DUE_DAYS")
	cfg.AutoIssueFineOnApproval = viper.GetBool("AUTO_ISSUE_FINE_ON_APPROVAL")
	cfg.BulkMaxBatchSize = viper.GetInt("BULK_MAX_BATCH_SIZE")
	cfg.BulkConcurrency = viper.GetInt("BULK_CONCURRENCY")
	cfg.OverdueSweepSchedule = viper.GetString("OVERDUE_SWEEP_SCHEDULE")

	var err error
	if cfg.LateFeePercentage, err = decimal.NewFromString(viper.GetString("LATE_FEE_PERCENTAGE")); err != nil {
		return nil, fmt.Errorf("invalid LATE_FEE_PERCENTAGE: %w", err)
	}
	if cfg.LateFeeMaxAmount, err = decimal.NewFromString(viper.GetString("LATE_FEE_MAX_AMOUNT")); err != nil {
		return nil, fmt.Errorf("invalid LATE_FEE_MAX_AMOUNT: %w", err)
	}
	if err := cfg.FinePolicy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid fine policy: %w", err)
	}

	return cfg, nil
}

// FinePolicy projects the fine-related settings into the policy the services consume.
func (c *Config) FinePolicy() domain.FinePolicy {
	return domain.FinePolicy{
		LateFee: domain.LateFeePolicy{
			Percentage:    c.LateFeePercentage,
			GraceDays:     c.LateFeeGraceDays,
			MaxAmount:     c.LateFeeMaxAmount,
			AccrualPeriod: c.LateFeeAccrualPeriod,
		},
		CurrencyCode:        c.CurrencyCode,
		CurrencyPrecision:   c.CurrencyPrecision,
		DefaultDueDays:      c.DefaultFineDueDays,
		AutoIssueOnApproval: c.AutoIssueFineOnApproval,
		SendNotifications:   c.SendNotifications,
	}
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
