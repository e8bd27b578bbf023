package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTTTL            = "24h"
	defaultRedisAddr         = "localhost:6379"
	defaultSMTPPort          = "587"
	defaultSettingsCacheTTL  = "5m"
	defaultPaymentDueHours   = "48"
	defaultAbandonedAfter    = "24h"
	defaultReviewRequestDays = "7"
)

type Config struct {
	AppEnv      string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SettingsCacheTTL time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	PaymentDueHours   int
	AbandonedAfter    time.Duration
	ReviewRequestDays int
}

// Load reads .env if present, then the process environment. Only
// DATABASE_URL and JWT_SECRET are hard requirements; everything else has
// a development default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:              envOrDefault("APP_ENV", "development"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		RedisAddr:           envOrDefault("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		MailFrom:            envOrDefault("MAIL_FROM", "no-reply@divemanager.local"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.SettingsCacheTTL, err = parseDuration("SETTINGS_CACHE_TTL", defaultSettingsCacheTTL); err != nil {
		return nil, err
	}
	if cfg.AbandonedAfter, err = parseDuration("AUTOMATION_ABANDONED_AFTER", defaultAbandonedAfter); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = parseInt("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.PaymentDueHours, err = parseInt("PAYMENT_DUE_HOURS", defaultPaymentDueHours); err != nil {
		return nil, err
	}
	if cfg.ReviewRequestDays, err = parseInt("AUTOMATION_REVIEW_DAYS", defaultReviewRequestDays); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDuration(name, def string) (time.Duration, error) {
	raw := envOrDefault(name, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	return d, nil
}

func parseInt(name, def string) (int, error) {
	raw := envOrDefault(name, def)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", name, raw, err)
	}
	return n, nil
}
