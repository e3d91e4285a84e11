package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// Config holds application configuration loaded from the environment. The
// pricing constants live here, not in code: schedules and fee tiers are an
// immutable input to the engine, never module-level mutable state.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	CurrencyCode       string

	TaxRate               decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	StandardDeliveryFee   decimal.Decimal
	BulkDeliveryFee       decimal.Decimal
	SettlementEpsilon     decimal.Decimal

	ListingCacheTTL     time.Duration
	IdempotencyTTL      time.Duration
	QuoteRateLimit      string
	ExpirySweepInterval time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "USD"),

		ListingCacheTTL:     parseDuration(k.String("LISTING_CACHE_TTL"), "5m"),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		QuoteRateLimit:      valueOrDefault(k.String("QUOTE_RATE_LIMIT"), "120-M"),
		ExpirySweepInterval: parseDuration(k.String("EXPIRY_SWEEP_INTERVAL"), "1h"),
	}

	var err error
	if cfg.TaxRate, err = parseDecimal(k.String("PRICING_TAX_RATE"), "0.0825"); err != nil {
		return nil, fmt.Errorf("PRICING_TAX_RATE: %w", err)
	}
	if cfg.FreeDeliveryThreshold, err = parseDecimal(k.String("PRICING_FREE_DELIVERY_THRESHOLD"), "150"); err != nil {
		return nil, fmt.Errorf("PRICING_FREE_DELIVERY_THRESHOLD: %w", err)
	}
	if cfg.StandardDeliveryFee, err = parseDecimal(k.String("PRICING_DELIVERY_FEE_STANDARD"), "50"); err != nil {
		return nil, fmt.Errorf("PRICING_DELIVERY_FEE_STANDARD: %w", err)
	}
	if cfg.BulkDeliveryFee, err = parseDecimal(k.String("PRICING_DELIVERY_FEE_BULK"), "100"); err != nil {
		return nil, fmt.Errorf("PRICING_DELIVERY_FEE_BULK: %w", err)
	}
	if cfg.SettlementEpsilon, err = parseDecimal(k.String("SETTLEMENT_EPSILON"), "0.01"); err != nil {
		return nil, fmt.Errorf("SETTLEMENT_EPSILON: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// Rates assembles the immutable pricing rates passed into the engine.
func (c *Config) Rates() pricing.Rates {
	return pricing.Rates{
		TaxRate:               c.TaxRate,
		FreeDeliveryThreshold: c.FreeDeliveryThreshold,
		StandardDeliveryFee:   c.StandardDeliveryFee,
		BulkDeliveryFee:       c.BulkDeliveryFee,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseDecimal(value, fallback string) (decimal.Decimal, error) {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	return decimal.NewFromString(base)
}

// LoadForTests allows tests to override environment variables without
// touching the real environment permanently.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
