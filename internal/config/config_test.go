package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":                    "postgres://localhost:5432/consign",
		"REDIS_URL":                       "redis://localhost:6379/0",
		"PRICING_TAX_RATE":                "",
		"PRICING_FREE_DELIVERY_THRESHOLD": "",
		"SETTLEMENT_EPSILON":              "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.0825")))
	require.True(t, cfg.FreeDeliveryThreshold.Equal(decimal.NewFromInt(150)))
	require.True(t, cfg.SettlementEpsilon.Equal(decimal.RequireFromString("0.01")))

	rates := cfg.Rates()
	require.True(t, rates.StandardDeliveryFee.Equal(decimal.NewFromInt(50)))
	require.True(t, rates.BulkDeliveryFee.Equal(decimal.NewFromInt(100)))
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestLoadRejectsBadDecimal(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost:5432/consign",
		"REDIS_URL":        "redis://localhost:6379/0",
		"PRICING_TAX_RATE": "eight percent",
	})
	require.Error(t, err)
}
