package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PRICER_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 0.4, cfg.CompletedSales.Weight)
	assert.Equal(t, 0.3, cfg.ResaleMarket.Weight)
	assert.Equal(t, 0.3, cfg.AIWeight)
	assert.Equal(t, 10*time.Second, cfg.CompletedSales.Timeout)
	assert.Equal(t, 15*time.Second, cfg.ResaleMarket.Timeout)
	assert.Equal(t, 50, cfg.CompletedSales.MaxResults)
	assert.Equal(t, 20, cfg.ResaleMarket.MaxResults)
	assert.Equal(t, 3, cfg.ResaleMarket.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.PriceCacheTTL)
	assert.Equal(t, 6*time.Hour, cfg.ExchangeRate.TTL)
	assert.Equal(t, 1334.0, cfg.ExchangeRate.DefaultRate)
	assert.Equal(t, 70, cfg.AIConfidence)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRICER_DATA_DIR", t.TempDir())
	t.Setenv("PRICER_PORT", "9090")
	t.Setenv("RESALE_TIMEOUT", "30")
	t.Setenv("PRICE_CACHE_TTL", "12h")
	t.Setenv("RESALE_ENABLED", "false")
	t.Setenv("AI_WEIGHT", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ResaleMarket.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.PriceCacheTTL)
	assert.False(t, cfg.ResaleMarket.Enabled)
	assert.Equal(t, 0.5, cfg.AIWeight)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PRICER_DATA_DIR", t.TempDir())
	t.Setenv("PRICER_PORT", "not-a-number")
	t.Setenv("SOLD_LISTINGS_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.CompletedSales.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           8080,
			DatabaseDriver: DriverSQLite,
			CompletedSales: SourceConfig{Weight: 0.4, Timeout: time.Second},
			ResaleMarket:   SourceConfig{Weight: 0.3, Timeout: time.Second},
			AIWeight:       0.3,
			AIConfidence:   70,
			PriceCacheTTL:  time.Hour,
			ExchangeRate:   ExchangeRateConfig{TTL: time.Hour, DefaultRate: 1334},
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DatabaseDriver = DriverPostgres }},
		{"weight above one", func(c *Config) { c.AIWeight = 1.5 }},
		{"all weights zero", func(c *Config) {
			c.AIWeight, c.CompletedSales.Weight, c.ResaleMarket.Weight = 0, 0, 0
		}},
		{"zero timeout", func(c *Config) { c.ResaleMarket.Timeout = 0 }},
		{"zero default rate", func(c *Config) { c.ExchangeRate.DefaultRate = 0 }},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
