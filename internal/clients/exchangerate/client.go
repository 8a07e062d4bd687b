// Package exchangerate provides the origin-to-local currency rate with caching.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clientdata"
	"github.com/vintagescan/pricer/internal/domain"
)

// Config configures the exchangerate-api.com client.
type Config struct {
	BaseURL     string
	APIKey      string
	From        string
	To          string
	TTL         time.Duration
	DefaultRate float64
	Timeout     time.Duration
}

// Client for exchangerate-api.com
type Client struct {
	http      *resty.Client
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
	cfg       Config
	now       func() time.Time
}

// NewClient creates a new exchange rate client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = clientdata.TTLExchangeRate
	}
	if cfg.From == "" {
		cfg.From = domain.CurrencyUSD
	}
	if cfg.To == "" {
		cfg.To = domain.CurrencyKRW
	}

	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout),
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", "exchangerate").Logger(),
		cfg:       cfg,
		now:       time.Now,
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ErrorType      string  `json:"error-type"`
	ConversionRate float64 `json:"conversion_rate"`
}

func (c *Client) cacheKey() string {
	return strings.ToLower(c.cfg.From + "_" + c.cfg.To)
}

// GetRate returns the current rate. It never fails: a fresh cached rate is
// preferred, then the API, then a stale cached rate, then the configured default.
func (c *Client) GetRate(ctx context.Context) domain.ExchangeRate {
	key := c.cacheKey()

	if c.cacheRepo != nil {
		var cached domain.ExchangeRate
		if c.cacheRepo.GetValue(ctx, key, clientdata.SourceExchangeRate, &cached) && cached.Rate > 0 {
			cached.Cached = true
			return cached
		}
	}

	rate, err := c.fetch(ctx)
	if err == nil {
		fresh := domain.ExchangeRate{Rate: rate, UpdatedAt: c.now()}
		if c.cacheRepo != nil {
			if err := c.cacheRepo.SetValue(ctx, key, "", clientdata.SourceExchangeRate, fresh, c.cfg.TTL); err != nil {
				c.log.Warn().Err(err).Str("pair", key).Msg("Failed to cache exchange rate")
			}
		}
		c.log.Info().Str("pair", key).Float64("rate", rate).Msg("Fetched rate")
		return fresh
	}

	if c.cacheRepo != nil {
		var stale domain.ExchangeRate
		if c.cacheRepo.GetStaleValue(ctx, key, clientdata.SourceExchangeRate, &stale) && stale.Rate > 0 {
			c.log.Warn().
				Err(err).
				Str("pair", key).
				Float64("rate", stale.Rate).
				Msg("API failed, using stale cached rate")
			stale.Cached = true
			return stale
		}
	}

	c.log.Warn().
		Err(err).
		Str("pair", key).
		Float64("rate", c.cfg.DefaultRate).
		Msg("Using default exchange rate")
	return domain.ExchangeRate{Rate: c.cfg.DefaultRate, UpdatedAt: c.now()}
}

func (c *Client) fetch(ctx context.Context) (float64, error) {
	if c.cfg.APIKey == "" {
		return 0, fmt.Errorf("exchange rate API key not configured")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"key":  c.cfg.APIKey,
			"from": c.cfg.From,
			"to":   c.cfg.To,
		}).
		Get("/v6/{key}/pair/{from}/{to}")
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode())
	}

	var result pairResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Result != "success" {
		return 0, fmt.Errorf("API returned result %q (%s)", result.Result, result.ErrorType)
	}
	if result.ConversionRate <= 0 {
		return 0, fmt.Errorf("invalid conversion rate %v", result.ConversionRate)
	}

	return result.ConversionRate, nil
}
