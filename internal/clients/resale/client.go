// Package resale is the peer-to-peer resale marketplace connector.
package resale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clients/listings"
	"github.com/vintagescan/pricer/internal/domain"
)

// Confidence curve: 40 + 2n, capped at 85.
const (
	confidenceBase       = 40
	confidencePerListing = 2
	confidenceCeiling    = 85
)

const listingURLPrefix = "https://www.grailed.com/listings/"

// Config configures the connector.
type Config struct {
	BaseURL        string
	Enabled        bool
	MaxResults     int
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Client fetches sold resale listings.
type Client struct {
	http  *resty.Client
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a resale connector.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeaders(map[string]string{
				"Accept":           "application/json",
				"User-Agent":       "Mozilla/5.0 (compatible; VintageScanBot/1.0)",
				"X-Requested-With": "XMLHttpRequest",
			}),
		cfg:   cfg,
		log:   log.With().Str("source", string(domain.SourceResaleMarket)).Logger(),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Name implements domain.PriceSource.
func (c *Client) Name() domain.SourceType {
	return domain.SourceResaleMarket
}

// Enabled implements domain.PriceSource.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

// Fetch implements domain.PriceSource. Rate-limited attempts are retried
// with exponential backoff; every other failure returns immediately.
func (c *Client) Fetch(ctx context.Context, q domain.SearchQuery, rate float64) (*domain.PriceEstimate, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		estimate, err := c.fetchOnce(ctx, q, rate)
		if err == nil {
			return estimate, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
		if attempt == c.cfg.MaxRetries-1 {
			break
		}

		delay := c.backoff(attempt)
		c.log.Warn().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Rate limited, retrying")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
		}
	}
	return nil, lastErr
}

// backoff returns base * 2^attempt (2s, 4s, 8s with the default base).
func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
}

type listingsResponse struct {
	Data []listingItem `json:"data"`
}

type listingItem struct {
	ID        json.RawMessage    `json:"id"`
	Title     string             `json:"title"`
	Name      string             `json:"name"`
	Price     json.RawMessage    `json:"price"`
	PriceI18n map[string]float64 `json:"price_i18n"`
	SoldAt    string             `json:"sold_at"`
}

func (c *Client) fetchOnce(ctx context.Context, q domain.SearchQuery, rate float64) (*domain.PriceEstimate, error) {
	if !c.cfg.Enabled {
		return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: domain.ErrSourceDisabled}
	}

	query := listings.BuildSearchKeywords(q)
	c.log.Info().Str("query", query).Msg("Fetching resale listings")

	items, err := c.fetchListings(ctx, query)
	if err != nil {
		c.log.Error().Err(err).Str("query", query).Msg("Resale request failed")
		return nil, err
	}
	if len(items) == 0 {
		return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: domain.ErrNoListingsFound}
	}

	summary, err := listings.Summarize(items, listings.Options{FilterOutliers: true, RecentFirst: true})
	if err != nil {
		return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: err}
	}

	confidence := listings.Confidence(len(items), confidenceBase, confidencePerListing, confidenceCeiling)
	estimate := listings.NewEstimate(domain.SourceResaleMarket, summary, len(items), confidence, rate, c.now())

	c.log.Info().
		Float64("avg_price", summary.Avg).
		Int("listing_count", len(items)).
		Int("used", summary.Used).
		Int("confidence", confidence).
		Msg("Resale listings fetched")

	return estimate, nil
}

func (c *Client) fetchListings(ctx context.Context, query string) ([]listings.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    query,
			"sold":     "true",
			"sort":     "price_asc",
			"per_page": strconv.Itoa(c.cfg.MaxResults),
		}).
		Get("/listings")
	if err != nil {
		return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &domain.SourceError{
			Source:      domain.SourceResaleMarket,
			Err:         domain.ErrSourceUnavailable,
			StatusCode:  resp.StatusCode(),
			RateLimited: true,
		}
	}
	if resp.IsError() {
		return nil, &domain.SourceError{
			Source:     domain.SourceResaleMarket,
			Err:        fmt.Errorf("%w: HTTP %d", domain.ErrSourceUnavailable, resp.StatusCode()),
			StatusCode: resp.StatusCode(),
		}
	}

	var payload listingsResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &domain.SourceError{Source: domain.SourceResaleMarket, Err: fmt.Errorf("%w: malformed payload: %v", domain.ErrSourceUnavailable, err)}
	}

	out := make([]listings.Listing, 0, len(payload.Data))
	for _, item := range payload.Data {
		out = append(out, toListing(item))
	}
	return out, nil
}

func toListing(item listingItem) listings.Listing {
	id := strings.Trim(string(item.ID), `"`)
	title := item.Title
	if title == "" {
		title = item.Name
	}
	if title == "" {
		title = "Unknown"
	}

	price := parsePrice(item.Price)
	if price <= 0 {
		price = item.PriceI18n[domain.CurrencyUSD]
	}

	l := listings.Listing{
		Title: title,
		URL:   listingURLPrefix + id,
		Price: price,
	}
	if item.SoldAt != "" {
		if t, err := time.Parse(time.RFC3339, item.SoldAt); err == nil {
			l.SoldAt = &t
		}
	}
	return l
}

// parsePrice accepts both numeric and string encodings.
func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable reports whether the connector would retry err.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && domain.IsRateLimited(err)
}
