// Package soldlistings is the completed-sales marketplace connector. It queries
// a Finding-API style endpoint for sold items and turns them into a
// single USD price estimate.
package soldlistings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/clients/listings"
	"github.com/vintagescan/pricer/internal/domain"
)

// Confidence curve: 50 + floor(n/2), capped at 90.
const (
	confidenceBase       = 50
	confidencePerListing = 0.5
	confidenceCeiling    = 90
)

// Config configures the connector.
type Config struct {
	BaseURL    string
	AppID      string
	Enabled    bool
	MaxResults int
	Timeout    time.Duration
}

// Client fetches completed sales.
type Client struct {
	http *resty.Client
	cfg  Config
	log  zerolog.Logger
	now  func() time.Time
}

// NewClient creates a completed-sales connector.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	return &Client{
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		cfg: cfg,
		log: log.With().Str("source", string(domain.SourceCompletedSales)).Logger(),
		now: time.Now,
	}
}

// Name implements domain.PriceSource.
func (c *Client) Name() domain.SourceType {
	return domain.SourceCompletedSales
}

// Enabled implements domain.PriceSource.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

// findingResponse mirrors the array-wrapped JSON of the Finding API.
type findingResponse struct {
	FindCompletedItemsResponse []struct {
		Ack          []string `json:"ack"`
		SearchResult []struct {
			Count string        `json:"@count"`
			Item  []findingItem `json:"item"`
		} `json:"searchResult"`
	} `json:"findCompletedItemsResponse"`
}

type findingItem struct {
	Title         []string `json:"title"`
	ViewItemURL   []string `json:"viewItemURL"`
	SellingStatus []struct {
		CurrentPrice []struct {
			Value      string `json:"__value__"`
			CurrencyID string `json:"@currencyId"`
		} `json:"currentPrice"`
	} `json:"sellingStatus"`
	ListingInfo []struct {
		EndTime []string `json:"endTime"`
	} `json:"listingInfo"`
}

// Fetch implements domain.PriceSource.
func (c *Client) Fetch(ctx context.Context, q domain.SearchQuery, rate float64) (*domain.PriceEstimate, error) {
	if !c.cfg.Enabled {
		return nil, c.sourceErr(domain.ErrSourceDisabled, 0)
	}
	if c.cfg.AppID == "" {
		return nil, c.sourceErr(fmt.Errorf("%w: credentials not configured", domain.ErrSourceUnavailable), 0)
	}

	keywords := listings.BuildSearchKeywords(q)
	c.log.Info().Str("keywords", keywords).Msg("Fetching completed sales")

	items, err := c.fetchItems(ctx, keywords)
	if err != nil {
		c.log.Error().Err(err).Str("keywords", keywords).Msg("Completed sales request failed")
		return nil, err
	}
	if len(items) == 0 {
		return nil, c.sourceErr(domain.ErrNoListingsFound, 0)
	}

	parsed := c.parseItems(items)
	summary, err := listings.Summarize(parsed, listings.Options{RecentFirst: true})
	if err != nil {
		return nil, c.sourceErr(err, 0)
	}

	confidence := listings.Confidence(len(items), confidenceBase, confidencePerListing, confidenceCeiling)
	estimate := listings.NewEstimate(domain.SourceCompletedSales, summary, len(items), confidence, rate, c.now())

	c.log.Info().
		Float64("avg_price", summary.Avg).
		Float64("min_price", summary.Min).
		Float64("max_price", summary.Max).
		Int("listing_count", len(items)).
		Int("confidence", confidence).
		Msg("Completed sales fetched")

	return estimate, nil
}

func (c *Client) fetchItems(ctx context.Context, keywords string) ([]findingItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"OPERATION-NAME":                 "findCompletedItems",
			"SERVICE-VERSION":                "1.0.0",
			"SECURITY-APPNAME":               c.cfg.AppID,
			"RESPONSE-DATA-FORMAT":           "JSON",
			"REST-PAYLOAD":                   "true",
			"keywords":                       keywords,
			"paginationInput.entriesPerPage": strconv.Itoa(c.cfg.MaxResults),
			"itemFilter(0).name":             "SoldItemsOnly",
			"itemFilter(0).value":            "true",
			"itemFilter(1).name":             "Condition",
			"itemFilter(1).value(0)":         "3000",
			"itemFilter(1).value(1)":         "4000",
			"itemFilter(1).value(2)":         "5000",
			"itemFilter(1).value(3)":         "6000",
			"sortOrder":                      "EndTimeSoonest",
		}).
		Get(c.cfg.BaseURL)
	if err != nil {
		return nil, c.sourceErr(fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err), 0)
	}
	if resp.IsError() {
		return nil, c.sourceErr(fmt.Errorf("%w: HTTP %d", domain.ErrSourceUnavailable, resp.StatusCode()), resp.StatusCode())
	}

	var payload findingResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, c.sourceErr(fmt.Errorf("%w: malformed payload: %v", domain.ErrSourceUnavailable, err), resp.StatusCode())
	}

	if len(payload.FindCompletedItemsResponse) == 0 || len(payload.FindCompletedItemsResponse[0].SearchResult) == 0 {
		return nil, nil
	}
	return payload.FindCompletedItemsResponse[0].SearchResult[0].Item, nil
}

// parseItems keeps USD listings with a positive numeric price.
func (c *Client) parseItems(items []findingItem) []listings.Listing {
	out := make([]listings.Listing, 0, len(items))
	for _, item := range items {
		if len(item.SellingStatus) == 0 || len(item.SellingStatus[0].CurrentPrice) == 0 {
			continue
		}
		priceData := item.SellingStatus[0].CurrentPrice[0]

		currency := priceData.CurrencyID
		if currency == "" {
			currency = domain.CurrencyUSD
		}
		if currency != domain.CurrencyUSD {
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(priceData.Value), 64)
		if err != nil || price <= 0 {
			c.log.Debug().Str("value", priceData.Value).Msg("Skipping listing without usable price")
			continue
		}

		l := listings.Listing{
			Title: first(item.Title, "Unknown"),
			URL:   first(item.ViewItemURL, ""),
			Price: price,
		}
		if len(item.ListingInfo) > 0 {
			if end := first(item.ListingInfo[0].EndTime, ""); end != "" {
				if t, err := time.Parse(time.RFC3339, end); err == nil {
					l.SoldAt = &t
				}
			}
		}
		out = append(out, l)
	}
	return out
}

func (c *Client) sourceErr(err error, status int) error {
	var se *domain.SourceError
	if errors.As(err, &se) {
		return err
	}
	return &domain.SourceError{Source: domain.SourceCompletedSales, Err: err, StatusCode: status}
}

func first(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
