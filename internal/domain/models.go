// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// SourceType identifies where a price estimate came from.
type SourceType string

const (
	// SourceCompletedSales is a marketplace of completed auction/fixed-price sales.
	SourceCompletedSales SourceType = "completed_sales"
	// SourceResaleMarket is a peer-to-peer resale marketplace.
	SourceResaleMarket SourceType = "resale_market"
	// SourceAI is the image-based AI estimate supplied by the caller.
	SourceAI SourceType = "ai"
)

// Currency codes used by the service.
const (
	CurrencyUSD = "USD"
	CurrencyKRW = "KRW"
)

// SampleListing is a representative listing attached to an estimate.
type SampleListing struct {
	SoldAt *time.Time `json:"sold_at,omitempty" msgpack:"sold_at,omitempty"`
	Title  string     `json:"title" msgpack:"title"`
	URL    string     `json:"url" msgpack:"url"`
	Price  float64    `json:"price" msgpack:"price"`
}

// PriceEstimate is one source's estimate of a product's market price.
// Price is in the origin currency (USD); PriceLocal is converted with the
// exchange rate that was current when the estimate was produced.
type PriceEstimate struct {
	FetchedAt      time.Time       `json:"fetched_at" msgpack:"fetched_at"`
	ListingCount   *int            `json:"listing_count,omitempty" msgpack:"listing_count,omitempty"`
	MinPrice       *float64        `json:"min_price,omitempty" msgpack:"min_price,omitempty"`
	MaxPrice       *float64        `json:"max_price,omitempty" msgpack:"max_price,omitempty"`
	AvgPrice       *float64        `json:"avg_price,omitempty" msgpack:"avg_price,omitempty"`
	Source         SourceType      `json:"source" msgpack:"source"`
	Currency       string          `json:"currency" msgpack:"currency"`
	SampleListings []SampleListing `json:"sample_listings,omitempty" msgpack:"sample_listings,omitempty"`
	Price          float64         `json:"price" msgpack:"price"`
	PriceLocal     float64         `json:"price_local" msgpack:"price_local"`
	Confidence     int             `json:"confidence" msgpack:"confidence"`
}

// PriceRange is an inclusive min/max pair.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AggregatedEstimate is the blended result across all available sources.
type AggregatedEstimate struct {
	Currency       string     `json:"currency"`
	PriceRange     PriceRange `json:"price_range"`
	EstimatedPrice int64      `json:"estimated_price"`
	Confidence     int        `json:"confidence"`
}

// ExchangeRate is the origin-to-local conversion factor.
type ExchangeRate struct {
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
	Rate      float64   `json:"rate" msgpack:"rate"`
	Cached    bool      `json:"cached" msgpack:"-"`
}

// SearchQuery describes the product being priced.
type SearchQuery struct {
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Era         string `json:"era,omitempty"`
}

// MarketPriceResult is the full response of a market price request.
type MarketPriceResult struct {
	CachedAt     *time.Time         `json:"cached_at,omitempty"`
	ExchangeRate *ExchangeRate      `json:"exchange_rate,omitempty"`
	Error        string             `json:"error,omitempty"`
	Sources      []PriceEstimate    `json:"sources"`
	Aggregated   AggregatedEstimate `json:"aggregated"`
}

// NormalizeBrand lowercases a brand and drops separators so "Levi's" and
// "levis" compare equal.
func NormalizeBrand(brand string) string {
	b := strings.ToLower(strings.TrimSpace(brand))
	return strings.NewReplacer("'", "", "’", "", " ", "", "-", "").Replace(b)
}
