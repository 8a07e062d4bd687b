package domain

import "context"

// PriceSource is a market data connector. Fetch returns an estimate priced
// in the origin currency and converted to local currency with rate.
type PriceSource interface {
	Name() SourceType
	Enabled() bool
	Fetch(ctx context.Context, q SearchQuery, rate float64) (*PriceEstimate, error)
}

// RateProvider returns the current origin-to-local exchange rate. It never
// fails; a default rate is substituted when nothing better is known.
type RateProvider interface {
	GetRate(ctx context.Context) ExchangeRate
}
