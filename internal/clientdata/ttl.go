package clientdata

import "time"

// Default TTLs. These are added to the clock when storing to compute expires_at.
const (
	// TTLPriceEstimate applies to completed-sales estimates.
	TTLPriceEstimate = 24 * time.Hour
	// TTLResaleEstimate is half the price TTL; resale asking prices move faster.
	TTLResaleEstimate = TTLPriceEstimate / 2
	// TTLExchangeRate is deliberately shorter than any price TTL.
	TTLExchangeRate = 6 * time.Hour
)

// Cache sources that are not price connectors.
const (
	SourceExchangeRate = "exchange_rate"
)
