package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means a connector could not produce an estimate
	// (network, HTTP status, credentials, payload).
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoListingsFound means a connector got a valid but empty answer.
	ErrNoListingsFound = errors.New("no listings found")
	// ErrNoSources means nothing at all could be priced.
	ErrNoSources = errors.New("no price data available")
	// ErrSourceDisabled means the connector is switched off in config.
	ErrSourceDisabled = errors.New("source disabled")
)

// SourceError wraps a connector failure with the source it came from.
type SourceError struct {
	Err         error
	Source      SourceType
	StatusCode  int
	RateLimited bool
}

func (e *SourceError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("%s: rate limit exceeded: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err carries a rate limit signal.
func IsRateLimited(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.RateLimited
}
