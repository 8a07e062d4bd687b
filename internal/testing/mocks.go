package testing

import (
	"context"
	"sync"
	"time"

	"github.com/vintagescan/pricer/internal/domain"
)

// MockPriceSource is a mock implementation of domain.PriceSource.
// It returns a copy of the configured estimate with PriceLocal recomputed
// from the rate it is called with.
type MockPriceSource struct {
	mu       sync.Mutex
	name     domain.SourceType
	enabled  bool
	estimate *domain.PriceEstimate
	err      error
	delay    time.Duration
	calls    int
	rates    []float64
}

// NewMockPriceSource creates a new enabled mock source.
func NewMockPriceSource(name domain.SourceType) *MockPriceSource {
	return &MockPriceSource{name: name, enabled: true}
}

// SetEstimate sets the estimate returned by Fetch.
func (m *MockPriceSource) SetEstimate(e *domain.PriceEstimate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimate = e
}

// SetError sets the error returned by Fetch.
func (m *MockPriceSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetEnabled toggles the source.
func (m *MockPriceSource) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// SetDelay makes Fetch block for d (or until ctx is done).
func (m *MockPriceSource) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times Fetch was called.
func (m *MockPriceSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Rates returns the rates Fetch was called with.
func (m *MockPriceSource) Rates() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.rates...)
}

// Name implements domain.PriceSource.
func (m *MockPriceSource) Name() domain.SourceType { return m.name }

// Enabled implements domain.PriceSource.
func (m *MockPriceSource) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Fetch implements domain.PriceSource.
func (m *MockPriceSource) Fetch(ctx context.Context, _ domain.SearchQuery, rate float64) (*domain.PriceEstimate, error) {
	m.mu.Lock()
	m.calls++
	m.rates = append(m.rates, rate)
	delay, est, err := m.delay, m.estimate, m.err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &domain.SourceError{Source: m.name, Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, &domain.SourceError{Source: m.name, Err: domain.ErrNoListingsFound}
	}

	out := *est
	out.PriceLocal = float64(int64(out.Price*rate + 0.5))
	return &out, nil
}

// MockRateProvider is a fixed domain.RateProvider.
type MockRateProvider struct {
	Rate domain.ExchangeRate
}

// GetRate implements domain.RateProvider.
func (m MockRateProvider) GetRate(context.Context) domain.ExchangeRate {
	return m.Rate
}
