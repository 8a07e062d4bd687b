package resale

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintagescan/pricer/internal/domain"
)

const listingsJSON = `{"data": [
  {"id": 101, "title": "Stussy 8 Ball Tee", "price": 60},
  {"id": 102, "name": "Stussy Tee 90s", "price": "80"},
  {"id": "103", "title": "Stussy World Tour", "price_i18n": {"USD": 100}},
  {"id": 104, "title": "Free", "price": 0}
]}`

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordedSleeps) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:        srv.URL,
		Enabled:        true,
		MaxResults:     20,
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
	}, zerolog.Nop())
	sleeps := &recordedSleeps{}
	c.sleep = sleeps.sleep
	return c, sleeps
}

var query = domain.SearchQuery{Brand: "Stussy", ProductName: "Vintage 8 Ball Tee", Era: "1990s"}

func TestFetch_Success(t *testing.T) {
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		assert.Equal(t, "Stussy 8 Ball Tee 1990s", r.URL.Query().Get("query"))
		assert.Equal(t, "true", r.URL.Query().Get("sold"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(listingsJSON))
	})

	est, err := c.Fetch(context.Background(), query, 1300)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceResaleMarket, est.Source)
	assert.Equal(t, 80.0, est.Price)
	assert.Equal(t, 104000.0, est.PriceLocal)
	assert.Equal(t, 4, *est.ListingCount)
	// 40 + 2*4
	assert.Equal(t, 48, est.Confidence)
	require.Len(t, est.SampleListings, 3)
	assert.Equal(t, "Stussy Tee 90s", est.SampleListings[1].Title)
	assert.Equal(t, "https://www.grailed.com/listings/103", est.SampleListings[2].URL)
	assert.Empty(t, sleeps.delays)
}

func TestFetch_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(listingsJSON))
	})

	est, err := c.Fetch(context.Background(), query, 1300)
	require.NoError(t, err)
	assert.NotNil(t, est)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps.delays)
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Fetch(context.Background(), query, 1300)
	require.Error(t, err)
	assert.True(t, domain.IsRateLimited(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, sleeps.delays, 2)
}

func TestFetch_DoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background(), query, 1300)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
	assert.False(t, domain.IsRateLimited(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeps.delays)
}

func TestFetch_CancelledDuringBackoff(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.sleep = sleepCtx

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Fetch(ctx, query, 1300)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_EmptyAndDisabled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})
	_, err := c.Fetch(context.Background(), query, 1300)
	assert.True(t, errors.Is(err, domain.ErrNoListingsFound))

	c.cfg.Enabled = false
	_, err = c.Fetch(context.Background(), query, 1300)
	assert.True(t, errors.Is(err, domain.ErrSourceDisabled))
}

func TestFetch_FiltersOutliers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"id":1,"price":100},{"id":2,"price":100},{"id":3,"price":100},
			{"id":4,"price":100},{"id":5,"price":100},{"id":6,"price":100},
			{"id":7,"price":100},{"id":8,"price":100},{"id":9,"price":100},
			{"id":10,"price":1000}
		]}`))
	})

	est, err := c.Fetch(context.Background(), query, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100.0, est.Price)
	assert.Equal(t, 100.0, *est.MaxPrice)
	assert.Equal(t, 10, *est.ListingCount)
}

func TestFetch_SamplesMostRecentlySoldFirst(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"id":1,"title":"oldest","price":90,"sold_at":"2020-03-01T00:00:00Z"},
			{"id":2,"title":"undated","price":95},
			{"id":3,"title":"mid","price":100,"sold_at":"2022-06-15T00:00:00Z"},
			{"id":4,"title":"newest","price":110,"sold_at":"2025-01-10T00:00:00Z"}
		]}`))
	})

	est, err := c.Fetch(context.Background(), query, 1000)
	require.NoError(t, err)
	require.Len(t, est.SampleListings, 4)
	assert.Equal(t, "newest", est.SampleListings[0].Title)
	assert.Equal(t, "mid", est.SampleListings[1].Title)
	assert.Equal(t, "oldest", est.SampleListings[2].Title)
	assert.Equal(t, "undated", est.SampleListings[3].Title)
	require.NotNil(t, est.SampleListings[0].SoldAt)
	assert.Equal(t, 2025, est.SampleListings[0].SoldAt.Year())
}

func TestBackoff(t *testing.T) {
	c := NewClient(Config{}, zerolog.Nop())
	assert.Equal(t, 2*time.Second, c.backoff(0))
	assert.Equal(t, 4*time.Second, c.backoff(1))
	assert.Equal(t, 8*time.Second, c.backoff(2))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 12.5, parsePrice([]byte(`12.5`)))
	assert.Equal(t, 40.0, parsePrice([]byte(`"40"`)))
	assert.Equal(t, 0.0, parsePrice([]byte(`"abc"`)))
	assert.Equal(t, 0.0, parsePrice(nil))
	assert.Equal(t, 0.0, parsePrice([]byte(`null`)))
}
