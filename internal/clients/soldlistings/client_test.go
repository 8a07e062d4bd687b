package soldlistings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintagescan/pricer/internal/domain"
)

const completedItemsJSON = `{
  "findCompletedItemsResponse": [{
    "ack": ["Success"],
    "searchResult": [{
      "@count": "4",
      "item": [
        {"title": ["Levis 501 1985"], "viewItemURL": ["https://example.com/1"],
         "sellingStatus": [{"currentPrice": [{"__value__": "120.00", "@currencyId": "USD"}]}],
         "listingInfo": [{"endTime": ["2024-02-01T10:00:00.000Z"]}]},
        {"title": ["Levis 501 1987"], "viewItemURL": ["https://example.com/2"],
         "sellingStatus": [{"currentPrice": [{"__value__": "180.00", "@currencyId": "USD"}]}],
         "listingInfo": [{"endTime": ["2024-02-10T10:00:00.000Z"]}]},
        {"title": ["Levis 501 GBP"], "viewItemURL": ["https://example.com/3"],
         "sellingStatus": [{"currentPrice": [{"__value__": "90.00", "@currencyId": "GBP"}]}],
         "listingInfo": [{"endTime": ["2024-02-12T10:00:00.000Z"]}]},
        {"title": ["Broken"], "viewItemURL": ["https://example.com/4"],
         "sellingStatus": [{"currentPrice": [{"__value__": "n/a", "@currencyId": "USD"}]}]}
      ]
    }]
  }]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:    srv.URL,
		AppID:      "app-123",
		Enabled:    true,
		MaxResults: 50,
		Timeout:    2 * time.Second,
	}, zerolog.Nop())
	c.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestFetch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "findCompletedItems", q.Get("OPERATION-NAME"))
		assert.Equal(t, "app-123", q.Get("SECURITY-APPNAME"))
		assert.Equal(t, "Levis 501 1980s", q.Get("keywords"))
		assert.Equal(t, "50", q.Get("paginationInput.entriesPerPage"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completedItemsJSON))
	})

	est, err := c.Fetch(context.Background(), domain.SearchQuery{
		Brand: "Levis", ProductName: "Vintage 501", Era: "1980s",
	}, 1334)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceCompletedSales, est.Source)
	assert.Equal(t, 150.0, est.Price)
	assert.Equal(t, 200100.0, est.PriceLocal)
	assert.Equal(t, 120.0, *est.MinPrice)
	assert.Equal(t, 180.0, *est.MaxPrice)
	// confidence counts every returned item: 50 + floor(4/2)
	assert.Equal(t, 52, est.Confidence)
	assert.Equal(t, 4, *est.ListingCount)
	require.Len(t, est.SampleListings, 2)
	assert.Equal(t, "Levis 501 1987", est.SampleListings[0].Title)
}

func TestFetch_Disabled(t *testing.T) {
	c := NewClient(Config{Enabled: false}, zerolog.Nop())
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrSourceDisabled))
	assert.False(t, c.Enabled())
}

func TestFetch_MissingCredentials(t *testing.T) {
	c := NewClient(Config{Enabled: true, BaseURL: "http://127.0.0.1:1"}, zerolog.Nop())
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestFetch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))

	var se *domain.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.False(t, se.RateLimited)
}

func TestFetch_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"findCompletedItemsResponse":[{"searchResult":[{"@count":"0"}]}]}`))
	})
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrNoListingsFound))
}

func TestFetch_NoUsablePrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"findCompletedItemsResponse":[{"searchResult":[{"item":[
			{"title":["a"],"sellingStatus":[{"currentPrice":[{"__value__":"0","@currencyId":"USD"}]}]},
			{"title":["b"],"sellingStatus":[{"currentPrice":[{"__value__":"40","@currencyId":"EUR"}]}]}
		]}]}]}`))
	})
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrNoListingsFound))
}

func TestFetch_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestFetch_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(completedItemsJSON))
	})
	c.cfg.Timeout = 50 * time.Millisecond

	_, err := c.Fetch(context.Background(), domain.SearchQuery{Brand: "x", ProductName: "y"}, 1334)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}
