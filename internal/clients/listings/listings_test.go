package listings

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintagescan/pricer/internal/domain"
)

func TestBuildSearchKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   domain.SearchQuery
		want string
	}{
		{"strips filler words", domain.SearchQuery{Brand: "Levis", ProductName: "Vintage 501 Original Jeans", Era: "1980s"}, "Levis 501 Jeans 1980s"},
		{"case insensitive", domain.SearchQuery{Brand: "Supreme", ProductName: "CLASSIC Box Logo authentic"}, "Supreme Box Logo"},
		{"no era", domain.SearchQuery{Brand: "Stussy", ProductName: "8 Ball Tee"}, "Stussy 8 Ball Tee"},
		{"only filler", domain.SearchQuery{Brand: "Levis", ProductName: "vintage"}, "Levis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSearchKeywords(tt.in))
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil, Options{})
	assert.True(t, errors.Is(err, domain.ErrNoListingsFound))

	_, err = Summarize([]Listing{{Price: 0}, {Price: -5}}, Options{})
	assert.True(t, errors.Is(err, domain.ErrNoListingsFound))
}

func TestSummarize_Stats(t *testing.T) {
	s, err := Summarize([]Listing{{Price: 100}, {Price: 200}, {Price: 0}, {Price: 300}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 200.0, s.Avg)
	assert.Equal(t, 100.0, s.Min)
	assert.Equal(t, 300.0, s.Max)
	assert.Equal(t, 3, s.Used)
}

func TestSummarize_FiltersOutliers(t *testing.T) {
	in := []Listing{}
	for i := 0; i < 9; i++ {
		in = append(in, Listing{Price: 100})
	}
	in = append(in, Listing{Price: 1000})

	s, err := Summarize(in, Options{FilterOutliers: true})
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Avg)
	assert.Equal(t, 100.0, s.Max)
	assert.Equal(t, 9, s.Used)

	unfiltered, err := Summarize(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, unfiltered.Max)
}

func TestSummarize_IdenticalPricesKept(t *testing.T) {
	s, err := Summarize([]Listing{{Price: 50}, {Price: 50}}, Options{FilterOutliers: true})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Used)
}

func TestSummarize_SamplesRecentFirst(t *testing.T) {
	day := func(d int) *time.Time {
		t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	in := []Listing{
		{Title: "a", Price: 10, SoldAt: day(1)},
		{Title: "b", Price: 10, SoldAt: nil},
		{Title: "c", Price: 10, SoldAt: day(5)},
		{Title: "d", Price: 10, SoldAt: day(3)},
		{Title: "e", Price: 10, SoldAt: day(2)},
		{Title: "f", Price: 10, SoldAt: day(4)},
	}

	s, err := Summarize(in, Options{RecentFirst: true})
	require.NoError(t, err)
	require.Len(t, s.Samples, MaxSamples)
	titles := []string{}
	for _, sample := range s.Samples {
		titles = append(titles, sample.Title)
	}
	assert.Equal(t, []string{"c", "f", "d", "e", "a"}, titles)

	s, err = Summarize(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a", s.Samples[0].Title)
	assert.Equal(t, "b", s.Samples[1].Title)
}

func TestConfidence(t *testing.T) {
	// completed sales: min(90, 50 + floor(n/2))
	assert.Equal(t, 50, Confidence(1, 50, 0.5, 90))
	assert.Equal(t, 56, Confidence(12, 50, 0.5, 90))
	assert.Equal(t, 90, Confidence(100, 50, 0.5, 90))
	// resale: min(85, 40 + 2n)
	assert.Equal(t, 60, Confidence(10, 40, 2, 85))
	assert.Equal(t, 85, Confidence(30, 40, 2, 85))
}

func TestNewEstimate(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Summary{Avg: 100.25, Min: 80, Max: 120, Used: 3}

	e := NewEstimate(domain.SourceCompletedSales, s, 4, 52, 1334, now)
	assert.Equal(t, domain.SourceCompletedSales, e.Source)
	assert.Equal(t, "USD", e.Currency)
	assert.Equal(t, 100.25, e.Price)
	assert.Equal(t, 133734.0, e.PriceLocal)
	assert.Equal(t, 4, *e.ListingCount)
	assert.Equal(t, 80.0, *e.MinPrice)
	assert.Equal(t, 120.0, *e.MaxPrice)
	assert.Equal(t, now, e.FetchedAt)
}
