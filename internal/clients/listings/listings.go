// Package listings holds the parsing and summarising helpers shared by the
// marketplace connectors.
package listings

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vintagescan/pricer/internal/domain"
)

// MaxSamples is the number of sample listings attached to an estimate.
const MaxSamples = 5

// Listing is a single priced marketplace listing, already normalised to USD.
type Listing struct {
	SoldAt *time.Time
	Title  string
	URL    string
	Price  float64
}

// Options controls how a set of listings is summarised.
type Options struct {
	// FilterOutliers drops prices more than two population standard
	// deviations from the mean before computing statistics.
	FilterOutliers bool
	// RecentFirst orders samples by sold date, newest first. Otherwise the
	// marketplace order is kept.
	RecentFirst bool
}

// Summary is the statistical digest of a listing set.
type Summary struct {
	Samples []domain.SampleListing
	Avg     float64
	Min     float64
	Max     float64
	// Used is the number of prices that survived filtering.
	Used int
}

var fillerWords = regexp.MustCompile(`(?i)vintage|classic|authentic|original`)

// BuildSearchKeywords joins brand, cleaned product name and era into a
// marketplace search string. Filler words dilute marketplace search and are removed.
func BuildSearchKeywords(q domain.SearchQuery) string {
	parts := make([]string, 0, 3)
	if b := strings.TrimSpace(q.Brand); b != "" {
		parts = append(parts, b)
	}
	if name := strings.TrimSpace(fillerWords.ReplaceAllString(q.ProductName, "")); name != "" {
		parts = append(parts, name)
	}
	if era := strings.TrimSpace(q.Era); era != "" {
		parts = append(parts, era)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Summarize computes mean/min/max and sample listings. Listings with a
// non-positive price are ignored; domain.ErrNoListingsFound is returned when
// nothing usable remains.
func Summarize(in []Listing, opts Options) (Summary, error) {
	valid := make([]Listing, 0, len(in))
	for _, l := range in {
		if l.Price > 0 && !math.IsNaN(l.Price) && !math.IsInf(l.Price, 0) {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return Summary{}, domain.ErrNoListingsFound
	}

	prices := make([]float64, len(valid))
	for i, l := range valid {
		prices[i] = l.Price
	}
	if opts.FilterOutliers {
		prices = filterOutliers(prices)
	}

	s := Summary{
		Avg:  stat.Mean(prices, nil),
		Min:  prices[0],
		Max:  prices[0],
		Used: len(prices),
	}
	for _, p := range prices[1:] {
		s.Min = math.Min(s.Min, p)
		s.Max = math.Max(s.Max, p)
	}

	s.Samples = samples(valid, opts.RecentFirst)
	return s, nil
}

// filterOutliers keeps prices within two population standard deviations of
// the mean. With zero spread every price is kept.
func filterOutliers(prices []float64) []float64 {
	mean, std := stat.PopMeanStdDev(prices, nil)
	kept := make([]float64, 0, len(prices))
	for _, p := range prices {
		if math.Abs(p-mean) <= 2*std {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return prices
	}
	return kept
}

func samples(valid []Listing, recentFirst bool) []domain.SampleListing {
	ordered := make([]Listing, len(valid))
	copy(ordered, valid)

	if recentFirst {
		// undated listings sink to the end, stable otherwise
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ordered[i].SoldAt, ordered[j].SoldAt
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	}

	if len(ordered) > MaxSamples {
		ordered = ordered[:MaxSamples]
	}

	out := make([]domain.SampleListing, len(ordered))
	for i, l := range ordered {
		out[i] = domain.SampleListing{Title: l.Title, Price: l.Price, URL: l.URL, SoldAt: l.SoldAt}
	}
	return out
}

// Confidence is base + floor(count*perListing), capped at ceiling.
func Confidence(count, base int, perListing float64, ceiling int) int {
	c := base + int(math.Floor(float64(count)*perListing))
	if c > ceiling {
		return ceiling
	}
	return c
}

// NewEstimate builds a PriceEstimate from a summary. listingCount is the raw
// number of listings the marketplace returned.
func NewEstimate(source domain.SourceType, s Summary, listingCount, confidence int, rate float64, now time.Time) *domain.PriceEstimate {
	avg, lo, hi := s.Avg, s.Min, s.Max
	count := listingCount
	return &domain.PriceEstimate{
		Source:         source,
		Currency:       domain.CurrencyUSD,
		Price:          avg,
		PriceLocal:     math.Round(avg * rate),
		Confidence:     confidence,
		ListingCount:   &count,
		MinPrice:       &lo,
		MaxPrice:       &hi,
		AvgPrice:       &avg,
		FetchedAt:      now,
		SampleListings: s.Samples,
	}
}
