// Package aggregation blends per-source price estimates into a single
// weighted estimate with a confidence score and price range.
package aggregation

import (
	"errors"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/vintagescan/pricer/internal/domain"
)

// FallbackMessage annotates results computed by the simple-mean fallback.
const FallbackMessage = "Aggregation error, using simple average"

const fallbackConfidence = 50

var errNoWeight = errors.New("no valid weights for aggregation")

// Result is an aggregated estimate together with the weights that produced it.
type Result struct {
	Weights    map[domain.SourceType]float64 `json:"weights"`
	Aggregated domain.AggregatedEstimate     `json:"aggregated"`
	Fallback   bool                          `json:"fallback"`
}

// Aggregator combines estimates using static weights.
type Aggregator struct {
	weights  Weights
	currency string
	log      zerolog.Logger
}

// NewAggregator creates an aggregator reporting in the given local currency.
func NewAggregator(weights Weights, currency string, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		weights:  weights,
		currency: currency,
		log:      log.With().Str("component", "aggregator").Logger(),
	}
}

// Weights returns the configured static weights.
func (a *Aggregator) Weights() Weights {
	return a.weights
}

// Aggregate blends sources by their local-currency price. An empty input
// returns domain.ErrNoSources. If the weighted computation fails the
// result falls back to a simple mean at confidence 50 with Fallback set.
func (a *Aggregator) Aggregate(sources []domain.PriceEstimate) (*Result, error) {
	if len(sources) == 0 {
		return nil, domain.ErrNoSources
	}

	present := make([]domain.SourceType, 0, len(sources))
	for _, s := range sources {
		present = append(present, s.Source)
	}
	weights := a.weights.Redistribute(present)

	a.log.Debug().Int("sources", len(sources)).Interface("weights", weights).Msg("Aggregating prices")

	estimated, err := weightedAverage(sources, weights)
	if err != nil {
		a.log.Error().Err(err).Msg("Error aggregating prices, using simple average")
		return a.fallback(sources), nil
	}

	result := &Result{
		Weights: weights,
		Aggregated: domain.AggregatedEstimate{
			EstimatedPrice: estimated,
			PriceRange:     priceRange(sources, float64(estimated)),
			Confidence:     confidence(sources),
			Currency:       a.currency,
		},
	}

	a.log.Info().
		Int64("estimated_price", result.Aggregated.EstimatedPrice).
		Int("confidence", result.Aggregated.Confidence).
		Float64("range_min", result.Aggregated.PriceRange.Min).
		Float64("range_max", result.Aggregated.PriceRange.Max).
		Msg("Price aggregation complete")

	return result, nil
}

func (a *Aggregator) fallback(sources []domain.PriceEstimate) *Result {
	locals := make([]float64, 0, len(sources))
	for _, s := range sources {
		locals = append(locals, s.PriceLocal)
	}
	mean := math.Round(stat.Mean(locals, nil))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		mean = 0
	}
	return &Result{
		Weights: map[domain.SourceType]float64{},
		Aggregated: domain.AggregatedEstimate{
			EstimatedPrice: int64(mean),
			PriceRange:     priceRange(sources, mean),
			Confidence:     fallbackConfidence,
			Currency:       a.currency,
		},
		Fallback: true,
	}
}

func weightedAverage(sources []domain.PriceEstimate, weights map[domain.SourceType]float64) (int64, error) {
	var sum, total float64
	for _, s := range sources {
		w := weights[s.Source]
		if w <= 0 {
			continue
		}
		sum += s.PriceLocal * w
		total += w
	}
	if total == 0 {
		return 0, errNoWeight
	}

	avg := math.Round(sum / total)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, errors.New("weighted average is not finite")
	}
	return int64(avg), nil
}

// confidence is round(0.6*mean source confidence + min(30, 10*count) +
// consistency bonus), kept within [0, 100].
func confidence(sources []domain.PriceEstimate) int {
	confs := make([]float64, 0, len(sources))
	locals := make([]float64, 0, len(sources))
	for _, s := range sources {
		confs = append(confs, float64(s.Confidence))
		locals = append(locals, s.PriceLocal)
	}

	countBonus := math.Min(30, float64(10*len(sources)))
	total := math.Round(0.6*stat.Mean(confs, nil) + countBonus + consistencyBonus(locals))
	return int(math.Max(0, math.Min(100, total)))
}

// consistencyBonus rewards agreement between sources by the coefficient of
// variation of their prices.
func consistencyBonus(prices []float64) float64 {
	mean, std := stat.PopMeanStdDev(prices, nil)
	if mean == 0 {
		return 0
	}
	cv := std / mean
	switch {
	case cv < 0.3:
		return 15
	case cv < 0.5:
		return 10
	case cv < 0.7:
		return 5
	default:
		return 0
	}
}

// priceRange is the union of every source's min, price and max in local
// currency, widened to include the estimate. Origin-currency bounds are
// converted with the source's own implied rate.
func priceRange(sources []domain.PriceEstimate, estimate float64) domain.PriceRange {
	lo, hi := estimate, estimate
	include := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for _, s := range sources {
		include(s.PriceLocal)
		if s.Price <= 0 {
			continue
		}
		rate := s.PriceLocal / s.Price
		if s.MinPrice != nil {
			include(math.Round(*s.MinPrice * rate))
		}
		if s.MaxPrice != nil {
			include(math.Round(*s.MaxPrice * rate))
		}
	}
	return domain.PriceRange{Min: lo, Max: hi}
}
