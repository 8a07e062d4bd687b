package aggregation

import "github.com/vintagescan/pricer/internal/domain"

// Weights are the configured static weights per source type.
type Weights struct {
	CompletedSales float64 `json:"completed_sales"`
	ResaleMarket   float64 `json:"resale_market"`
	AI             float64 `json:"ai"`
}

// DefaultWeights returns 0.4 / 0.3 / 0.3.
func DefaultWeights() Weights {
	return Weights{CompletedSales: 0.4, ResaleMarket: 0.3, AI: 0.3}
}

// For returns the configured weight of a source type; unknown types weigh 0.
func (w Weights) For(source domain.SourceType) float64 {
	switch source {
	case domain.SourceCompletedSales:
		return w.CompletedSales
	case domain.SourceResaleMarket:
		return w.ResaleMarket
	case domain.SourceAI:
		return w.AI
	default:
		return 0
	}
}

// Redistribute renormalises the weights of the present source types so
// they sum to 1. Absent types get nothing; duplicates count once. When the
// present types carry no weight at all the result is empty.
func (w Weights) Redistribute(present []domain.SourceType) map[domain.SourceType]float64 {
	out := make(map[domain.SourceType]float64, len(present))

	var total float64
	for _, s := range present {
		if _, seen := out[s]; seen {
			continue
		}
		out[s] = w.For(s)
		total += out[s]
	}
	if total <= 0 {
		return map[domain.SourceType]float64{}
	}

	for s, weight := range out {
		out[s] = weight / total
	}
	return out
}
