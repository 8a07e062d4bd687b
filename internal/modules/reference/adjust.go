package reference

import (
	"math"

	"github.com/vintagescan/pricer/internal/domain"
)

const (
	blendThreshold = 0.5
	boostThreshold = 0.2
	referenceShare = 0.7
	aiShare        = 0.3
)

// Adjustment is the result of comparing an AI price with a reference record.
type Adjustment struct {
	Price      float64 `json:"price"`
	Deviation  float64 `json:"deviation"`
	Confidence int     `json:"confidence"`
	Blended    bool    `json:"blended"`
	Boosted    bool    `json:"boosted"`
}

// Adjust compares aiPrice with ref.AvgPrice (same currency). A deviation
// above 50% blends the price 70/30 toward the reference and lowers
// confidence by 10 (floor 50); below 20% raises confidence by 5 (cap 95).
// A nil record leaves everything unchanged.
func Adjust(aiPrice float64, confidence int, ref *domain.ReferencePriceRecord) Adjustment {
	out := Adjustment{Price: aiPrice, Confidence: confidence}
	if ref == nil || ref.AvgPrice <= 0 {
		return out
	}

	out.Deviation = math.Abs(aiPrice-ref.AvgPrice) / ref.AvgPrice

	switch {
	case out.Deviation > blendThreshold:
		out.Price = math.Round(ref.AvgPrice*referenceShare + aiPrice*aiShare)
		out.Confidence = max(50, confidence-10)
		out.Blended = true
	case out.Deviation < boostThreshold:
		out.Confidence = min(95, confidence+5)
		out.Boosted = true
	}
	return out
}
