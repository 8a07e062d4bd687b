// Package validation sanity-checks AI price estimates against brand and
// product-type bounds, and cross-checks currency conversions.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// vintageMarkers in an era string justify prices above the typical range.
var vintageMarkers = []string{"1960", "1970", "1980", "big e", "1994", "1995"}

// Result is the outcome of validating a price.
type Result struct {
	Reason        string  `json:"reason,omitempty"`
	OriginalPrice float64 `json:"original_price"`
	AdjustedPrice float64 `json:"adjusted_price"`
	Confidence    int     `json:"confidence"`
	WasAdjusted   bool    `json:"was_adjusted"`
}

// Validator clamps prices into the configured bounds.
type Validator struct {
	table Table
	log   zerolog.Logger
}

// NewValidator creates a validator. A nil table uses DefaultTable.
func NewValidator(table Table, log zerolog.Logger) *Validator {
	if table == nil {
		table = DefaultTable()
	}
	return &Validator{
		table: table,
		log:   log.With().Str("component", "price_validator").Logger(),
	}
}

// DetectProductType guesses the product type from a product name.
func DetectProductType(productName string) string {
	lower := strings.ToLower(productName)
	switch {
	case strings.Contains(lower, "jean"), strings.Contains(lower, "501"), strings.Contains(lower, "denim"):
		return "jeans"
	case strings.Contains(lower, "hoodie"):
		return "hoodie"
	case strings.Contains(lower, "jacket"), strings.Contains(lower, "trucker"):
		return "jacket"
	case strings.Contains(lower, "tee"), strings.Contains(lower, "t-shirt"):
		return "tshirt"
	case strings.Contains(lower, "shirt"):
		return "shirt"
	default:
		return "tshirt"
	}
}

func isVintage(era string) bool {
	lower := strings.ToLower(era)
	for _, m := range vintageMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Validate checks a USD price for brand/productName. Each rule that fires
// recomputes the confidence from the input confidence, so the last applicable
// rule decides the final confidence. Unknown brand/type pairs pass through.
func (v *Validator) Validate(brand, productName string, price float64, confidence int, era string) Result {
	productType := DetectProductType(productName)
	res := Result{
		OriginalPrice: price,
		AdjustedPrice: price,
		Confidence:    confidence,
	}

	limits, ok := v.table.Lookup(brand, productType)
	if !ok {
		return res
	}

	c := float64(confidence)
	adjusted := c

	if price < limits.Min {
		res.AdjustedPrice = limits.Min
		res.WasAdjusted = true
		adjusted = math.Max(30, c-20)
		res.Reason = fmt.Sprintf("Price too low ($%v < $%v), adjusted to minimum", price, limits.Min)
	}

	if price > limits.Max {
		res.AdjustedPrice = limits.TypicalMax
		res.WasAdjusted = true
		adjusted = math.Max(40, c-15)
		res.Reason = fmt.Sprintf("Price too high ($%v > $%v), adjusted to typical range", price, limits.Max)
	}

	if price > limits.TypicalMax && !isVintage(era) {
		res.AdjustedPrice = limits.TypicalMax
		res.WasAdjusted = true
		adjusted = math.Max(50, c-10)
		res.Reason = fmt.Sprintf("Price high for non-vintage ($%v), adjusted to typical range", price)
	}

	if math.Mod(price, 50) == 0 && price > 100 {
		adjusted = math.Max(50, c-5)
		if res.Reason == "" {
			res.Reason = "Suspiciously round number, confidence reduced"
		}
	}

	res.Confidence = int(math.Round(adjusted))

	if res.Reason != "" {
		v.log.Warn().
			Str("brand", brand).
			Str("product_type", productType).
			Float64("price_before", res.OriginalPrice).
			Float64("price_after", res.AdjustedPrice).
			Int("confidence_before", confidence).
			Int("confidence_after", res.Confidence).
			Str("reason", res.Reason).
			Msg("Price validation adjusted estimate")
	}

	return res
}

// Consistency is the result of cross-checking a converted price.
type Consistency struct {
	SuggestedLocal float64 `json:"suggested_local,omitempty"`
	Consistent     bool    `json:"consistent"`
}

// consistencyTolerance is the allowed relative deviation of a local price
// from round(origin * rate).
const consistencyTolerance = 0.1

// CheckConsistency verifies that priceLocal is within 10% of
// round(priceOrigin * rate).
func CheckConsistency(priceOrigin, priceLocal, rate float64) Consistency {
	expected := math.Round(priceOrigin * rate)
	if expected == 0 {
		return Consistency{Consistent: priceLocal == 0}
	}
	deviation := math.Abs(priceLocal-expected) / expected
	if deviation > consistencyTolerance {
		return Consistency{Consistent: false, SuggestedLocal: expected}
	}
	return Consistency{Consistent: true}
}
