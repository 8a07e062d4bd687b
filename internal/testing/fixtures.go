package testing

import (
	"time"

	"github.com/vintagescan/pricer/internal/domain"
)

// NewEstimateFixture returns a market estimate for source with the given
// origin price and confidence, converted at rate.
func NewEstimateFixture(source domain.SourceType, price float64, confidence int, rate float64) *domain.PriceEstimate {
	count := 10
	minPrice := price * 0.8
	maxPrice := price * 1.25
	return &domain.PriceEstimate{
		Source:       source,
		Currency:     domain.CurrencyUSD,
		Price:        price,
		PriceLocal:   float64(int64(price*rate + 0.5)),
		Confidence:   confidence,
		ListingCount: &count,
		MinPrice:     &minPrice,
		MaxPrice:     &maxPrice,
		AvgPrice:     &price,
		FetchedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// NewReferenceFixtures returns a small reference table for levis jeans.
func NewReferenceFixtures() []domain.ReferencePriceRecord {
	return []domain.ReferencePriceRecord{
		{
			Brand: "levis", ProductType: "jeans", EraStart: 1980, EraEnd: 1989,
			Condition: domain.ConditionGood, Rarity: domain.RarityRare,
			MinPrice: 110, AvgPrice: 190, MaxPrice: 300, SampleCount: 12,
		},
		{
			Brand: "levis", ProductType: "jeans", EraStart: 1984, EraEnd: 1986,
			Condition: domain.ConditionGood, Rarity: domain.RarityRare,
			MinPrice: 140, AvgPrice: 210, MaxPrice: 320, SampleCount: 4,
		},
		{
			Brand: "levis", ProductType: "jeans", EraStart: 1990, EraEnd: 1999,
			Condition: domain.ConditionExcellent, Rarity: domain.RarityCommon,
			MinPrice: 60, AvgPrice: 125, MaxPrice: 180, SampleCount: 30,
		},
		{
			Brand: "levis", ProductType: "jacket", EraStart: 1960, EraEnd: 1969,
			Condition: domain.ConditionGood, Rarity: domain.RarityGrail,
			MinPrice: 600, AvgPrice: 1100, MaxPrice: 2200, SampleCount: 3,
		},
	}
}
