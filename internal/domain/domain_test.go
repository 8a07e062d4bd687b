package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBrand(t *testing.T) {
	assert.Equal(t, "levis", NormalizeBrand("Levi's"))
	assert.Equal(t, "levis", NormalizeBrand(" LEVIS "))
	assert.Equal(t, "supreme", NormalizeBrand("Supreme"))
}

func TestReferencePriceRecord_Validate(t *testing.T) {
	rec := ReferencePriceRecord{
		Brand: "levis", ProductType: "jeans", EraStart: 1980, EraEnd: 1989,
		Condition: ConditionGood, Rarity: RarityCommon,
		MinPrice: 100000, AvgPrice: 150000, MaxPrice: 200000,
	}
	assert.NoError(t, rec.Validate())

	bad := rec
	bad.AvgPrice = 250000
	assert.Error(t, bad.Validate())

	bad = rec
	bad.EraStart = 1995
	assert.Error(t, bad.Validate())

	bad = rec
	bad.Condition = "worn"
	assert.Error(t, bad.Validate())

	bad = rec
	bad.Rarity = "mythic"
	assert.Error(t, bad.Validate())
}

func TestSourceError(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &SourceError{
		Source:      SourceResaleMarket,
		Err:         ErrSourceUnavailable,
		StatusCode:  429,
		RateLimited: true,
	})

	assert.True(t, IsRateLimited(err))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "rate limit")

	plain := &SourceError{Source: SourceCompletedSales, Err: ErrNoListingsFound}
	assert.False(t, IsRateLimited(plain))
	assert.True(t, errors.Is(plain, ErrNoListingsFound))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, ConditionExcellent.Valid())
	assert.False(t, ConditionGrade("mint").Valid())
	assert.True(t, FeedbackSold.Valid())
	assert.False(t, FeedbackType("meh").Valid())
}
