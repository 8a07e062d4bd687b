package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vintagescan/pricer/internal/domain"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		grade      domain.ConditionGrade
		confidence int
	}{
		{"no keywords defaults to good", "", domain.ConditionGood, 50},
		{"deadstock", "Deadstock, new with tags, never worn", domain.ConditionDeadstock, 80},
		{"korean deadstock", "미사용 새제품입니다", domain.ConditionDeadstock, 80},
		{"tie keeps earlier grade", "good but maybe fair", domain.ConditionGood, 65},
		{"pristine promotes good", "Clean, fresh and well-kept", domain.ConditionExcellent, 60},
		{"damage demotes excellent one step", "Excellent condition, but visible stain, hole and tear", domain.ConditionGood, 75},
		{"damage leaves fair alone", "used, fading, ripped, cracked, stained", domain.ConditionFair, 90},
		{"confidence ceiling", "deadstock nwt new with tags unworn mint", domain.ConditionDeadstock, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.text)
			assert.Equal(t, tt.grade, a.Grade)
			assert.Equal(t, tt.confidence, a.Confidence)
			assert.Equal(t, Multiplier(tt.grade), a.PriceMultiplier)
		})
	}
}

func TestAnalyze_Factors(t *testing.T) {
	a := Analyze("Excellent condition, but visible stain, hole and tear")
	assert.Contains(t, a.Factors, "excellent")
	assert.Contains(t, a.Factors, "3 damage indicators")

	a = Analyze("Clean, fresh and well-kept")
	assert.Equal(t, []string{"3 pristine indicators"}, a.Factors)

	a = Analyze("")
	assert.NotNil(t, a.Factors)
	assert.Empty(t, a.Factors)
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, Multiplier(domain.ConditionDeadstock))
	assert.Equal(t, 1.2, Multiplier(domain.ConditionExcellent))
	assert.Equal(t, 1.0, Multiplier(domain.ConditionGood))
	assert.Equal(t, 0.7, Multiplier(domain.ConditionFair))
	assert.Equal(t, 0.4, Multiplier(domain.ConditionPoor))
	assert.Equal(t, 1.0, Multiplier("mystery"))
}

func TestApplyMultiplier(t *testing.T) {
	fair := domain.ConditionAnalysis{Grade: domain.ConditionFair, PriceMultiplier: 0.7}
	assert.Equal(t, int64(70000), ApplyMultiplier(100000, fair))

	excellent := domain.ConditionAnalysis{Grade: domain.ConditionExcellent, PriceMultiplier: 1.2}
	assert.Equal(t, int64(151), ApplyMultiplier(125.5, excellent))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Fair / Visible Wear", Describe(domain.ConditionFair).EN)
	assert.Equal(t, "Good / Gently Used", Describe("unknown").EN)
}
