// Package condition grades a garment's condition from a free-text
// description and maps the grade to a price multiplier.
package condition

import (
	"fmt"
	"math"
	"strings"

	"github.com/vintagescan/pricer/internal/domain"
)

// gradeKeywords are checked in this order; a later grade only wins with
// strictly more hits than the current best.
var gradeKeywords = []struct {
	grade    domain.ConditionGrade
	keywords []string
}{
	{domain.ConditionDeadstock, []string{
		"deadstock", "nwt", "new with tags", "새제품", "미사용",
		"unworn", "mint", "brand new", "태그 부착",
	}},
	{domain.ConditionExcellent, []string{
		"excellent", "near mint", "최상", "극상", "pristine",
		"like new", "거의 새것", "사용감 없", "매우 깨끗",
	}},
	{domain.ConditionGood, []string{
		"good", "normal", "일반", "양호", "gently used",
		"약간의 사용감", "전반적으로 깨끗", "light wear",
	}},
	{domain.ConditionFair, []string{
		"fair", "used", "사용감", "눈에 띄", "visible wear",
		"색 바램", "fading", "약간의 손상", "minor damage",
	}},
	{domain.ConditionPoor, []string{
		"poor", "damaged", "손상", "얼룩", "stains",
		"heavy wear", "많이", "찢어", "torn", "holes",
	}},
}

var damageIndicators = []string{
	"손상", "얼룩", "stain", "hole", "구멍", "tear", "찢어",
	"rip", "crack", "broken", "깨진", "벗겨", "peeling",
	"fade", "바램", "discolor", "변색", "worn out",
}

var pristineIndicators = []string{
	"깨끗", "clean", "상태 좋", "well-kept", "보관",
	"mint", "최상", "pristine", "새것", "fresh",
}

var multipliers = map[domain.ConditionGrade]float64{
	domain.ConditionDeadstock: 1.5,
	domain.ConditionExcellent: 1.2,
	domain.ConditionGood:      1.0,
	domain.ConditionFair:      0.7,
	domain.ConditionPoor:      0.4,
}

// Multiplier returns the price multiplier for a grade. Unknown grades are
// treated as good.
func Multiplier(grade domain.ConditionGrade) float64 {
	if m, ok := multipliers[grade]; ok {
		return m
	}
	return 1.0
}

func matching(text string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// Analyze classifies a description. Text without any keyword grades as good.
func Analyze(description string) domain.ConditionAnalysis {
	text := strings.ToLower(description)
	best := domain.ConditionGood
	score := 0
	factors := []string{}

	for _, g := range gradeKeywords {
		hits := matching(text, g.keywords)
		if len(hits) > score {
			score = len(hits)
			best = g.grade
			factors = append(factors, hits...)
		}
	}

	damage := len(matching(text, damageIndicators))
	pristine := len(matching(text, pristineIndicators))

	if damage > 2 {
		switch best {
		case domain.ConditionExcellent:
			best = domain.ConditionGood
		case domain.ConditionGood:
			best = domain.ConditionFair
		}
		factors = append(factors, fmt.Sprintf("%d damage indicators", damage))
	}

	if pristine > 2 && damage == 0 {
		if best == domain.ConditionGood {
			best = domain.ConditionExcellent
		}
		factors = append(factors, fmt.Sprintf("%d pristine indicators", pristine))
	}

	confidence := 50 + 15*score
	if damage > 0 || pristine > 0 {
		confidence += 10
	}
	if confidence > 90 {
		confidence = 90
	}

	return domain.ConditionAnalysis{
		Grade:           best,
		Factors:         factors,
		Confidence:      confidence,
		PriceMultiplier: Multiplier(best),
	}
}

// ApplyMultiplier scales a base price by the analysed grade.
func ApplyMultiplier(base float64, analysis domain.ConditionAnalysis) int64 {
	return int64(math.Round(base * analysis.PriceMultiplier))
}

// Description is a human-readable grade label.
type Description struct {
	EN string `json:"en"`
	KO string `json:"ko"`
}

var descriptions = map[domain.ConditionGrade]Description{
	domain.ConditionDeadstock: {EN: "Deadstock / New with Tags", KO: "미사용 새제품"},
	domain.ConditionExcellent: {EN: "Excellent / Near Mint", KO: "최상 (사용감 거의 없음)"},
	domain.ConditionGood:      {EN: "Good / Gently Used", KO: "양호 (일반 중고)"},
	domain.ConditionFair:      {EN: "Fair / Visible Wear", KO: "보통 (눈에 띄는 사용감)"},
	domain.ConditionPoor:      {EN: "Poor / Damaged", KO: "불량 (손상/얼룩)"},
}

// Describe returns the label for a grade.
func Describe(grade domain.ConditionGrade) Description {
	if d, ok := descriptions[grade]; ok {
		return d
	}
	return descriptions[domain.ConditionGood]
}
