package validation

import (
	"math"
	"regexp"
	"strings"
)

var (
	specificDetail = regexp.MustCompile(`(?i)\b(care label|valencia|turkish|big e|box logo|tags?)\b|케어라벨|박스로고|택`)
	vaguePhrase    = regexp.MustCompile(`(?i)\b(appears to|seems|probably|looks like)\b|보입니다|추정됩니다|것 같습니다`)
	justification  = []string{"price", "condition", "$", "가격", "기본가", "컨디션"}
)

// AdjustConfidenceByQuality scores how well an estimate's rationale supports
// it: concrete identifying details add 5, more than two hedging phrases
// subtract 10, no mention of price or condition subtracts 5. The result is
// kept within [30, 95].
func AdjustConfidenceByQuality(rationale string, confidence int) int {
	adjusted := float64(confidence)

	if specificDetail.MatchString(rationale) {
		adjusted += 5
	}

	if len(vaguePhrase.FindAllStringIndex(rationale, -1)) > 2 {
		adjusted -= 10
	}

	lower := strings.ToLower(rationale)
	justified := false
	for _, j := range justification {
		if strings.Contains(lower, j) {
			justified = true
			break
		}
	}
	if !justified {
		adjusted -= 5
	}

	return int(math.Min(95, math.Max(30, math.Round(adjusted))))
}
