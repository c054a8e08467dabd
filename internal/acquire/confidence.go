package acquire

import (
	"regexp"
	"strings"
)

var (
	reDateish   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?\b|\btoday\b|\btomorrow\b`)
	reTimeish   = regexp.MustCompile(`\b\d{1,2}(:\d{2})?\s*(am|pm)\b|\b\d{1,2}:\d{2}\b`)
	reUnitish   = regexp.MustCompile(`(g/dl|/ul|mg/dl|mmol/l|%)`)
	reAmountish = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d+)?\b`)
)

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float64 {
	// boost if we see artifacts the pipelines care about (date-ish, time-ish,
	// lab-unit-ish, amount-ish).
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if reDateish.MatchString(txtL) {
		score += 0.2
	}
	if reTimeish.MatchString(txtL) {
		score += 0.15
	}
	if reUnitish.MatchString(txtL) {
		score += 0.15
	}
	if reAmountish.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
