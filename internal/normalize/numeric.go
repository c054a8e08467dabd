// Package normalize holds the shared primitives the domain pipelines build
// on: OCR-confusable digit correction, loose numeric parsing, date/time
// phrase resolution against a fixed timezone, and currency token detection.
package normalize

import (
	"strconv"
	"strings"
)

// DigitConfusables maps characters tesseract commonly misreads for digits.
// Applied only inside digit runs, never to free-standing words.
var DigitConfusables = map[rune]rune{
	'O': '0',
	'o': '0',
	'l': '1',
	'I': '1',
	'S': '5',
	'B': '8',
}

// FixDigitRun rewrites confusable characters that sit adjacent to a digit.
// "12O0" -> "1200", "l00" -> "100"; a lone "Ol" is left alone since there is
// no digit anchoring the run.
func FixDigitRun(token string) string {
	runes := []rune(token)
	isDigit := func(i int) bool {
		return i >= 0 && i < len(runes) && runes[i] >= '0' && runes[i] <= '9'
	}
	changed := true
	for changed {
		changed = false
		for i, r := range runes {
			sub, ok := DigitConfusables[r]
			if !ok {
				continue
			}
			if isDigit(i-1) || isDigit(i+1) {
				runes[i] = sub
				changed = true
			}
		}
	}
	return string(runes)
}

// ParseLooseFloat parses a numeric token tolerating thousands separators and
// OCR digit confusables.
func ParseLooseFloat(token string) (float64, bool) {
	s := FixDigitRun(strings.TrimSpace(token))
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsPercentToken reports whether a token denotes a rate rather than an
// absolute amount.
func IsPercentToken(token string) bool {
	return strings.HasSuffix(strings.TrimSpace(token), "%")
}
