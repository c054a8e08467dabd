package normalize

import (
	"strings"
	"unicode"
)

// CurrencyHint scans text for the first currency indicator from vocab
// (lowercased symbol or code -> ISO code) and returns the ISO code. Earliest
// occurrence in the text wins; "" means no indicator was found. Alphabetic
// indicators only match as whole words so "rs" does not fire inside "hours".
func CurrencyHint(text string, vocab map[string]string) string {
	start, end, ok := CurrencySpan(text, vocab)
	if !ok {
		return ""
	}
	return vocab[strings.ToLower(text[start:end])]
}

// CurrencySpan locates the earliest currency indicator under the same
// word-boundary rules and returns its span in text.
func CurrencySpan(text string, vocab map[string]string) (start, end int, ok bool) {
	lower := strings.ToLower(text)

	best := -1
	length := 0
	for key := range vocab {
		idx := indexOfToken(lower, key)
		if idx < 0 {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			length = len(key)
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, best + length, true
}

func indexOfToken(lower, key string) int {
	alphabetic := true
	for _, r := range key {
		if !unicode.IsLetter(r) {
			alphabetic = false
			break
		}
	}
	if !alphabetic {
		return strings.Index(lower, key)
	}

	from := 0
	for {
		idx := strings.Index(lower[from:], key)
		if idx < 0 {
			return -1
		}
		idx += from
		if isWordBoundary(lower, idx-1) && isWordBoundary(lower, idx+len(key)) {
			return idx
		}
		from = idx + len(key)
	}
}

func isWordBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
