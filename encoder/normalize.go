package encoder

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Drop control characters except newlines and tabs.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// normalizeKey lowers normalized text for case-insensitive matching.
func normalizeKey(text string) string {
	normed := NormalizeText(text)
	if normed == "" {
		return ""
	}
	// Casers are stateful and must not be shared between goroutines.
	return cases.Lower(language.Und).String(normed)
}
