package snapshot

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase word tokens for indexing and matching.
// Non-letter, non-digit runes act as separators and tokens of length <= 1
// are dropped.
func Tokenize(text string) []string {
	var tokens []string
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) <= 1 {
			continue
		}
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// Normalize lowercases and trims text for comparison.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
