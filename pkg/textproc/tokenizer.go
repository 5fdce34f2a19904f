// Package textproc normalizes raw document text into the token sequences the
// vocabulary builder and trainer consume.
//
// The filter pipeline is fixed and applied in order: lowercase, strip
// HTML-like tags, strip punctuation, drop digit-only tokens, drop stop-words.
// Tokenization is a pure function of its input, so the same string always
// yields the same token sequence.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Tokenize converts raw text into a slice of lowercase content tokens.
// Empty or whitespace-only input yields an empty slice, not an error.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	text = strings.ToLower(text)
	text = tagPattern.ReplaceAllString(text, " ")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if isDigits(field) {
			continue
		}
		if _, stop := stopWords[field]; stop {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}

// isDigits reports whether the token consists solely of decimal digits.
func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
