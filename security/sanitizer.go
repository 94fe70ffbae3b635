package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxTextLength     = 1000
	maxSanitizePasses = 4
)

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	angleStripper = strings.NewReplacer("<", "", ">", "")
)

// SanitizeText trims, drops NUL bytes and strips every HTML tag from user input.
// Entities are decoded so the API returns plain text; decoded markup is sanitized
// again until the result stops changing.
func SanitizeText(input string) string {
	input = stripHTML(strings.ReplaceAll(input, "\x00", ""))
	input = strings.TrimSpace(input)

	if runes := []rune(input); len(runes) > maxTextLength {
		input = string(runes[:maxTextLength])
	}

	return input
}

func stripHTML(input string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		out := html.UnescapeString(htmlPolicy.Sanitize(input))
		if out == input {
			return out
		}
		input = out
	}
	// still unwinding nested encodings
	return angleStripper.Replace(input)
}

// SanitizeOptional sanitizes an optional field; blank results become nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	clean := SanitizeText(*input)
	if clean == "" {
		return nil
	}
	return &clean
}
