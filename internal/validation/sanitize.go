package validation

import (
	"regexp"
	"strings"
)

// MaxSanitizedLength bounds every free-text field after sanitization.
const MaxSanitizedLength = 1000

var (
	angleBrackets  = regexp.MustCompile(`[<>]`)
	javascriptURI  = regexp.MustCompile(`(?i)javascript:`)
	inlineHandlers = regexp.MustCompile(`(?i)on\w+=`)
)

// Sanitize trims s, strips angle brackets, javascript: schemes and inline event
// handler attributes, and truncates the result to MaxSanitizedLength runes.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = angleBrackets.ReplaceAllString(s, "")
	s = javascriptURI.ReplaceAllString(s, "")
	s = inlineHandlers.ReplaceAllString(s, "")

	runes := []rune(s)
	if len(runes) > MaxSanitizedLength {
		s = string(runes[:MaxSanitizedLength])
	}
	return s
}
