package markov

import (
	"regexp"
	"strings"
	"unicode"
)

// disallowedRegex matches everything that is not a word character,
// whitespace, or one of the punctuation marks kept for sentence structure.
var disallowedRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:'"-]`)

// Normalize cleans raw text before it is split into words. It lowercases the
// text, collapses whitespace runs to a single space, strips every character
// outside letters, digits, underscore, whitespace and . , ! ? ; : ' " -, and
// trims the result. Removing characters can leave two spaces next to each
// other, so whitespace is collapsed again at the end; Normalize is therefore
// a fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = collapseSpace(text)
	text = disallowedRegex.ReplaceAllString(text, "")
	return collapseSpace(text)
}

// Words returns the normalized word sequence of text.
func Words(text string) []string {
	return strings.FieldsFunc(Normalize(text), isSpace)
}

// collapseSpace replaces every whitespace run with one space and trims both ends.
func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace also treats the ASCII information separators as whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
