// Package textnorm provides deterministic text cleanup for complaint text.
// The same normalization is applied at training and at inference time so the
// vectorizer always sees text in the exact form the vocabulary was fitted on.
package textnorm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern      = regexp.MustCompile(`(?i)(http\S+|www\S+)`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// accentFolder strips combining diacritical marks after canonical
// decomposition, so "crédit" survives as "credit" instead of "crdit".
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize cleans arbitrary input into lowercase alphanumeric text.
// Non-string input is coerced via string formatting. The result matches
// [a-z0-9 ]* with single spaces and no leading or trailing whitespace.
// Normalize is total and idempotent: it never fails, and normalizing
// already-clean text returns it unchanged.
func Normalize(input any) string {
	text, ok := input.(string)
	if !ok {
		text = fmt.Sprint(input)
	}

	if folded, _, err := transform.String(accentFolder, text); err == nil {
		text = folded
	}

	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = nonAlnumPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
