package repository

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxKeyLength = 120

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// CacheKey derives the filesystem-safe cache key for a normalized query.
// Diacritics are folded, so "Café St" and "Cafe St" share a record.
func CacheKey(query string) string {
	folded, _, err := transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToLower(query),
	)
	if err != nil {
		folded = strings.ToLower(query)
	}

	key := strings.Trim(nonAlphanumeric.ReplaceAllString(folded, "_"), "_")
	if len(key) > maxKeyLength {
		key = strings.TrimRight(key[:maxKeyLength], "_")
	}

	return key
}
