// Package address turns free-text street addresses into the query form sent to
// geocoding providers and used as the cache key.
package address

import (
	"regexp"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

var (
	listPunctuation = regexp.MustCompile(`[.,;:/]+`)
	whitespace      = regexp.MustCompile(`\s+`)
	zipCode         = regexp.MustCompile(`\b\d{5}(?:-?\d{4})?\b`)
	// Unit indicator followed by its designator: "Apt 2F", "Unit #3", "Suite 101", "#5".
	unitToken   = regexp.MustCompile(`(?i)(?:\b(?:apt|apartment|unit|ste|suite|fl|floor|rm|room)\b|#)\s*[#\-]?\s*\w*(?:-\w+)?`)
	houseNumber = regexp.MustCompile(`^(\d+[-\dA-Za-z]*)\s+(.*)$`)
)

// Normalize canonicalizes a raw address. It never fails: input with nothing usable
// produces an address whose fields are all empty.
//
// Secondary-unit designators are removed on purpose, providers degrade sharply when
// they are given apartment or suite numbers they cannot resolve.
func Normalize(raw string) models.NormalizedAddress {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.NormalizedAddress{}
	}

	s = listPunctuation.ReplaceAllString(s, " ")
	s = collapse(s)

	var zip string
	s, zip = extractZip(s)

	s = unitToken.ReplaceAllString(s, " ")
	s = collapse(s)

	var house, street string
	if m := houseNumber.FindStringSubmatch(s); m != nil {
		house, street = m[1], m[2]
	} else {
		street = s
	}
	street = collapse(strings.Trim(street, ", -"))

	parts := make([]string, 0, 3)
	for _, p := range []string{house, street, zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return models.NormalizedAddress{
		Query:       strings.Join(parts, " "),
		HouseNumber: house,
		Street:      street,
		Zip:         zip,
	}
}

// extractZip removes the last ZIP-looking token from s and returns it without the hyphen.
// A match at the very start is a five-digit house number, not a ZIP.
func extractZip(s string) (string, string) {
	matches := zipCode.FindAllStringIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		if start == 0 {
			continue
		}

		zip := strings.ReplaceAll(s[start:end], "-", "")

		return collapse(s[:start] + " " + s[end:]), zip
	}

	return s, ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
