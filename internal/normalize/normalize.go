// Package normalize provides utilities for normalizing user-entered text.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// QueryName normalizes a name typed or extracted from a seed packet into
// the form used as a lookup cache key. Only surrounding whitespace is
// removed; case and inner spacing are significant.
func QueryName(raw string) string {
	return strings.TrimSpace(raw)
}

// Fold lowercases s and strips diacritics: "Jalapeño" -> "jalapeno".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(sanitizeString(folded))
}

// SearchTerms splits a free-text query into search terms.
// Each whitespace-separated word keeps only its letters and digits and is
// folded; words left empty are dropped. Every returned term is meant to
// be matched as a prefix, and all of them must match.
//
//	"  Cherry tom" -> ["cherry", "tom"]
//	"St. John's"   -> ["st", "johns"]
func SearchTerms(raw string) []string {
	fields := strings.Fields(raw)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				return r
			}
			return -1
		}, f)
		word = Fold(word)
		if word == "" {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// FilterValue trims a catalog filter value. Blank means "no filter".
func FilterValue(raw string) string {
	return strings.TrimSpace(sanitizeString(raw))
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
