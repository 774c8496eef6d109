// Package textnorm folds user-entered place and search strings into a
// comparable form: lowercase with combining diacritics removed.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinKeywordLength is the shortest token kept by Keywords.
const MinKeywordLength = 4

// Normalize lowercases s, decomposes it canonically, drops every combining
// mark and trims surrounding whitespace. "ñ" collapses to "n".
func Normalize(s string) string {
	return strings.TrimSpace(Fold(s))
}

// Fold is Normalize without the trim. Cue phrases such as "no " keep their
// trailing space.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Contains reports whether needle occurs in haystack either as a raw
// lowercase substring or after both sides are normalized.
func Contains(haystack, needle string) bool {
	if strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)) {
		return true
	}
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// Keywords splits s on whitespace, commas and semicolons and keeps the tokens
// of at least MinKeywordLength runes, in order, without duplicates.
func Keywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinKeywordLength {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}
