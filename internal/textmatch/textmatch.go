// Package textmatch implements the case-insensitive string comparisons used by
// the search cascade: prefix, substring, trigram similarity and edit distance.
//
// Similarity follows PostgreSQL's pg_trgm so that in-process backends rank
// rows the same way the SQL backend does.
package textmatch

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Fold normalises s for comparison: trimmed and lower-cased.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HasPrefix reports whether value starts with key, ignoring case.
func HasPrefix(value, key string) bool {
	return strings.HasPrefix(strings.ToLower(value), Fold(key))
}

// Contains reports whether value contains key, ignoring case.
func Contains(value, key string) bool {
	return strings.Contains(strings.ToLower(value), Fold(key))
}

// Distance returns the Levenshtein distance between value and key, ignoring case.
func Distance(value, key string) int {
	return levenshtein.ComputeDistance(strings.ToLower(value), Fold(key))
}

// Similarity returns the pg_trgm similarity of a and b in [0, 1]: the number
// of shared trigrams divided by the number of distinct trigrams in either.
func Similarity(a, b string) float64 {
	ta := Trigrams(a)
	tb := Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// Trigrams returns the trigram set of s. Each alphanumeric word is lower-cased
// and padded with two leading blanks and one trailing blank before slicing.
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range words(s) {
		padded := append([]rune("  "), word...)
		padded = append(padded, ' ')
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

func words(s string) [][]rune {
	var out [][]rune
	var cur []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// MaxDistance returns the largest edit distance still considered a plausible
// match for key: ratio of its length, at least 1.
func MaxDistance(key string, ratio float64) int {
	n := int(float64(len([]rune(Fold(key)))) * ratio)
	if n < 1 {
		return 1
	}
	return n
}
