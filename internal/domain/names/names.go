// Package names holds the team-name normalisation and similarity rules the
// scorer and merge engine share. Everything here is pure: no I/O, no clock,
// no allocation beyond the returned values.
package names

import (
	"math"
	"strings"
	"unicode"
)

// Corporate-form suffix tokens that carry no identity. Qualifiers that
// disambiguate clubs sharing a root word (City, United, Town, Rovers, ...)
// must never appear in this set.
var redundantTokens = map[string]struct{}{
	"fc":   {},
	"afc":  {},
	"cf":   {},
	"cfc":  {},
	"sc":   {},
	"ac":   {},
	"fk":   {},
	"sv":   {},
	"if":   {},
	"club": {},
}

// Normalize lower-cases a team name, strips punctuation and redundant
// corporate suffix tokens, and collapses whitespace. A name made up
// entirely of redundant tokens is returned as-is (lower-cased) rather than
// normalised to the empty string.
func Normalize(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, redundant := redundantTokens[token]; redundant {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		kept = tokens
	}

	return strings.Join(kept, " ")
}

// Similarity scores two team names 0..100 after normalisation:
// 100 for equality, round(min/max*90) when one is a substring of the other,
// otherwise a token-overlap score scaled to 80. Symmetric by construction.
func Similarity(a, b string) int {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		minLen, maxLen := len(na), len(nb)
		if minLen > maxLen {
			minLen, maxLen = maxLen, minLen
		}
		return int(math.Round(float64(minLen) / float64(maxLen) * 90))
	}

	tokensA := significantTokens(na)
	tokensB := significantTokens(nb)
	total := len(tokensA) + len(tokensB)
	if total == 0 {
		return 0
	}

	matched := countMatched(tokensA, tokensB) + countMatched(tokensB, tokensA)
	return int(math.Round(float64(matched) / float64(total) * 80))
}

func significantTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 2 {
			out = append(out, field)
		}
	}
	return out
}

// countMatched counts tokens of a that equal, contain, or are contained in
// some token of b.
func countMatched(a, b []string) int {
	matched := 0
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb || strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matched++
				break
			}
		}
	}
	return matched
}
