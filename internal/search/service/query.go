package service

import (
	"strings"
	"unicode"

	"storefront_backend/platform/sanitize"
)

const (
	maxQueryRunes        = 256
	maxSuggestQueryRunes = 100
	maxQueryTerms        = 16

	defaultSearchLimit  = 20
	maxSearchLimit      = 100
	defaultSuggestLimit = 8
	maxSuggestLimit     = 50
)

// normalizeQuery trims, strips markup and caps user text. Over-long input is
// truncated, never rejected.
func normalizeQuery(raw string, maxRunes int) string {
	return sanitize.Query(raw, maxRunes)
}

// queryTerms lower-cases q and splits it on anything that is not a letter or
// digit, dropping duplicates and keeping at most maxQueryTerms.
func queryTerms(q string) []string {
	fields := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return terms
}

// prefixTSQuery renders terms as an AND of prefix matches. Terms only contain
// letters and digits so no tsquery operator can leak in.
func prefixTSQuery(terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + ":*"
	}
	return strings.Join(parts, " & ")
}

func clampLimit(limit, def, max int) int {
	switch {
	case limit == 0:
		return def
	case limit < 1:
		return 1
	case limit > max:
		return max
	default:
		return limit
	}
}
