package service

import (
	"strings"
	"unicode"

	"storefront_backend/internal/search/transport"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// fold removes diacritics and lower-cases s.
func fold(s string) string {
	folded, _, err := transform.String(newFolder(), s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// highlightSpan finds the first accent and case insensitive occurrence of
// query in title and returns its rune range in the original title.
func highlightSpan(title, query string) *transport.HighlightSpan {
	needle := []rune(fold(query))
	if len(needle) == 0 {
		return nil
	}

	folder := newFolder()
	var haystack []rune
	var origin []int
	for i, r := range []rune(title) {
		chunk, _, err := transform.String(folder, string(r))
		if err != nil {
			chunk = string(r)
		}
		for _, fr := range strings.ToLower(chunk) {
			haystack = append(haystack, fr)
			origin = append(origin, i)
		}
	}

	for start := 0; start+len(needle) <= len(haystack); start++ {
		if runesEqual(haystack[start:start+len(needle)], needle) {
			return &transport.HighlightSpan{
				Start: origin[start],
				End:   origin[start+len(needle)-1] + 1,
			}
		}
	}
	return nil
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
