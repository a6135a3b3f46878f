package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugRunes = 120

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a lowercase, accent-free, hyphen separated slug.
func Slugify(value string) string {
	folded, _, err := transform.String(slugFolder, value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	pendingHyphen := false
	count := 0
	for _, r := range strings.ToLower(folded) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingHyphen = b.Len() > 0
			continue
		}
		if count >= maxSlugRunes {
			break
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
