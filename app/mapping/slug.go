package mapping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a category or shop name into a URL-safe slug: diacritics
// stripped, lowercased, non-alphanumeric runs collapsed to single hyphens.
func Slugify(name string) string {
	flat, _, err := transform.String(deaccenter, name)
	if err != nil {
		flat = name
	}

	var b strings.Builder
	b.Grow(len(flat))
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(flat) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
