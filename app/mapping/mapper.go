package mapping

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/zbozihub/zbozihub/app/database"
)

const maxDistinctTokens = 50

// googleCategoryTag is always accepted as a category source, regardless of
// the mapped category field
const googleCategoryTag = "google_product_category"

// Mapper resolves raw feed category tokens against the live category tree.
// All lookups are pure functions over the static tables; the live categories
// are passed in by the caller.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Run extracts distinct category tokens from the raw feed and resolves each
// one to a category id. Unresolvable tokens are omitted from the result.
func (m *Mapper) Run(rawXML []byte, categoryField, marketCode string, live []database.Category) map[string]string {
	result := make(map[string]string)

	for _, token := range m.ExtractTokens(rawXML, categoryField) {
		if id, ok := m.Resolve(token, marketCode, live); ok {
			result[token] = id
		}
	}

	return result
}

// ExtractTokens collects up to 50 distinct literal values from elements named
// by the category field. Namespace prefixes are resolved by the tokenizer, so
// plain, prefixed and CDATA-wrapped values all collapse into the same path;
// g:google_product_category is accepted unconditionally.
func (m *Mapper) ExtractTokens(rawXML []byte, categoryField string) []string {
	want := strings.ToLower(StripNamespace(categoryField))

	d := xml.NewDecoder(bytes.NewReader(rawXML))
	d.Strict = false

	var tokens []string
	seen := make(map[string]bool)
	collecting := false
	var value strings.Builder

	for {
		tok, err := d.Token()
		if err != nil {
			// Malformed trailing content ends collection; everything seen so
			// far is still usable.
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := strings.ToLower(t.Name.Local)
			collecting = local == want || local == googleCategoryTag
			value.Reset()
		case xml.CharData:
			if collecting {
				value.Write(t)
			}
		case xml.EndElement:
			if collecting {
				token := strings.TrimSpace(value.String())
				if token != "" && !seen[token] {
					seen[token] = true
					tokens = append(tokens, token)
					if len(tokens) >= maxDistinctTokens {
						return tokens
					}
				}
			}
			collecting = false
		}
	}

	return tokens
}

// Resolve maps one raw token to a category id. Checked in order, first hit
// wins: numeric taxonomy lookup, direct name/slug match, regional keyword
// patterns. Returns false when nothing matches.
func (m *Mapper) Resolve(token, marketCode string, live []database.Category) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	if entry, ok := TaxonomyLookup(token); ok {
		for _, keyword := range entry.Keywords {
			for _, cat := range live {
				if textMatches(cat, keyword) {
					return cat.ID, true
				}
			}
		}
		if entry.Books {
			fallback := BooksFallbackSlug()
			for _, cat := range live {
				if strings.EqualFold(cat.Slug, fallback) || strings.EqualFold(cat.Name, fallback) {
					return cat.ID, true
				}
			}
		}
		return "", false
	}

	for _, cat := range live {
		if textMatches(cat, token) {
			return cat.ID, true
		}
	}

	lower := strings.ToLower(token)
	for _, pattern := range RegionalPatterns(marketCode) {
		for _, keyword := range pattern.Keywords {
			if strings.Contains(lower, keyword) {
				if found := findBySlug(live, pattern.Slug); found != nil {
					return found.ID, true
				}
			}
		}
	}

	return "", false
}

// textMatches reports whether a category's name or slug equals, contains or
// is contained by the given text, case-insensitively
func textMatches(cat database.Category, text string) bool {
	lower := strings.ToLower(text)
	for _, candidate := range []string{strings.ToLower(cat.Name), strings.ToLower(cat.Slug)} {
		if candidate == "" {
			continue
		}
		if candidate == lower || strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			return true
		}
	}
	return false
}

func findBySlug(live []database.Category, slug string) *database.Category {
	for i := range live {
		if strings.EqualFold(live[i].Slug, slug) {
			return &live[i]
		}
	}
	return nil
}

// StripNamespace removes an XML namespace prefix from a tag name
func StripNamespace(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
