package mapping

import (
	"testing"
)

func TestFieldPatterns_TitleSynonyms(t *testing.T) {
	patterns := FieldPatterns()
	if len(patterns) == 0 {
		t.Fatal("Expected field patterns to be loaded")
	}

	var titleSynonyms []string
	for _, p := range patterns {
		if p.Field == "title" {
			titleSynonyms = p.Synonyms
		}
	}
	if titleSynonyms == nil {
		t.Fatal("Expected a title field pattern")
	}

	found := false
	for _, s := range titleSynonyms {
		if s == "name" {
			found = true
		}
	}
	if !found {
		t.Error("Expected 'name' to be a title synonym")
	}
}

func TestFieldPatterns_CostIsNotAPriceSynonym(t *testing.T) {
	// "cost" is deliberately absent: feeds using it must be mapped manually
	for _, p := range FieldPatterns() {
		if p.Field != "price" {
			continue
		}
		for _, s := range p.Synonyms {
			if s == "cost" {
				t.Error("'cost' must not be a price synonym")
			}
		}
	}
}

func TestTaxonomyLookup(t *testing.T) {
	entry, ok := TaxonomyLookup("784")
	if !ok {
		t.Fatal("Expected taxonomy entry for id 784")
	}
	if !entry.Books {
		t.Error("Expected 784 to be the books entry")
	}
	if len(entry.Keywords) == 0 {
		t.Error("Expected keywords for 784")
	}

	if _, ok := TaxonomyLookup("999999"); ok {
		t.Error("Expected no taxonomy entry for unknown id")
	}
}

func TestBooksFallbackSlug(t *testing.T) {
	if BooksFallbackSlug() != "knihy" {
		t.Errorf("Expected books fallback 'knihy', got %q", BooksFallbackSlug())
	}
}

func TestRegionalPatterns(t *testing.T) {
	patterns := RegionalPatterns("cs")
	if len(patterns) == 0 {
		t.Fatal("Expected regional patterns for cs market")
	}
	if patterns[0].Slug != "knihy" {
		t.Errorf("Expected first regional pattern slug 'knihy', got %q", patterns[0].Slug)
	}

	if RegionalPatterns("de") != nil {
		t.Error("Expected no regional patterns for de market")
	}
}

func TestParseTables_Invalid(t *testing.T) {
	if _, err := parseTables([]byte("fields: []")); err == nil {
		t.Error("Expected error for empty field table")
	}

	if _, err := parseTables([]byte("not: [valid")); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	broken := `
fields:
  - field: title
    synonyms: []
`
	if _, err := parseTables([]byte(broken)); err == nil {
		t.Error("Expected error for field pattern without synonyms")
	}
}
