package mapping

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yml
var tablesYAML []byte

type FieldPattern struct {
	Field    string   `yaml:"field"`
	Synonyms []string `yaml:"synonyms"`
}

type TaxonomyEntry struct {
	ID       string   `yaml:"id"`
	Books    bool     `yaml:"books"`
	Keywords []string `yaml:"keywords"`
}

type RegionalPattern struct {
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

type Tables struct {
	Fields        []FieldPattern  `yaml:"fields"`
	Taxonomy      []TaxonomyEntry `yaml:"taxonomy"`
	BooksFallback string          `yaml:"books_fallback"`
	Regional      struct {
		Market   string            `yaml:"market"`
		Patterns []RegionalPattern `yaml:"patterns"`
	} `yaml:"regional"`
}

var tables = mustLoadTables()

func mustLoadTables() *Tables {
	t, err := parseTables(tablesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse mapping tables: %w", err)
	}

	if len(t.Fields) == 0 {
		return nil, fmt.Errorf("mapping tables define no field patterns")
	}
	for _, fp := range t.Fields {
		if fp.Field == "" || len(fp.Synonyms) == 0 {
			return nil, fmt.Errorf("field pattern %q has no synonyms", fp.Field)
		}
	}
	for _, entry := range t.Taxonomy {
		if entry.ID == "" || len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("taxonomy entry %q has no keywords", entry.ID)
		}
	}

	return &t, nil
}

// FieldPatterns returns the ordered field synonym table
func FieldPatterns() []FieldPattern {
	return tables.Fields
}

// TaxonomyLookup returns the taxonomy entry for an external taxonomy id token
func TaxonomyLookup(id string) (TaxonomyEntry, bool) {
	for _, entry := range tables.Taxonomy {
		if entry.ID == id {
			return entry, true
		}
	}
	return TaxonomyEntry{}, false
}

// BooksFallbackSlug is the local-language category the books taxonomy id
// falls back to when no keyword matches a live category
func BooksFallbackSlug() string {
	return tables.BooksFallback
}

// RegionalPatterns returns the ordered slug patterns for a market, or nil for
// markets without a regional table
func RegionalPatterns(marketCode string) []RegionalPattern {
	if marketCode != tables.Regional.Market {
		return nil
	}
	return tables.Regional.Patterns
}
