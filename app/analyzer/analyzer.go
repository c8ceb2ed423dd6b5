package analyzer

import (
	"strings"

	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/mapping"
)

const (
	sampleProductLimit = 2000
	sampleRawLimit     = 1000
)

// Analyzer discovers the structure of an unknown product feed: its root
// element, namespaces, repeating product element, candidate fields and a
// suggested field mapping.
type Analyzer struct {
	mapper *mapping.Mapper
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{mapper: mapping.NewMapper()}
}

// Run analyzes raw feed XML against the live categories of a market. It has
// no side effects; callers persist the suggested mapping themselves.
func (a *Analyzer) Run(raw []byte, marketCode string, live []database.Category) *Result {
	result := &Result{
		Warnings:         []string{},
		DetectedFields:   []string{},
		SuggestedMapping: make(map[string]string),
		CategoryMapping:  make(map[string]string),
		SampleRawXML:     truncate(string(raw), sampleRawLimit),
	}

	s := scanStructure(raw)
	result.FeedOverview.RootElement = s.root
	result.FeedOverview.Namespaces = s.namespaces

	element, count := s.productElement()
	if element == "" {
		result.Warnings = append(result.Warnings,
			"No product elements found (tried: "+strings.Join(ProductElementCandidates, ", ")+")")
		return result
	}
	result.FeedOverview.ProductElement = element
	result.FeedOverview.ProductCount = count

	blocks := CollectBlocks(raw, element, 1)
	if len(blocks) == 0 {
		result.Warnings = append(result.Warnings, "Product element detected but no block could be parsed")
		return result
	}

	sample := blocks[0]
	result.DetectedFields = sample.Tags
	result.SampleProductXML = truncate(sample.Raw, sampleProductLimit)
	result.SuggestedMapping = suggestMapping(sample.Tags)

	if _, ok := result.SuggestedMapping["title"]; !ok {
		result.Warnings = append(result.Warnings, "No title field detected")
	}
	if _, ok := result.SuggestedMapping["price"]; !ok {
		result.Warnings = append(result.Warnings, "No price field detected")
	}
	if _, ok := result.SuggestedMapping["image_url"]; !ok {
		result.Warnings = append(result.Warnings, "No image field detected")
	}

	categoryField := result.SuggestedMapping["category"]
	if categoryField == "" {
		categoryField = "category"
	}
	result.CategoryMapping = a.mapper.Run(raw, categoryField, marketCode, live)

	_, hasTitle := result.SuggestedMapping["title"]
	_, hasPrice := result.SuggestedMapping["price"]
	result.IsValid = hasTitle && hasPrice

	return result
}

// suggestMapping matches detected tags against the field synonym table. The
// first synonym hit wins and a field is never remapped once set.
func suggestMapping(tags []string) map[string]string {
	suggested := make(map[string]string)

	for _, pattern := range mapping.FieldPatterns() {
		if _, done := suggested[pattern.Field]; done {
			continue
		}
	match:
		for _, synonym := range pattern.Synonyms {
			for _, tag := range tags {
				stripped := strings.ToLower(mapping.StripNamespace(tag))
				if stripped == synonym {
					suggested[pattern.Field] = tag
					break match
				}
			}
		}
	}

	return suggested
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
