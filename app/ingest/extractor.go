package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	gofeedext "github.com/mmcdole/gofeed/extensions"
	"github.com/zbozihub/zbozihub/app/analyzer"
	"github.com/zbozihub/zbozihub/app/mapping"
)

// Fallback source tags used when a field has no mapping entry
var fallbackFields = map[string]string{
	"title":          "title",
	"description":    "description",
	"price":          "price",
	"original_price": "original_price",
	"currency":       "currency",
	"image_url":      "image_url",
	"category":       "category",
	"availability":   "availability",
	"external_id":    "id",
	"url":            "url",
	"shop":           "shop",
	"author":         "author",
	"publisher":      "publisher",
	"isbn":           "isbn",
}

// Extractor turns a raw feed document into normalized records
type Extractor struct {
	rssParser *gofeed.Parser
}

func NewExtractor() *Extractor {
	return &Extractor{rssParser: gofeed.NewParser()}
}

// Run extracts product records from the raw document. feedType "rss" goes
// through the RSS/Atom parser (Google Shopping RSS included); everything else
// is treated as generic product XML.
func (e *Extractor) Run(raw []byte, feedType string, fields map[string]string) ([]Record, error) {
	if feedType == "rss" {
		return e.extractRSS(raw)
	}
	return e.extractXML(raw, fields)
}

func (e *Extractor) extractXML(raw []byte, fields map[string]string) ([]Record, error) {
	element, _ := analyzer.DetectProductElement(raw)
	if element == "" {
		return nil, fmt.Errorf("no product elements found in feed")
	}

	blocks := analyzer.CollectBlocks(raw, element, 0)

	records := make([]Record, 0, len(blocks))
	for _, block := range blocks {
		record := make(Record)
		for field, fallback := range fallbackFields {
			source := fields[field]
			if source == "" {
				source = fallback
			}
			key := strings.ToLower(mapping.StripNamespace(source))
			if value, ok := block.Values[key]; ok {
				record[field] = value
			}
		}
		records = append(records, record)
	}

	return records, nil
}

func (e *Extractor) extractRSS(raw []byte) ([]Record, error) {
	feed, err := e.rssParser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	records := make([]Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		record := Record{
			"title":       item.Title,
			"description": item.Description,
			"url":         item.Link,
			"external_id": item.GUID,
		}

		if len(item.Categories) > 0 {
			record["category"] = item.Categories[0]
		}
		if item.Image != nil {
			record["image_url"] = item.Image.URL
		} else if len(item.Enclosures) > 0 && item.Enclosures[0] != nil &&
			strings.HasPrefix(item.Enclosures[0].Type, "image/") {
			record["image_url"] = item.Enclosures[0].URL
		}

		// Google Shopping RSS carries product data in the g: namespace
		if ext, ok := item.Extensions["g"]; ok {
			setFromExtension(record, ext, "price", "price")
			setFromExtension(record, ext, "sale_price", "price")
			setFromExtension(record, ext, "image_link", "image_url")
			setFromExtension(record, ext, "id", "external_id")
			setFromExtension(record, ext, "availability", "availability")
			setFromExtension(record, ext, "google_product_category", "category")
			setFromExtension(record, ext, "product_type", "category")
			setFromExtension(record, ext, "brand", "shop")
			setFromExtension(record, ext, "link", "url")
		}

		for field, value := range record {
			if value == "" {
				delete(record, field)
			}
		}

		records = append(records, record)
	}

	return records, nil
}

func setFromExtension(record Record, ext map[string][]gofeedext.Extension, key, field string) {
	if record[field] != "" {
		return
	}
	if values, ok := ext[key]; ok && len(values) > 0 {
		record[field] = strings.TrimSpace(values[0].Value)
	}
}
