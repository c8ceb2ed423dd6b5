package affiliate

import (
	"testing"
)

func TestMapRecords_FieldMapping(t *testing.T) {
	items := []map[string]interface{}{
		{
			"productTitle": "Notebook X",
			"amount":       19999.0,
			"img":          "https://example.com/nb.jpg",
			"id":           "api-1",
		},
	}

	fieldMapping := map[string]string{
		"title":     "productTitle",
		"price":     "amount",
		"image_url": "img",
	}

	records := mapRecords(items, fieldMapping)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record["title"] != "Notebook X" {
		t.Errorf("Expected mapped title, got %q", record["title"])
	}
	if record["price"] != "19999" {
		t.Errorf("Expected numeric price stringified, got %q", record["price"])
	}
	// "external_id" has no mapping entry; the fallback key "id" applies
	if record["external_id"] != "api-1" {
		t.Errorf("Expected fallback external id, got %q", record["external_id"])
	}
}

func TestMapRecords_MissingValuesOmitted(t *testing.T) {
	records := mapRecords([]map[string]interface{}{{"title": "Only Title"}}, nil)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if _, ok := records[0]["price"]; ok {
		t.Error("Expected missing price to be omitted from the record")
	}
}

func TestStringifyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil", nil, ""},
		{"string trimmed", "  hello  ", "hello"},
		{"whole float", 100.0, "100"},
		{"decimal float", 249.9, "249.9"},
		{"two decimals", 19.99, "19.99"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := stringifyValue(tt.input); result != tt.expected {
				t.Errorf("stringifyValue(%v) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
