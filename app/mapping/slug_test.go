package mapping

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "knihy", "knihy"},
		{"uppercase", "Elektronika", "elektronika"},
		{"czech diacritics", "Dětské knihy", "detske-knihy"},
		{"spaces and punctuation", "Sport & Outdoor", "sport-outdoor"},
		{"leading and trailing junk", "  --Hračky!  ", "hracky"},
		{"numbers kept", "Top 10 Mobily", "top-10-mobily"},
		{"empty input", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
