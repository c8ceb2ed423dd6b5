package mapping

import (
	"testing"

	"github.com/zbozihub/zbozihub/app/database"
)

func testCategories() []database.Category {
	return []database.Category{
		{ID: "cat-books", Name: "Knihy", Slug: "knihy", MarketCode: "cs", IsActive: true},
		{ID: "cat-electronics", Name: "Elektronika", Slug: "elektronika", MarketCode: "cs", IsActive: true},
		{ID: "cat-toys", Name: "Hračky", Slug: "hracky", MarketCode: "cs", IsActive: true},
	}
}

func TestMapper_ExtractTokens(t *testing.T) {
	mapper := NewMapper()

	rawXML := []byte(`<?xml version="1.0"?>
<SHOP>
	<SHOPITEM>
		<PRODUCTNAME>Item A</PRODUCTNAME>
		<CATEGORYTEXT>Knihy</CATEGORYTEXT>
	</SHOPITEM>
	<SHOPITEM>
		<PRODUCTNAME>Item B</PRODUCTNAME>
		<CATEGORYTEXT><![CDATA[Elektronika]]></CATEGORYTEXT>
	</SHOPITEM>
	<SHOPITEM>
		<PRODUCTNAME>Item C</PRODUCTNAME>
		<CATEGORYTEXT>Knihy</CATEGORYTEXT>
	</SHOPITEM>
</SHOP>`)

	tokens := mapper.ExtractTokens(rawXML, "categorytext")

	if len(tokens) != 2 {
		t.Fatalf("Expected 2 distinct tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "Knihy" || tokens[1] != "Elektronika" {
		t.Errorf("Expected [Knihy Elektronika], got %v", tokens)
	}
}

func TestMapper_ExtractTokens_GoogleCategoryTag(t *testing.T) {
	mapper := NewMapper()

	// g:google_product_category is collected even when another field is mapped
	rawXML := []byte(`<rss xmlns:g="http://base.google.com/ns/1.0">
	<channel>
		<item>
			<title>Item</title>
			<g:google_product_category>784</g:google_product_category>
		</item>
	</channel>
</rss>`)

	tokens := mapper.ExtractTokens(rawXML, "category")

	if len(tokens) != 1 || tokens[0] != "784" {
		t.Errorf("Expected [784], got %v", tokens)
	}
}

func TestMapper_Resolve_TaxonomyLookup(t *testing.T) {
	mapper := NewMapper()
	live := testCategories()

	id, ok := mapper.Resolve("784", "cs", live)
	if !ok {
		t.Fatal("Expected 784 to resolve")
	}
	if id != "cat-books" {
		t.Errorf("Expected cat-books, got %s", id)
	}

	// Unknown taxonomy ids never fall through to direct matching
	if _, ok := mapper.Resolve("222", "cs", nil); ok {
		t.Error("Expected 222 not to resolve without live categories")
	}
}

func TestMapper_Resolve_BooksFallback(t *testing.T) {
	mapper := NewMapper()

	// No keyword hit, but a live category slugged "knihy" exists
	live := []database.Category{
		{ID: "cat-1", Name: "Literárium", Slug: "knihy", MarketCode: "cs", IsActive: true},
	}

	id, ok := mapper.Resolve("784", "cs", live)
	if !ok || id != "cat-1" {
		t.Errorf("Expected books fallback to resolve to cat-1, got %q (ok=%t)", id, ok)
	}
}

func TestMapper_Resolve_DirectMatch(t *testing.T) {
	mapper := NewMapper()
	live := testCategories()

	tests := []struct {
		token    string
		expected string
	}{
		{"Knihy", "cat-books"},                   // exact name
		{"elektronika", "cat-electronics"},       // exact slug
		{"Dětské knihy a učebnice", "cat-books"}, // category name contained in token
		{"Elektro", "cat-electronics"},           // token contained in category name
	}

	for _, tt := range tests {
		id, ok := mapper.Resolve(tt.token, "cs", live)
		if !ok {
			t.Errorf("Expected %q to resolve", tt.token)
			continue
		}
		if id != tt.expected {
			t.Errorf("Resolve(%q) = %s, expected %s", tt.token, id, tt.expected)
		}
	}
}

func TestMapper_Resolve_RegionalPatterns(t *testing.T) {
	mapper := NewMapper()
	live := testCategories()

	// "stavebnice" only matches through the cs regional table
	id, ok := mapper.Resolve("Stavebnice LEGO", "cs", live)
	if !ok || id != "cat-toys" {
		t.Errorf("Expected regional match cat-toys, got %q (ok=%t)", id, ok)
	}

	// The same token must not resolve for other markets
	if _, ok := mapper.Resolve("Stavebnice LEGO", "de", live); ok {
		t.Error("Expected no regional match for de market")
	}
}

func TestMapper_Resolve_NoMatch(t *testing.T) {
	mapper := NewMapper()

	if _, ok := mapper.Resolve("Akvaristika", "cs", testCategories()); ok {
		t.Error("Expected no match for unknown token")
	}
	if _, ok := mapper.Resolve("   ", "cs", testCategories()); ok {
		t.Error("Expected no match for blank token")
	}
}

func TestMapper_Run(t *testing.T) {
	mapper := NewMapper()
	live := testCategories()

	rawXML := []byte(`<SHOP>
	<SHOPITEM><CATEGORYTEXT>Knihy</CATEGORYTEXT></SHOPITEM>
	<SHOPITEM><CATEGORYTEXT>Akvaristika</CATEGORYTEXT></SHOPITEM>
	<SHOPITEM><CATEGORYTEXT>784</CATEGORYTEXT></SHOPITEM>
</SHOP>`)

	result := mapper.Run(rawXML, "CATEGORYTEXT", "cs", live)

	if len(result) != 2 {
		t.Fatalf("Expected 2 mapped tokens, got %d: %v", len(result), result)
	}
	if result["Knihy"] != "cat-books" {
		t.Errorf("Expected Knihy -> cat-books, got %s", result["Knihy"])
	}
	if result["784"] != "cat-books" {
		t.Errorf("Expected 784 -> cat-books, got %s", result["784"])
	}
	if _, ok := result["Akvaristika"]; ok {
		t.Error("Unresolvable tokens must be omitted from the result")
	}
}

func TestStripNamespace(t *testing.T) {
	if StripNamespace("g:price") != "price" {
		t.Errorf("Expected 'price', got %q", StripNamespace("g:price"))
	}
	if StripNamespace("title") != "title" {
		t.Errorf("Expected 'title', got %q", StripNamespace("title"))
	}
}
