package affiliate

import (
	"strings"
	"testing"

	"github.com/zbozihub/zbozihub/app/database"
)

func TestBuildRedirect_AffiliateLink(t *testing.T) {
	target := &database.ClickTarget{
		ShopName:     "Some Shop",
		HasLink:      true,
		AffiliateURL: "https://aff.example.com/redirect?target=abc",
	}

	redirect := BuildRedirect(target)
	if redirect != target.AffiliateURL {
		t.Errorf("Expected affiliate URL unchanged, got %q", redirect)
	}
}

func TestBuildRedirect_PartnerShopSuffix(t *testing.T) {
	target := &database.ClickTarget{
		ShopName:     "MegaKnihy",
		HasLink:      true,
		AffiliateURL: "https://www.megaknihy.cz/kniha/123",
	}

	redirect := BuildRedirect(target)
	if !strings.HasPrefix(redirect, target.AffiliateURL) {
		t.Errorf("Expected partner URL as prefix, got %q", redirect)
	}
	if !strings.Contains(redirect, "utm_source=zbozihub") {
		t.Errorf("Expected partner tracking suffix, got %q", redirect)
	}

	// Links that already carry a utm_source are left alone
	tagged := &database.ClickTarget{
		ShopName:     "MegaKnihy",
		HasLink:      true,
		AffiliateURL: "https://www.megaknihy.cz/kniha/123?utm_source=other",
	}
	if redirect := BuildRedirect(tagged); redirect != tagged.AffiliateURL {
		t.Errorf("Expected tagged URL unchanged, got %q", redirect)
	}
}

func TestBuildRedirect_ShopWebsiteFallback(t *testing.T) {
	target := &database.ClickTarget{
		ShopName:       "Knihy Dobrovský",
		ShopWebsiteURL: "https://www.knihydobrovsky.cz",
	}

	redirect := BuildRedirect(target)
	if !strings.HasPrefix(redirect, target.ShopWebsiteURL) {
		t.Errorf("Expected shop website as prefix, got %q", redirect)
	}
	if !strings.Contains(redirect, "utm_medium=affiliate") {
		t.Errorf("Expected tracking parameters, got %q", redirect)
	}

	// Shop-specific affiliate params take precedence over the defaults
	custom := &database.ClickTarget{
		ShopName:            "Knihy Dobrovský",
		ShopWebsiteURL:      "https://www.knihydobrovsky.cz",
		ShopAffiliateParams: "partner=zbozihub",
	}
	redirect = BuildRedirect(custom)
	if redirect != "https://www.knihydobrovsky.cz?partner=zbozihub" {
		t.Errorf("Expected shop affiliate params, got %q", redirect)
	}
}

func TestBuildRedirect_SynthesizedURL(t *testing.T) {
	target := &database.ClickTarget{ShopName: "Nějaký Obchod"}

	redirect := BuildRedirect(target)
	if !strings.HasPrefix(redirect, "https://www.nejaky-obchod.com") {
		t.Errorf("Expected synthesized URL from shop name, got %q", redirect)
	}
	if !strings.Contains(redirect, "utm_campaign=price-comparison") {
		t.Errorf("Expected default tracking parameters, got %q", redirect)
	}
}

func TestAppendParams(t *testing.T) {
	if result := appendParams("https://example.com", "a=1"); result != "https://example.com?a=1" {
		t.Errorf("Expected ? separator, got %q", result)
	}
	if result := appendParams("https://example.com?x=1", "a=1"); result != "https://example.com?x=1&a=1" {
		t.Errorf("Expected & separator, got %q", result)
	}
	if result := appendParams("https://example.com", ""); result != "https://example.com" {
		t.Errorf("Expected URL unchanged, got %q", result)
	}
}
