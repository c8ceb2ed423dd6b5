package affiliate

import (
	"strings"

	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/mapping"
)

const (
	// partnerShop gets a fixed tracking suffix on its affiliate links
	partnerShop           = "MegaKnihy"
	partnerTrackingParams = "utm_source=zbozihub&utm_medium=affiliate"
	defaultTrackingParams = "utm_source=zbozihub&utm_medium=affiliate&utm_campaign=price-comparison"
)

// BuildRedirect resolves the redirect target for a click through three
// fallback tiers: the product's affiliate link, the shop's website with
// tracking parameters, and a best-effort URL synthesized from the shop name.
// It always returns a URL.
func BuildRedirect(t *database.ClickTarget) string {
	if t.HasLink {
		redirect := t.AffiliateURL
		if strings.EqualFold(t.ShopName, partnerShop) && !strings.Contains(redirect, "utm_source=") {
			redirect = appendParams(redirect, partnerTrackingParams)
		}
		return redirect
	}

	if t.ShopWebsiteURL != "" {
		params := t.ShopAffiliateParams
		if params == "" {
			params = defaultTrackingParams
		}
		return appendParams(t.ShopWebsiteURL, params)
	}

	return appendParams("https://www."+mapping.Slugify(t.ShopName)+".com", defaultTrackingParams)
}

func appendParams(url, params string) string {
	if params == "" {
		return url
	}
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return url + separator + params
}
