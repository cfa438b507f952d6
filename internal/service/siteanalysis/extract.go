package siteanalysis

import (
	"html"
	"regexp"
	"strings"
)

var (
	ogSiteNameRe = regexp.MustCompile(`<meta[^>]+property=["']og:site_name["'][^>]+content=["']([^"']+)["']`)
	appNameRe    = regexp.MustCompile(`<meta[^>]+name=["']application-name["'][^>]+content=["']([^"']+)["']`)
	jsonShopRe   = regexp.MustCompile(`"shop_name"\s*:\s*"([^"]+)"`)
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	themeObjectRe = regexp.MustCompile(`Shopify\.theme\s*=\s*{[^}]*"name"\s*:\s*"([^"]+)"`)
	themeClassRe  = regexp.MustCompile(`<body[^>]+class=["'][^"']*\btheme-([a-z0-9_-]+)`)
	themeAttrRe   = regexp.MustCompile(`data-theme=["']([a-z0-9_ -]+)["']`)

	currencyJSONRe   = regexp.MustCompile(`"currency"\s*:\s*"([A-Z]{3})"`)
	currencyAttrRe   = regexp.MustCompile(`data-currency=["']([A-Za-z]{3})["']`)
	currencyActiveRe = regexp.MustCompile(`Shopify\.currency\s*=\s*{[^}]*"active"\s*:\s*"([A-Z]{3})"`)
)

// ExtractShopName pulls a display name from the page, in precedence
// order, falling back to the registrable domain.
func ExtractShopName(body, fallbackDomain string) string {
	for _, re := range []*regexp.Regexp{ogSiteNameRe, appNameRe, jsonShopRe} {
		if m := re.FindStringSubmatch(body); m != nil {
			if name := strings.TrimSpace(html.UnescapeString(m[1])); name != "" {
				return name
			}
		}
	}
	if m := titleRe.FindStringSubmatch(body); m != nil {
		title := strings.TrimSpace(html.UnescapeString(m[1]))
		// Keep the brand part of "Product | Brand" style titles.
		for _, sep := range []string{" | ", " – ", " - "} {
			if i := strings.LastIndex(title, sep); i >= 0 {
				title = strings.TrimSpace(title[i+len(sep):])
			}
		}
		if title != "" {
			return title
		}
	}
	return fallbackDomain
}

// ExtractTheme pulls the storefront theme name, or "".
func ExtractTheme(body string) string {
	for _, re := range []*regexp.Regexp{themeObjectRe, themeClassRe, themeAttrRe} {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractCurrency pulls the storefront currency code, or "".
func ExtractCurrency(body string) string {
	for _, re := range []*regexp.Regexp{currencyActiveRe, currencyJSONRe, currencyAttrRe} {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// paymentAliases maps each recordable payment token to the strings that
// reveal it in page HTML. Tested against the lowercased document.
var paymentAliases = map[string][]string{
	"visa":       {"visa"},
	"mastercard": {"mastercard", "master card"},
	"amex":       {"amex", "american express"},
	"paypal":     {"paypal"},
	"apple_pay":  {"apple pay", "applepay", "apple-pay"},
	"google_pay": {"google pay", "googlepay", "gpay"},
	"shop_pay":   {"shop pay", "shoppay", "shop-pay"},
	"klarna":     {"klarna"},
	"afterpay":   {"afterpay", "after pay"},
	"stripe":     {"stripe"},
	"sepa":       {"sepa"},
	"ideal":      {"ideal"},
	"sofort":     {"sofort"},
	"bancontact": {"bancontact"},
}

// paymentOrder keeps DetectPayments deterministic.
var paymentOrder = []string{
	"visa", "mastercard", "amex", "paypal", "apple_pay", "google_pay",
	"shop_pay", "klarna", "afterpay", "stripe", "sepa", "ideal",
	"sofort", "bancontact",
}

// DetectPayments records each payment method whose alias appears in the
// document. First alias hit per method wins.
func DetectPayments(body string) []string {
	lower := strings.ToLower(body)
	var found []string
	for _, method := range paymentOrder {
		for _, alias := range paymentAliases[method] {
			if strings.Contains(lower, alias) {
				found = append(found, method)
				break
			}
		}
	}
	return found
}

// categoryPatterns holds per-category keyword regexes. The category
// with the most hits wins; all-zero means no category.
var categoryPatterns = map[string]*regexp.Regexp{
	"fashion":     regexp.MustCompile(`(?i)\b(dress|sneaker|apparel|clothing|outfit|wardrobe|jeans|hoodie)\b`),
	"beauty":      regexp.MustCompile(`(?i)\b(skincare|makeup|serum|cosmetic|moisturizer|fragrance)\b`),
	"electronics": regexp.MustCompile(`(?i)\b(headphone|charger|gadget|smartwatch|earbud|laptop)\b`),
	"home":        regexp.MustCompile(`(?i)\b(furniture|decor|bedding|candle|kitchenware|rug)\b`),
	"sports":      regexp.MustCompile(`(?i)\b(fitness|workout|yoga|gym|running|cycling)\b`),
	"food":        regexp.MustCompile(`(?i)\b(snack|coffee|tea|chocolate|organic food|supplement)\b`),
	"jewelry":     regexp.MustCompile(`(?i)\b(necklace|bracelet|earring|jewelry|jewellery|ring size)\b`),
	"kids":        regexp.MustCompile(`(?i)\b(toddler|stroller|baby|toys|nursery)\b`),
	"pets":        regexp.MustCompile(`(?i)\b(dog|cat|pet food|leash|litter)\b`),
}

// DetectCategory counts keyword hits per category and returns the
// winner, or "" when nothing scored.
func DetectCategory(body string) string {
	best, bestCount := "", 0
	for category, re := range categoryPatterns {
		n := len(re.FindAllStringIndex(body, -1))
		if n > bestCount || (n == bestCount && n > 0 && category < best) {
			best, bestCount = category, n
		}
	}
	return best
}
