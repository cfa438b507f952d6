package siteanalysis

import (
	"net/http"
	"regexp"
	"strings"
)

// signature fingerprints one commerce platform. A header match
// short-circuits; body patterns are only consulted when no header
// matched.
type signature struct {
	platform     string
	headerKeys   []string
	serverBrands []string
	bodyRes      []*regexp.Regexp
}

var signatures = []signature{
	{
		platform:     "shopify",
		headerKeys:   []string{"X-Shopid", "X-Shopify-Stage", "X-Sorting-Hat-Shopid"},
		serverBrands: []string{"shopify"},
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`cdn\.shopify\.com`),
			regexp.MustCompile(`Shopify\.theme`),
			regexp.MustCompile(`class="[^"]*shopify-section`),
		},
	},
	{
		platform:     "woocommerce",
		serverBrands: []string{"woocommerce"},
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`wp-content/plugins/woocommerce`),
			regexp.MustCompile(`class="[^"]*woocommerce`),
		},
	},
	{
		platform:   "magento",
		headerKeys: []string{"X-Magento-Cache-Control", "X-Magento-Tags"},
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`Mage\.Cookies`),
			regexp.MustCompile(`/static/version\d+/`),
			regexp.MustCompile(`data-mage-init`),
		},
	},
	{
		platform: "prestashop",
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`var prestashop\s*=`),
			regexp.MustCompile(`/modules/ps_`),
		},
	},
	{
		platform: "bigcommerce",
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`cdn\d*\.bigcommerce\.com`),
		},
	},
	{
		platform:   "wix",
		headerKeys: []string{"X-Wix-Request-Id"},
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`static\.wixstatic\.com`),
		},
	},
	{
		platform:     "squarespace",
		serverBrands: []string{"squarespace"},
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`static1\.squarespace\.com`),
		},
	},
	{
		platform: "shopware",
		bodyRes: []*regexp.Regexp{
			regexp.MustCompile(`window\.shopware\s*=`),
		},
	},
}

// DetectFromHeaders checks response headers for platform signals.
// Returns the platform name, or "" when nothing matched.
func DetectFromHeaders(h http.Header) string {
	if h == nil {
		return ""
	}
	banner := strings.ToLower(h.Get("Server") + " " + h.Get("X-Powered-By"))
	for _, sig := range signatures {
		for _, key := range sig.headerKeys {
			if h.Get(key) != "" {
				return sig.platform
			}
		}
		for _, brand := range sig.serverBrands {
			if brand != "" && strings.Contains(banner, brand) {
				return sig.platform
			}
		}
	}
	return ""
}

// DetectFromBody scans the HTML against each platform's patterns.
func DetectFromBody(html string) string {
	for _, sig := range signatures {
		for _, re := range sig.bodyRes {
			if re.MatchString(html) {
				return sig.platform
			}
		}
	}
	return ""
}
