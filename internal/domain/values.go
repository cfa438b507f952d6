package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// knownCountries is the closed set of ISO-3166-1 alpha-2 codes the
// platform tracks. Ads-library requests and locale filtering both
// validate against it.
var knownCountries = map[string]bool{
	"US": true, "CA": true, "GB": true, "IE": true, "FR": true, "DE": true,
	"AT": true, "CH": true, "BE": true, "NL": true, "LU": true, "ES": true,
	"PT": true, "IT": true, "SE": true, "NO": true, "DK": true, "FI": true,
	"PL": true, "CZ": true, "GR": true, "RO": true, "HU": true, "AU": true,
	"NZ": true, "JP": true, "SG": true, "HK": true, "AE": true, "SA": true,
	"BR": true, "MX": true, "AR": true, "CL": true, "CO": true, "ZA": true,
	"IN": true, "ID": true, "MY": true, "PH": true, "TH": true, "VN": true,
	"TR": true, "IL": true, "KR": true, "TW": true,
}

// knownCurrencies is the closed set of ISO-4217 codes accepted on pages
// and ads.
var knownCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "AUD": true, "CAD": true,
	"CHF": true, "SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"CZK": true, "JPY": true, "NZD": true, "SGD": true, "HKD": true,
	"AED": true, "BRL": true, "MXN": true, "INR": true, "ZAR": true,
	"TRY": true, "ILS": true, "KRW": true, "TWD": true,
}

// strongCurrencies are the currencies that contribute to the commerce
// sub-score: the high-spend EUR/USD/GBP/AUD markets.
var strongCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "AUD": true,
}

var languageRe = regexp.MustCompile(`^[a-z]{2}$`)

// NormalizeCountry validates and upper-cases an ISO-3166-1 alpha-2 code.
func NormalizeCountry(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !knownCountries[c] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCountry, code)
	}
	return c, nil
}

// NormalizeLanguage validates and lower-cases an ISO-639-1 code.
func NormalizeLanguage(code string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(code))
	if !languageRe.MatchString(l) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	return l, nil
}

// NormalizeCurrency validates and upper-cases an ISO-4217 code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !knownCurrencies[c] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// IsStrongCurrency reports whether the currency contributes to the
// commerce sub-score.
func IsStrongCurrency(code string) bool {
	return strongCurrencies[strings.ToUpper(code)]
}

// MaxProductCount bounds catalog sizes; anything above it is a crawler
// artifact, not a real catalog.
const MaxProductCount = 1_000_000

// ValidateProductCount rejects negative or absurd catalog sizes.
func ValidateProductCount(n int) error {
	if n < 0 || n > MaxProductCount {
		return fmt.Errorf("%w: %d", ErrInvalidProductCount, n)
	}
	return nil
}

var categoryRe = regexp.MustCompile(`^[a-z0-9][a-z0-9 &/-]*$`)

// NormalizeCategory lower-cases and trims a category label.
func NormalizeCategory(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" || !categoryRe.MatchString(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}

// ParseScanID validates a scan identifier as a UUID v4 (case-insensitive).
func ParseScanID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id.Version() != 4 {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidScanID, raw)
	}
	return id, nil
}

// knownPaymentMethods is the closed vocabulary of payment tokens the
// site-analysis stage can record.
var knownPaymentMethods = map[string]bool{
	"visa": true, "mastercard": true, "amex": true, "paypal": true,
	"apple_pay": true, "google_pay": true, "shop_pay": true, "klarna": true,
	"afterpay": true, "stripe": true, "sepa": true, "ideal": true,
	"sofort": true, "bancontact": true,
}

// ValidatePaymentMethods checks every token against the known set.
func ValidatePaymentMethods(methods []string) error {
	for _, m := range methods {
		if !knownPaymentMethods[strings.ToLower(m)] {
			return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
		}
	}
	return nil
}

// ValidateURL checks that raw parses with an http/https scheme and a
// non-empty host, and returns the normalized form.
func ValidateURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// RegistrableHost returns the lowercase host of a URL with any leading
// "www." stripped. Page.Domain must always equal RegistrableHost(Page.URL).
func RegistrableHost(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host, nil
}

// RankingCriteria filters and paginates the ranked-shop read model.
// Zero-value optional fields mean "no filter".
type RankingCriteria struct {
	Limit    int
	Offset   int
	Tier     Tier
	MinScore *float64
	Country  string
}

// Validate enforces limit ∈ [1,200], offset ≥ 0 and the optional filters.
func (c RankingCriteria) Validate() error {
	if c.Limit < 1 || c.Limit > 200 {
		return fmt.Errorf("%w: limit must be in [1,200], got %d", ErrInvalidRanking, c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0, got %d", ErrInvalidRanking, c.Offset)
	}
	if c.Tier != "" {
		if _, _, err := TierRange(c.Tier); err != nil {
			return err
		}
	}
	if c.MinScore != nil && (*c.MinScore < 0 || *c.MinScore > 100) {
		return fmt.Errorf("%w: min_score must be in [0,100]", ErrInvalidRanking)
	}
	if c.Country != "" {
		if _, err := NormalizeCountry(c.Country); err != nil {
			return err
		}
	}
	return nil
}
