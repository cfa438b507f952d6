// Package adsurl extracts storefront URLs from ads-library records:
// caption and title fields routinely carry display URLs mixed with
// button labels, in any casing, with or without a scheme.
package adsurl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopradar/ads-monitor/internal/adslib"
)

// ctaVocabulary lists caption texts that look like URLs to naive
// parsing but are really button labels, including common localized
// variants. Matched after lowercasing and trimming.
var ctaVocabulary = map[string]bool{
	"shop now":        true,
	"buy now":         true,
	"order now":       true,
	"learn more":      true,
	"sign up":         true,
	"subscribe":       true,
	"get offer":       true,
	"contact us":      true,
	"send message":    true,
	"en savoir plus":  true,
	"acheter":         true,
	"jetzt kaufen":    true,
	"mehr dazu":       true,
	"compra ahora":    true,
	"más información": true,
	"koop nu":         true,
	"acquista ora":    true,
	"scopri di più":   true,
}

// hostRe accepts bare hostnames: at least one dot and a TLD of two or
// more letters.
var hostRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// ExtractDestinationURL picks the advertiser's storefront URL from an
// ad group. Candidates are scanned from link captions, then link
// titles, then link descriptions, then the advertiser name; the most
// frequent surviving candidate wins, ties going to the earliest seen.
func ExtractDestinationURL(group []adslib.RawAd, advertiserName string) string {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	order := 0

	consider := func(raw string) {
		canon, ok := canonicalURL(raw)
		if !ok {
			return
		}
		if _, seen := firstSeen[canon]; !seen {
			firstSeen[canon] = order
			order++
		}
		counts[canon]++
	}

	for _, ad := range group {
		for _, c := range ad.LinkCaptions {
			consider(c)
		}
	}
	for _, ad := range group {
		for _, t := range ad.LinkTitles {
			consider(t)
		}
	}
	for _, ad := range group {
		for _, d := range ad.LinkDescriptions {
			consider(d)
		}
	}
	consider(advertiserName)

	best := ""
	for canon, n := range counts {
		if best == "" {
			best = canon
			continue
		}
		if n > counts[best] || (n == counts[best] && firstSeen[canon] < firstSeen[best]) {
			best = canon
		}
	}
	return best
}

// canonicalURL normalizes one candidate to scheme://host, rejecting CTA
// phrases and anything that is not a plausible hostname.
func canonicalURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	lower := strings.ToLower(s)
	if ctaVocabulary[lower] {
		return "", false
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(s)
		if err != nil || u.Hostname() == "" {
			return "", false
		}
		return u.Scheme + "://" + strings.ToLower(u.Host), true
	}

	// Bare host, possibly with a path: keep the host part only.
	host := lower
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if !hostRe.MatchString(host) {
		return "", false
	}
	return "https://" + host, true
}

// NormalizeLinkURL prepares a per-ad link for storage: scheme-less
// host-like values get https:// prepended, everything else passes
// through when it parses as an absolute URL.
func NormalizeLinkURL(raw string) string {
	canon, ok := canonicalURL(raw)
	if !ok {
		return ""
	}
	// Preserve the path for explicit URLs; canonicalURL strips it.
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if strings.Contains(s, "/") {
		return "https://" + s
	}
	return canon
}

// DestinationCandidate is one weighted URL candidate from a single ad.
type DestinationCandidate struct {
	URL    string
	Weight int
}

// BestDestination accumulates candidate weights and returns the
// heaviest URL; ties go to the candidate seen first. Empty input
// returns "".
func BestDestination(candidates []DestinationCandidate) string {
	weights := map[string]int{}
	firstSeen := map[string]int{}
	for i, c := range candidates {
		canon, ok := canonicalURL(c.URL)
		if !ok {
			continue
		}
		if _, seen := firstSeen[canon]; !seen {
			firstSeen[canon] = i
		}
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		weights[canon] += w
	}

	best := ""
	for canon, w := range weights {
		if best == "" {
			best = canon
			continue
		}
		if w > weights[best] || (w == weights[best] && firstSeen[canon] < firstSeen[best]) {
			best = canon
		}
	}
	return best
}
