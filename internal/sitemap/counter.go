package sitemap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/httpretry"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// probePaths are tried in order at the site root; the first one that
// returns a parseable sitemap wins.
var probePaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemaps.xml"}

// productPathPatterns mark a URL as a product page.
var productPathPatterns = []string{"/products/", "/product/", "/p/", "/shop/"}

// localePrefix matches a leading locale path segment such as /fr/ or
// /en-us/. URLs without a locale indicator always count; localized URLs
// count only for the requested country, deduplicated on the canonical
// path.
var localePrefix = regexp.MustCompile(`^/([a-z]{2})(?:-([a-z]{2}))?/`)

// maxChildSitemaps bounds how many child sitemaps of an index we fetch.
const maxChildSitemaps = 50

const maxSitemapBytes = 50 << 20

// maxSampleURLs bounds how many product URLs a count carries back for
// catalog sampling.
const maxSampleURLs = 100

// Counter probes a storefront for sitemaps and counts product URLs.
type Counter struct {
	userAgent string
	timeout   time.Duration
	client    httpretry.HTTPDoer
}

// NewCounter creates a Counter. A nil doer gets a retrying default.
func NewCounter(userAgent string, timeout time.Duration, doer httpretry.HTTPDoer) *Counter {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{}, 3)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Counter{userAgent: userAgent, timeout: timeout, client: doer}
}

// CountResult is the outcome of one sitemap probe. SitemapsFound is the
// number of sitemap documents successfully fetched and parsed, the root
// included. SampleURLs holds up to maxSampleURLs distinct product URLs
// in sitemap order.
type CountResult struct {
	ProductCount  int
	SitemapsFound int
	SampleURLs    []string
}

// CountProducts probes the site's sitemap locations and returns the
// number of distinct product URLs for the given country (empty means
// count every locale). A site with no sitemap counts zero products;
// that is a result, not an error.
func (c *Counter) CountProducts(ctx context.Context, siteURL, country string) (int, error) {
	res, err := c.Count(ctx, siteURL, country)
	return res.ProductCount, err
}

// Count is CountProducts plus sitemap bookkeeping.
func (c *Counter) Count(ctx context.Context, siteURL, country string) (CountResult, error) {
	var res CountResult

	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return res, fmt.Errorf("sitemap: invalid site url %q", siteURL)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	var doc *Document
	for _, p := range probePaths {
		data, err := c.fetch(ctx, base.String()+p)
		if err != nil {
			continue
		}
		parsed, err := Parse(data)
		if err != nil {
			continue
		}
		doc = parsed
		break
	}
	if doc == nil {
		logger.Debug("no sitemap found", "site", base.Host)
		return res, nil
	}
	res.SitemapsFound = 1

	coll := newURLCollector(country)
	if !doc.IsIndex {
		coll.addAll(doc.URLs)
		res.ProductCount, res.SampleURLs = coll.count(), coll.samples
		return res, nil
	}

	children := orderProductFirst(doc.ChildSitemaps)
	if len(children) > maxChildSitemaps {
		children = children[:maxChildSitemaps]
	}

	for _, child := range children {
		data, err := c.fetch(ctx, child)
		if err != nil {
			logger.Warn("child sitemap fetch failed", "url", child, "error", err)
			continue
		}
		leaf, err := Parse(data)
		if err != nil || leaf.IsIndex {
			continue
		}
		res.SitemapsFound++
		coll.addAll(leaf.URLs)
	}
	res.ProductCount, res.SampleURLs = coll.count(), coll.samples
	return res, nil
}

func (c *Counter) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.New("sitemap: status " + resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
}

// urlCollector dedupes product URLs on their locale-normalized key and
// retains the first maxSampleURLs originals.
type urlCollector struct {
	country string
	seen    map[string]struct{}
	samples []string
}

func newURLCollector(country string) *urlCollector {
	return &urlCollector{country: country, seen: make(map[string]struct{})}
}

func (c *urlCollector) addAll(urls []string) {
	for _, u := range urls {
		key, ok := productKey(u, c.country)
		if !ok {
			continue
		}
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		if len(c.samples) < maxSampleURLs {
			c.samples = append(c.samples, u)
		}
	}
}

func (c *urlCollector) count() int { return len(c.seen) }

// productKey returns a locale-normalized dedupe key for product URLs,
// or false when the URL is not a product page or belongs to another
// locale than the requested country.
func productKey(rawURL, country string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(u.Path)

	if m := localePrefix.FindStringSubmatch(path); m != nil && country != "" {
		want := strings.ToLower(country)
		lang, region := m[1], m[2]
		if lang != want && region != want {
			return "", false
		}
	}

	canonical := localePrefix.ReplaceAllString(path, "/")
	for _, p := range productPathPatterns {
		if strings.Contains(canonical, p) {
			return strings.ToLower(u.Host) + canonical, true
		}
	}
	return "", false
}

// orderProductFirst moves child sitemaps whose URL mentions products to
// the front so catalog sitemaps are fetched before blog or page maps.
func orderProductFirst(children []string) []string {
	out := make([]string, len(children))
	copy(out, children)
	sort.SliceStable(out, func(i, j int) bool {
		return isProductSitemap(out[i]) && !isProductSitemap(out[j])
	})
	return out
}

func isProductSitemap(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "product") || strings.Contains(lower, "shop")
}
