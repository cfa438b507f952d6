// Package scraper fetches storefront HTML and response headers for
// commerce-platform fingerprinting. It is deliberately dumb: one GET,
// size-capped body, no JS execution.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/httpretry"
)

var (
	// ErrBlocked means the storefront refused the request (403, captcha
	// wall, bot challenge). Not retryable; callers fail the task.
	ErrBlocked = errors.New("scraper: blocked by target site")

	// ErrUnreachable covers DNS failures, refused connections and
	// timeouts after retries.
	ErrUnreachable = errors.New("scraper: target unreachable")
)

// maxBodyBytes caps how much HTML we pull from a storefront.
const maxBodyBytes = 5 << 20

// challengeMarkers identify bot-challenge pages served with a 200.
var challengeMarkers = []string{
	"cf-challenge",
	"captcha-delivery.com",
	"_incapsula_",
	"are you a robot",
	"checking your browser",
}

// Fetcher retrieves pages from storefronts with a fixed user agent and
// separate timeouts for full-body and headers-only requests.
type Fetcher struct {
	userAgent     string
	htmlTimeout   time.Duration
	headerTimeout time.Duration
	client        httpretry.HTTPDoer
}

// NewFetcher creates a Fetcher. A nil doer gets a retrying client
// without its own timeout; per-call timeouts come from the context.
func NewFetcher(userAgent string, htmlTimeout, headerTimeout time.Duration, doer httpretry.HTTPDoer) *Fetcher {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{}, 3)
	}
	if htmlTimeout <= 0 {
		htmlTimeout = 15 * time.Second
	}
	if headerTimeout <= 0 {
		headerTimeout = 10 * time.Second
	}
	return &Fetcher{
		userAgent:     userAgent,
		htmlTimeout:   htmlTimeout,
		headerTimeout: headerTimeout,
		client:        doer,
	}
}

// Result is a fetched page.
type Result struct {
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       string
}

// FetchHTML downloads the page body at rawURL, following redirects.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.htmlTimeout)
	defer cancel()

	res, err := f.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body from %s: %v", ErrUnreachable, rawURL, err)
	}

	html := string(body)
	if isChallenge(html) {
		return nil, fmt.Errorf("%w: bot challenge at %s", ErrBlocked, rawURL)
	}

	return &Result{
		FinalURL:   res.Request.URL.String(),
		StatusCode: res.StatusCode,
		Headers:    res.Header,
		Body:       html,
	}, nil
}

// FetchHeaders issues a HEAD request (falling back to GET when the
// server rejects HEAD) and returns headers without the body.
func (f *Fetcher) FetchHeaders(ctx context.Context, rawURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.headerTimeout)
	defer cancel()

	res, err := f.do(ctx, http.MethodHead, rawURL)
	if err == nil && res.StatusCode == http.StatusMethodNotAllowed {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		res, err = f.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	return &Result{
		FinalURL:   res.Request.URL.String(),
		StatusCode: res.StatusCode,
		Headers:    res.Header,
	}, nil
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("%w: timeout fetching %s", ErrUnreachable, rawURL)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	switch res.StatusCode {
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		return nil, fmt.Errorf("%w: status %d from %s", ErrBlocked, res.StatusCode, rawURL)
	}
	return res, nil
}

func isChallenge(html string) bool {
	if len(html) > 4096 {
		html = html[:4096]
	}
	lower := strings.ToLower(html)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
