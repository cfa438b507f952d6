// Package adslib provides a client for the public ads transparency
// library. It handles token auth, result pagination, and translation of
// upstream failures into a small error taxonomy.
package adslib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/httpretry"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

const (
	// maxPageLimit is the library's hard cap on results per request.
	maxPageLimit = 1000

	// maxSearchPageIDs is the library's cap on page ids per lookup.
	maxSearchPageIDs = 10

	// adFields is the field selection requested on every call.
	adFields = "id,page_id,page_name,ad_creative_bodies,ad_creative_link_titles," +
		"ad_creative_link_captions,ad_creative_link_descriptions,ad_snapshot_url," +
		"ad_delivery_start_time,ad_delivery_stop_time,publisher_platforms," +
		"ad_reached_countries,impressions,spend,currency,languages"
)

// Client calls the ads-library search endpoint.
type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	pageLimit   int
	httpClient  httpretry.HTTPDoer
}

// NewClient creates an ads-library client. The http doer should already
// carry retry behaviour and a timeout; pass nil to get a default
// retrying client with a 30s timeout.
func NewClient(baseURL, apiVersion, accessToken string, pageLimit int, doer httpretry.HTTPDoer) *Client {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{Timeout: 30 * time.Second}, 3)
	}
	if pageLimit <= 0 || pageLimit > maxPageLimit {
		pageLimit = maxPageLimit
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiVersion:  apiVersion,
		accessToken: accessToken,
		pageLimit:   pageLimit,
		httpClient:  doer,
	}
}

// SearchParams describes one library search.
type SearchParams struct {
	// SearchTerms is the keyword query; mutually exclusive with PageIDs
	// in practice but the library accepts both.
	SearchTerms string
	// PageIDs restricts the search to specific advertiser pages
	// (at most 10 per request; Search batches larger slices).
	PageIDs []string
	// Countries to search in (required by the library).
	Countries []string
	// ActiveStatus is ACTIVE, INACTIVE or ALL. Empty means ALL.
	ActiveStatus string
	// MaxAds stops pagination once this many ads were collected.
	// Zero means no cap.
	MaxAds int
}

// Search runs a search and follows paging.next until the results are
// exhausted or MaxAds is reached. PageIDs slices larger than the
// library's per-request cap are split into sequential batches.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]RawAd, error) {
	if len(p.PageIDs) > maxSearchPageIDs {
		var all []RawAd
		for start := 0; start < len(p.PageIDs); start += maxSearchPageIDs {
			end := start + maxSearchPageIDs
			if end > len(p.PageIDs) {
				end = len(p.PageIDs)
			}
			batch := p
			batch.PageIDs = p.PageIDs[start:end]
			if batch.MaxAds > 0 {
				batch.MaxAds = p.MaxAds - len(all)
				if batch.MaxAds <= 0 {
					break
				}
			}
			ads, err := c.Search(ctx, batch)
			if err != nil {
				return all, err
			}
			all = append(all, ads...)
		}
		return all, nil
	}

	next := c.searchURL(p)
	var ads []RawAd
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return ads, err
		}
		ads = append(ads, page.Data...)
		if p.MaxAds > 0 && len(ads) >= p.MaxAds {
			return ads[:p.MaxAds], nil
		}
		next = page.Paging.Next
	}
	return ads, nil
}

func (c *Client) searchURL(p SearchParams) string {
	q := url.Values{}
	q.Set("access_token", c.accessToken)
	q.Set("fields", adFields)
	q.Set("limit", strconv.Itoa(c.pageLimit))
	if p.SearchTerms != "" {
		q.Set("search_terms", p.SearchTerms)
	}
	if len(p.PageIDs) > 0 {
		q.Set("search_page_ids", strings.Join(p.PageIDs, ","))
	}
	if len(p.Countries) > 0 {
		q.Set("ad_reached_countries", strings.Join(p.Countries, ","))
	}
	status := p.ActiveStatus
	if status == "" {
		status = "ALL"
	}
	q.Set("ad_active_status", status)
	return fmt.Sprintf("%s/%s/ads_archive?%s", c.baseURL, c.apiVersion, q.Encode())
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ads library: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logger.Warn("ads library auth failure", "status", resp.StatusCode, "url", rawURL)
		return nil, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrUpstream, resp.StatusCode, truncate(body, 200))
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if page.Error != nil {
		// The library sometimes reports errors inside a 200 envelope.
		if page.Error.Code == 4 || page.Error.Code == 17 || page.Error.Code == 32 {
			return nil, &RateLimitError{}
		}
		if page.Error.Code == 190 {
			return nil, fmt.Errorf("%w: %s", ErrAuth, page.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s (code %d)", ErrUpstream, page.Error.Message, page.Error.Code)
	}
	return &page, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
