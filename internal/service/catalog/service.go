package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/sitemap"
)

// ErrPageNotFound is returned when the sized page does not exist.
var ErrPageNotFound = errors.New("catalog: page not found")

// ProductCounter is the sitemap access port.
type ProductCounter interface {
	Count(ctx context.Context, siteURL, country string) (sitemap.CountResult, error)
}

// Repository is the persistence port for catalog sizing.
type Repository interface {
	PageByID(ctx context.Context, pageID string) (*domain.Page, error)
	UpdatePage(ctx context.Context, page *domain.Page) error
}

// ProductStore receives the sampled catalog entries of a sizing run.
type ProductStore interface {
	Upsert(ctx context.Context, products []*domain.Product) error
}

// Result summarizes one catalog sizing run.
type Result struct {
	ProductCount  int `json:"product_count"`
	SitemapsFound int `json:"sitemaps_found"`
	PreviousCount int `json:"previous_count"`
}

// Service sizes storefront catalogs.
type Service struct {
	counter  ProductCounter
	repo     Repository
	products ProductStore
	now      func() time.Time
}

// NewService creates a catalog service.
func NewService(counter ProductCounter, repo Repository) *Service {
	return &Service{counter: counter, repo: repo, now: time.Now}
}

// WithProducts stores the sampled product URLs of each run.
func (s *Service) WithProducts(store ProductStore) *Service {
	s.products = store
	return s
}

// Execute counts the products reachable through the site's sitemaps and
// writes the count onto the page. A missing sitemap is a zero count,
// not a failure. Verified pages with a non-empty catalog become active.
func (s *Service) Execute(ctx context.Context, pageID, siteURL, country string) (*Result, error) {
	page, err := s.repo.PageByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}

	if country != "" {
		normalized, err := domain.NormalizeCountry(country)
		if err != nil {
			return nil, err
		}
		country = normalized
	}

	counted, err := s.counter.Count(ctx, siteURL, country)
	if err != nil {
		return nil, fmt.Errorf("counting products for page %s: %w", pageID, err)
	}
	if err := domain.ValidateProductCount(counted.ProductCount); err != nil {
		return nil, err
	}

	res := &Result{
		ProductCount:  counted.ProductCount,
		SitemapsFound: counted.SitemapsFound,
		PreviousCount: page.ProductCount,
	}

	page.ProductCount = counted.ProductCount
	if page.State == domain.PageVerifiedCommerce && counted.ProductCount > 0 {
		if err := page.TransitionTo(domain.PageActive); err != nil {
			return nil, err
		}
	}
	page.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdatePage(ctx, page); err != nil {
		return nil, fmt.Errorf("saving catalog size for page %s: %w", pageID, err)
	}

	if s.products != nil && len(counted.SampleURLs) > 0 {
		sample := sampleProducts(pageID, counted.SampleURLs, s.now().UTC())
		if err := s.products.Upsert(ctx, sample); err != nil {
			logger.Warn("storing sampled products failed",
				"page_id", pageID, "count", len(sample), "error", err)
		}
	}

	logger.Info("catalog sized",
		"page_id", pageID,
		"product_count", res.ProductCount,
		"previous_count", res.PreviousCount,
		"sitemaps_found", res.SitemapsFound)
	return res, nil
}

// sampleProducts turns sampled sitemap URLs into catalog entries keyed
// on the URL's trailing path segment. URLs without a usable handle are
// skipped.
func sampleProducts(pageID string, urls []string, now time.Time) []*domain.Product {
	out := make([]*domain.Product, 0, len(urls))
	for _, raw := range urls {
		handle := productHandle(raw)
		if handle == "" {
			continue
		}
		out = append(out, &domain.Product{
			ID:          uuid.NewString(),
			PageID:      pageID,
			Handle:      handle,
			Title:       titleFromHandle(handle),
			URL:         raw,
			Available:   true,
			FirstSeenAt: now,
			LastSeenAt:  now,
		})
	}
	return out
}

func productHandle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 {
		return ""
	}
	return strings.ToLower(segs[len(segs)-1])
}

func titleFromHandle(handle string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(handle, "-", " "), "_", " "))
}
