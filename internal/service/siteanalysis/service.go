package siteanalysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/scraper"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// ErrPageNotFound is returned when the analyzed page does not exist.
var ErrPageNotFound = errors.New("siteanalysis: page not found")

// Fetcher is the storefront access port.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (*scraper.Result, error)
	FetchHeaders(ctx context.Context, url string) (*scraper.Result, error)
}

// Repository is the persistence port for site analysis.
type Repository interface {
	PageByID(ctx context.Context, pageID string) (*domain.Page, error)
	UpdatePage(ctx context.Context, page *domain.Page) error
	// SaveProfile upserts the page's commerce profile.
	SaveProfile(ctx context.Context, profile *domain.CommerceProfile) error
}

// Dispatcher enqueues follow-up pipeline tasks.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskName string, payload any) error
}

// Result summarizes one site analysis.
type Result struct {
	IsCommerce             bool     `json:"is_commerce"`
	Platform               string   `json:"platform,omitempty"`
	ShopName               string   `json:"shop_name,omitempty"`
	Theme                  string   `json:"theme,omitempty"`
	Currency               string   `json:"currency,omitempty"`
	Category               string   `json:"category,omitempty"`
	PaymentMethods         []string `json:"payment_methods,omitempty"`
	SitemapCountDispatched bool     `json:"sitemap_count_dispatched"`
}

// Service runs storefront fingerprinting.
type Service struct {
	fetcher    Fetcher
	repo       Repository
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService creates a site-analysis service.
func NewService(fetcher Fetcher, repo Repository, dispatcher Dispatcher) *Service {
	return &Service{fetcher: fetcher, repo: repo, dispatcher: dispatcher, now: time.Now}
}

// Execute fingerprints the storefront at url for the given page. A
// header-level platform match skips the body scan for detection, but
// the body is still fetched for metadata extraction.
func (s *Service) Execute(ctx context.Context, pageID, url string) (*Result, error) {
	page, err := s.repo.PageByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	if _, err := domain.ValidateURL(url); err != nil {
		return nil, err
	}

	platform := ""
	if head, err := s.fetcher.FetchHeaders(ctx, url); err == nil {
		platform = DetectFromHeaders(head.Headers)
	} else {
		logger.Debug("header probe failed, falling back to body", "url", url, "error", err)
	}

	fetched, err := s.fetcher.FetchHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if platform == "" {
		platform = DetectFromHeaders(fetched.Headers)
	}
	if platform == "" {
		platform = DetectFromBody(fetched.Body)
	}

	res := &Result{IsCommerce: platform != "", Platform: platform}
	if !res.IsCommerce {
		if err := s.transitionTo(ctx, page, domain.PageNotCommerce); err != nil {
			return nil, err
		}
		logger.Info("site is not a commerce platform", "page_id", pageID, "url", url)
		return res, nil
	}

	res.ShopName = ExtractShopName(fetched.Body, page.Domain)
	res.Theme = ExtractTheme(fetched.Body)
	res.Currency = ExtractCurrency(fetched.Body)
	res.Category = DetectCategory(fetched.Body)
	res.PaymentMethods = DetectPayments(fetched.Body)

	page.IsCommerce = true
	if res.ShopName != "" {
		page.Name = res.ShopName
	}
	if res.Currency != "" {
		if normalized, err := domain.NormalizeCurrency(res.Currency); err == nil {
			page.Currency = normalized
		}
	}
	if res.Category != "" {
		if normalized, err := domain.NormalizeCategory(res.Category); err == nil {
			page.Category = normalized
		}
	}
	if err := s.transitionTo(ctx, page, domain.PageVerifiedCommerce); err != nil {
		return nil, err
	}

	profile := &domain.CommerceProfile{
		ID:             uuid.NewString(),
		PageID:         page.ID,
		ShopName:       res.ShopName,
		Theme:          res.Theme,
		PaymentMethods: res.PaymentMethods,
		CreatedAt:      s.now().UTC(),
		UpdatedAt:      s.now().UTC(),
	}
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		logger.Warn("failed to save commerce profile", "page_id", page.ID, "error", err)
	}

	payload := tasks.CountSitemapProductsPayload{PageID: page.ID, URL: url, Country: page.Country}
	if err := s.dispatcher.Enqueue(ctx, tasks.CountSitemapProducts, payload); err != nil {
		logger.Warn("failed to enqueue catalog sizing", "page_id", page.ID, "error", err)
	} else {
		res.SitemapCountDispatched = true
	}

	logger.Info("commerce platform detected",
		"page_id", pageID,
		"platform", platform,
		"shop_name", res.ShopName,
		"currency", res.Currency,
		"category", res.Category)
	return res, nil
}

// analysisPath is the happy path a page walks to reach a fingerprint
// verdict.
var analysisPath = []domain.PageState{
	domain.PagePending, domain.PageAnalyzing, domain.PageAnalyzed,
}

// transitionTo walks the page through intermediate analysis states as
// needed, then applies the verdict transition and persists the page.
// Pages that already passed fingerprinting keep their state: a
// re-delivered analysis refreshes metadata without rewinding the
// lifecycle.
func (s *Service) transitionTo(ctx context.Context, page *domain.Page, verdict domain.PageState) error {
	if page.State != verdict && !hasVerdict(page.State) {
		for _, step := range analysisPath {
			if page.State == domain.PageAnalyzed {
				break
			}
			if domain.CanTransition(page.State, step) {
				page.State = step
			}
		}
		if err := page.TransitionTo(verdict); err != nil {
			return err
		}
	}
	page.UpdatedAt = s.now().UTC()
	now := s.now().UTC()
	page.LastScannedAt = &now
	return s.repo.UpdatePage(ctx, page)
}

// hasVerdict reports whether the state is at or past the fingerprint
// verdict.
func hasVerdict(st domain.PageState) bool {
	switch st {
	case domain.PageVerifiedCommerce, domain.PageNotCommerce,
		domain.PageActive, domain.PageInactive:
		return true
	}
	return false
}
