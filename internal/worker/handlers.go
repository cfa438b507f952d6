package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/service/catalog"
	"github.com/shopradar/ads-monitor/internal/service/pageanalysis"
	"github.com/shopradar/ads-monitor/internal/service/siteanalysis"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// Enqueuer lets handlers chain follow-up tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskName string, payload any) error
}

// The use-case surfaces the handlers drive. One interface per task so
// tests can fake them independently.
type (
	PageScanner interface {
		Execute(ctx context.Context, pageID, country, scanID string) (*pageanalysis.Result, error)
	}
	SiteAnalyzer interface {
		Execute(ctx context.Context, pageID, url string) (*siteanalysis.Result, error)
	}
	CatalogSizer interface {
		Execute(ctx context.Context, pageID, siteURL, country string) (*catalog.Result, error)
	}
	ScoreComputer interface {
		ComputeForPage(ctx context.Context, pageID string) (*domain.ShopScore, error)
	}
	CreativeAnalyzer interface {
		AnalyzePage(ctx context.Context, pageID string) (*creative.PageResult, error)
	}
	Snapshotter interface {
		Snapshot(ctx context.Context, date time.Time) (*history.SnapshotResult, error)
	}
)

// Deps bundles everything the task handlers need.
type Deps struct {
	PageScanner      PageScanner
	SiteAnalyzer     SiteAnalyzer
	CatalogSizer     CatalogSizer
	ScoreComputer    ScoreComputer
	CreativeAnalyzer CreativeAnalyzer
	Snapshotter      Snapshotter
	Enqueuer         Enqueuer
}

// RegisterHandlers binds every pipeline task to its use case and wires
// the chain: scan_page → creatives, count_sitemap_products → score.
func RegisterHandlers(p *Pool, d Deps) {
	p.Register(tasks.ScanPage, d.handleScanPage)
	p.Register(tasks.AnalyseWebsite, d.handleAnalyseWebsite)
	p.Register(tasks.CountSitemapProducts, d.handleCountSitemapProducts)
	p.Register(tasks.ComputeShopScore, d.handleComputeShopScore)
	p.Register(tasks.AnalyzeCreativesForPage, d.handleAnalyzeCreatives)
	p.Register(tasks.SnapshotDailyMetrics, d.handleSnapshot)
}

func (d Deps) handleScanPage(ctx context.Context, payload json.RawMessage) error {
	var p tasks.ScanPagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode scan_page payload: %w", err)
	}
	if _, err := d.PageScanner.Execute(ctx, p.PageID, p.Country, p.ScanID); err != nil {
		return err
	}
	// Freshly saved ads can be analyzed right away.
	next := tasks.AnalyzeCreativesPayload{PageID: p.PageID}
	if err := d.Enqueuer.Enqueue(ctx, tasks.AnalyzeCreativesForPage, next); err != nil {
		logger.Warn("failed to chain creative analysis", "page_id", p.PageID, "error", err)
	}
	return nil
}

func (d Deps) handleAnalyseWebsite(ctx context.Context, payload json.RawMessage) error {
	var p tasks.AnalyseWebsitePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode analyse_website payload: %w", err)
	}
	_, err := d.SiteAnalyzer.Execute(ctx, p.PageID, p.URL)
	return err
}

func (d Deps) handleCountSitemapProducts(ctx context.Context, payload json.RawMessage) error {
	var p tasks.CountSitemapProductsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode count_sitemap_products payload: %w", err)
	}
	if _, err := d.CatalogSizer.Execute(ctx, p.PageID, p.URL, p.Country); err != nil {
		return err
	}
	next := tasks.ComputeShopScorePayload{PageID: p.PageID}
	if err := d.Enqueuer.Enqueue(ctx, tasks.ComputeShopScore, next); err != nil {
		logger.Warn("failed to chain score computation", "page_id", p.PageID, "error", err)
	}
	return nil
}

func (d Deps) handleComputeShopScore(ctx context.Context, payload json.RawMessage) error {
	var p tasks.ComputeShopScorePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode compute_shop_score payload: %w", err)
	}
	_, err := d.ScoreComputer.ComputeForPage(ctx, p.PageID)
	return err
}

func (d Deps) handleAnalyzeCreatives(ctx context.Context, payload json.RawMessage) error {
	var p tasks.AnalyzeCreativesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode analyze_creatives payload: %w", err)
	}
	_, err := d.CreativeAnalyzer.AnalyzePage(ctx, p.PageID)
	return err
}

func (d Deps) handleSnapshot(ctx context.Context, payload json.RawMessage) error {
	var p tasks.SnapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode snapshot payload: %w", err)
	}
	date := time.Now().UTC()
	if p.Date != "" {
		parsed, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return fmt.Errorf("decode snapshot date %q: %w", p.Date, err)
		}
		date = parsed
	}
	res, err := d.Snapshotter.Snapshot(ctx, date)
	if err != nil {
		return err
	}
	logger.Info("daily snapshot finished",
		"date", res.Date,
		"pages", res.PagesProcessed,
		"written", res.SnapshotsWritten,
		"errors", res.ErrorsCount)
	return nil
}
