// Package history snapshots per-page daily metrics and serves the
// time-series queries built on them.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// MaxHistoryDays caps how far back a history query can reach.
const MaxHistoryDays = 90

// DefaultHistoryDays is used when the caller does not ask for a range.
const DefaultHistoryDays = 30

// ErrPageNotFound is returned for history queries on unknown pages.
var ErrPageNotFound = errors.New("history: page not found")

// Repository is the persistence port for snapshots and queries.
type Repository interface {
	// TrackedPages returns every page that should be snapshotted.
	TrackedPages(ctx context.Context) ([]domain.Page, error)
	PageExists(ctx context.Context, pageID string) (bool, error)
	// UpsertSnapshot writes the snapshot, replacing any existing row
	// for the same (page, date).
	UpsertSnapshot(ctx context.Context, m *domain.PageDailyMetrics) error
	// MetricsSince returns snapshots for the page dated on or after
	// from, ordered by date ascending.
	MetricsSince(ctx context.Context, pageID string, from time.Time) ([]domain.PageDailyMetrics, error)
}

// SnapshotResult reports one daily snapshot run.
type SnapshotResult struct {
	Date             string `json:"date"`
	PagesProcessed   int    `json:"pages_processed"`
	SnapshotsWritten int    `json:"snapshots_written"`
	ErrorsCount      int    `json:"errors_count"`
}

// Service runs snapshots and answers history queries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a history service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Snapshot writes one daily metrics row per tracked page for the given
// date. Re-running for the same date overwrites, never duplicates.
// Per-page failures are logged and counted; the run itself fails only
// when the page listing fails.
func (s *Service) Snapshot(ctx context.Context, date time.Time) (*SnapshotResult, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	pages, err := s.repo.TrackedPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages for snapshot: %w", err)
	}

	res := &SnapshotResult{Date: day.Format("2006-01-02")}
	for i := range pages {
		p := &pages[i]
		res.PagesProcessed++

		products := p.ProductCount
		m := &domain.PageDailyMetrics{
			ID:            uuid.NewString(),
			PageID:        p.ID,
			Date:          day,
			AdsCount:      p.ActiveAdsCount,
			ShopScore:     p.CurrentScore,
			ProductsCount: &products,
			CreatedAt:     s.now().UTC(),
		}
		if err := s.repo.UpsertSnapshot(ctx, m); err != nil {
			res.ErrorsCount++
			logger.Warn("daily snapshot failed for page", "page_id", p.ID, "error", err)
			continue
		}
		res.SnapshotsWritten++
	}

	logger.Info("daily metrics snapshot finished",
		"date", res.Date,
		"pages", res.PagesProcessed,
		"written", res.SnapshotsWritten,
		"errors", res.ErrorsCount)
	return res, nil
}

// History returns the page's snapshots over the last days days, oldest
// first. days is defaulted and capped rather than rejected.
func (s *Service) History(ctx context.Context, pageID string, days int) (*domain.PageMetricsHistory, error) {
	exists, err := s.repo.PageExists(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPageNotFound
	}

	if days <= 0 {
		days = DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}

	from := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days+1)
	metrics, err := s.repo.MetricsSince(ctx, pageID, from)
	if err != nil {
		return nil, fmt.Errorf("loading metrics for page %s: %w", pageID, err)
	}
	return &domain.PageMetricsHistory{PageID: pageID, Metrics: metrics}, nil
}
