package scoring

import (
	"context"
	"errors"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// ErrPageNotFound is returned when the page to score does not exist.
var ErrPageNotFound = errors.New("scoring: page not found")

// AdStats aggregates the ad-level signals for one page.
type AdStats struct {
	ActiveCount   int
	TotalCount    int
	CountryCount  int
	PlatformCount int

	AnyText      bool
	HasDiscount  bool
	HasEmoji     bool
	HasCTAPhrase bool
	HasCTAType   bool
}

// Repository is the persistence port for score computation.
type Repository interface {
	PageByID(ctx context.Context, pageID string) (*domain.Page, error)
	AdStats(ctx context.Context, pageID string) (*AdStats, error)
	// LatestScore returns the most recent score observation for the
	// page, or (nil, nil) when the page was never scored.
	LatestScore(ctx context.Context, pageID string) (*domain.ShopScore, error)
	SaveScore(ctx context.Context, score *domain.ShopScore) error
	UpdatePageScore(ctx context.Context, pageID string, score float64) error
}

// ChangeDetector inspects a freshly computed score against the previous
// observation and records alerts for significant movements.
type ChangeDetector interface {
	DetectChanges(ctx context.Context, page *domain.Page, prev, current *domain.ShopScore) error
}
