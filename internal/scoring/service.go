package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// Service computes and persists shop scores, then hands the movement to
// the change detector.
type Service struct {
	repo     Repository
	detector ChangeDetector
	now      func() time.Time
}

// NewService creates a scoring service. detector may be nil; scores are
// then computed without alerting.
func NewService(repo Repository, detector ChangeDetector) *Service {
	return &Service{repo: repo, detector: detector, now: time.Now}
}

// ComputeForPage gathers the page's signals, computes a new score
// observation, persists it, and updates the page's current score.
// Alert detection runs after persistence; a detector failure is logged
// and does not fail the computation.
func (s *Service) ComputeForPage(ctx context.Context, pageID string) (*domain.ShopScore, error) {
	page, err := s.repo.PageByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}

	stats, err := s.repo.AdStats(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading ad stats for page %s: %w", pageID, err)
	}
	if stats == nil {
		stats = &AdStats{}
	}

	prev, err := s.repo.LatestScore(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading previous score for page %s: %w", pageID, err)
	}

	total, components := Compute(Input{
		ActiveAdCount: stats.ActiveCount,
		TotalAdCount:  stats.TotalCount,
		CountryCount:  stats.CountryCount,
		PlatformCount: stats.PlatformCount,
		IsCommerce:    page.IsCommerce,
		Currency:      page.Currency,
		ProductCount:  page.ProductCount,
		AnyAdText:     stats.AnyText,
		HasDiscount:   stats.HasDiscount,
		HasEmoji:      stats.HasEmoji,
		HasCTAPhrase:  stats.HasCTAPhrase,
		HasCTAType:    stats.HasCTAType,
	})

	score := &domain.ShopScore{
		ID:         uuid.NewString(),
		PageID:     pageID,
		Score:      total,
		Components: components,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.SaveScore(ctx, score); err != nil {
		return nil, fmt.Errorf("saving score for page %s: %w", pageID, err)
	}
	if err := s.repo.UpdatePageScore(ctx, pageID, total); err != nil {
		return nil, fmt.Errorf("updating current score for page %s: %w", pageID, err)
	}

	logger.Info("shop score computed",
		"page_id", pageID,
		"score", total,
		"tier", string(score.Tier()),
		"active_ads", stats.ActiveCount)

	if s.detector != nil {
		if err := s.detector.DetectChanges(ctx, page, prev, score); err != nil {
			logger.Warn("change detection failed", "page_id", pageID, "error", err)
		}
	}
	return score, nil
}
