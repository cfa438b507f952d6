// Package alerting turns score and ad-volume movements into persisted
// alerts. Detection runs after every score computation.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// Detection thresholds.
const (
	// ScoreChangeThreshold is the absolute score delta that fires a
	// SCORE_JUMP or SCORE_DROP.
	ScoreChangeThreshold = 10.0

	// AdsBoostRatioThreshold fires NEW_ADS_BOOST when the active ad
	// count grows by at least this ratio over the previous snapshot
	// (1.0 means the count at least doubled).
	AdsBoostRatioThreshold = 1.0
)

// Repository is the persistence port for change detection.
type Repository interface {
	SaveAlert(ctx context.Context, alert *domain.Alert) error
	// LatestSnapshot returns the page's most recent daily metrics, or
	// (nil, nil) when none exist yet.
	LatestSnapshot(ctx context.Context, pageID string) (*domain.PageDailyMetrics, error)
}

// Detector evaluates the change rules against prior observations.
type Detector struct {
	repo Repository
	now  func() time.Time
}

// NewDetector creates a change detector.
func NewDetector(repo Repository) *Detector {
	return &Detector{repo: repo, now: time.Now}
}

// DetectChanges compares the fresh score against the previous
// observation and the last daily snapshot, persisting one alert per
// rule that fires. With no prior score, score and tier rules are
// silent. A failed save is logged and does not stop the other rules.
func (d *Detector) DetectChanges(ctx context.Context, page *domain.Page, prev, current *domain.ShopScore) error {
	if current == nil {
		return nil
	}

	var alerts []*domain.Alert
	if prev != nil {
		alerts = append(alerts, d.scoreAlerts(page, prev, current)...)
	}
	if a := d.adsBoostAlert(ctx, page); a != nil {
		alerts = append(alerts, a)
	}

	failed := 0
	for _, a := range alerts {
		if err := d.repo.SaveAlert(ctx, a); err != nil {
			failed++
			logger.Warn("alert save failed",
				"page_id", a.PageID, "type", string(a.Type), "error", err)
			continue
		}
		logger.Info("alert raised",
			"page_id", a.PageID,
			"type", string(a.Type),
			"severity", string(a.Severity),
			"message", a.Message)
	}
	if failed > 0 {
		return fmt.Errorf("alerting: %d of %d alerts failed to persist", failed, len(alerts))
	}
	return nil
}

func (d *Detector) scoreAlerts(page *domain.Page, prev, current *domain.ShopScore) []*domain.Alert {
	var alerts []*domain.Alert

	delta := current.Score - prev.Score
	if delta >= ScoreChangeThreshold {
		alerts = append(alerts, d.newAlert(page.ID, domain.AlertScoreJump, domain.SeverityWarning,
			fmt.Sprintf("score rose %.2f points (%.2f to %.2f)", delta, prev.Score, current.Score),
			prev, current))
	} else if -delta >= ScoreChangeThreshold {
		alerts = append(alerts, d.newAlert(page.ID, domain.AlertScoreDrop, domain.SeverityWarning,
			fmt.Sprintf("score fell %.2f points (%.2f to %.2f)", -delta, prev.Score, current.Score),
			prev, current))
	}

	prevTier, curTier := prev.Tier(), current.Tier()
	if order := domain.TierOrder(curTier) - domain.TierOrder(prevTier); order > 0 {
		alerts = append(alerts, d.newAlert(page.ID, domain.AlertTierUp, domain.SeverityInfo,
			fmt.Sprintf("tier moved up from %s to %s", prevTier, curTier), prev, current))
	} else if order < 0 {
		alerts = append(alerts, d.newAlert(page.ID, domain.AlertTierDown, domain.SeverityWarning,
			fmt.Sprintf("tier moved down from %s to %s", prevTier, curTier), prev, current))
	}
	return alerts
}

// adsBoostAlert compares the page's live active ad count against the
// last daily snapshot. No snapshot means no signal; a zero baseline
// counts as 1, so a page going from 0 to 2 ads fires.
func (d *Detector) adsBoostAlert(ctx context.Context, page *domain.Page) *domain.Alert {
	snap, err := d.repo.LatestSnapshot(ctx, page.ID)
	if err != nil {
		logger.Warn("snapshot lookup failed during change detection",
			"page_id", page.ID, "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}

	baseline := snap.AdsCount
	if baseline < 1 {
		baseline = 1
	}
	growth := float64(page.ActiveAdsCount)/float64(baseline) - 1
	if growth < AdsBoostRatioThreshold {
		return nil
	}
	a := d.newAlert(page.ID, domain.AlertNewAdsBoost, domain.SeverityWarning,
		fmt.Sprintf("active ads grew from %d to %d", snap.AdsCount, page.ActiveAdsCount),
		nil, nil)
	return a
}

func (d *Detector) newAlert(pageID string, t domain.AlertType, sev domain.AlertSeverity, msg string, prev, current *domain.ShopScore) *domain.Alert {
	a := &domain.Alert{
		ID:        uuid.NewString(),
		PageID:    pageID,
		Type:      t,
		Severity:  sev,
		Message:   msg,
		CreatedAt: d.now().UTC(),
	}
	if prev != nil {
		a.OldScore = &prev.Score
		pt := prev.Tier()
		a.OldTier = &pt
	}
	if current != nil {
		a.NewScore = &current.Score
		ct := current.Tier()
		a.NewTier = &ct
	}
	return a
}
