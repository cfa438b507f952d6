package domain

import (
	"time"
)

// ScoreComponents holds the four weighted sub-scores that explain a
// shop score. Persisted next to the score for explainability.
type ScoreComponents struct {
	AdsActivity     float64 `json:"ads_activity"`
	Commerce        float64 `json:"commerce"`
	CreativeQuality float64 `json:"creative_quality"`
	Catalog         float64 `json:"catalog"`
}

// ShopScore is an immutable score observation for a page. Score is
// clamped to [0,100] at construction regardless of input; Tier is always
// derived from Score via TierForScore, never stored as source of truth.
type ShopScore struct {
	ID         string          `json:"id" db:"id"`
	PageID     string          `json:"page_id" db:"page_id"`
	Score      float64         `json:"score" db:"score"`
	Components ScoreComponents `json:"components" db:"components"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Tier returns the derived tier for this observation.
func (s *ShopScore) Tier() Tier { return TierForScore(s.Score) }

// PageDailyMetrics is one snapshot per (page, date). Unique on
// (page_id, date); snapshot runs upsert, never duplicate.
type PageDailyMetrics struct {
	ID            string    `json:"id" db:"id"`
	PageID        string    `json:"page_id" db:"page_id"`
	Date          time.Time `json:"date" db:"date"`
	AdsCount      int       `json:"ads_count" db:"ads_count"`
	ShopScore     *float64  `json:"shop_score" db:"shop_score"`
	ProductsCount *int      `json:"products_count" db:"products_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Tier returns the derived tier for the snapshot's score, or "" when no
// score had been computed yet.
func (m *PageDailyMetrics) Tier() Tier {
	if m.ShopScore == nil {
		return ""
	}
	return TierForScore(*m.ShopScore)
}

// PageMetricsHistory is an ordered (date ascending) range of snapshots
// with trivial derived helpers.
type PageMetricsHistory struct {
	PageID  string             `json:"page_id"`
	Metrics []PageDailyMetrics `json:"metrics"`
}

// FirstDate returns the earliest snapshot date, zero when empty.
func (h *PageMetricsHistory) FirstDate() time.Time {
	if len(h.Metrics) == 0 {
		return time.Time{}
	}
	return h.Metrics[0].Date
}

// LastDate returns the latest snapshot date, zero when empty.
func (h *PageMetricsHistory) LastDate() time.Time {
	if len(h.Metrics) == 0 {
		return time.Time{}
	}
	return h.Metrics[len(h.Metrics)-1].Date
}

// ScoreTrend returns last score minus first score over the range; zero
// when fewer than two scored snapshots exist.
func (h *PageMetricsHistory) ScoreTrend() float64 {
	var first, last *float64
	for i := range h.Metrics {
		if h.Metrics[i].ShopScore == nil {
			continue
		}
		if first == nil {
			first = h.Metrics[i].ShopScore
		}
		last = h.Metrics[i].ShopScore
	}
	if first == nil || last == nil || first == last {
		return 0
	}
	return *last - *first
}

// RankedShop is the ranked-query projection joining the latest score
// with page info.
type RankedShop struct {
	PageID  string  `json:"page_id" db:"page_id"`
	Score   float64 `json:"score" db:"score"`
	Tier    Tier    `json:"tier" db:"tier"`
	URL     string  `json:"url,omitempty" db:"url"`
	Country string  `json:"country,omitempty" db:"country"`
	Name    string  `json:"name,omitempty" db:"name"`
}

// RankedShopsResult carries one page of ranked shops plus the unfiltered
// total for the same criteria.
type RankedShopsResult struct {
	Items  []RankedShop `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// HasMore reports whether another page exists: offset + |items| < total.
func (r *RankedShopsResult) HasMore() bool {
	return r.Offset+len(r.Items) < r.Total
}
