package domain

import (
	"time"
)

// AlertType enumerates the change-detection rules that can fire.
type AlertType string

const (
	AlertScoreJump   AlertType = "SCORE_JUMP"
	AlertScoreDrop   AlertType = "SCORE_DROP"
	AlertTierUp      AlertType = "TIER_UP"
	AlertTierDown    AlertType = "TIER_DOWN"
	AlertNewAdsBoost AlertType = "NEW_ADS_BOOST"
)

// AlertSeverity grades an alert for display and routing.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is an immutable change-detection event for a page.
type Alert struct {
	ID        string        `json:"id" db:"id"`
	PageID    string        `json:"page_id" db:"page_id"`
	Type      AlertType     `json:"type" db:"type"`
	Severity  AlertSeverity `json:"severity" db:"severity"`
	Message   string        `json:"message" db:"message"`
	OldScore  *float64      `json:"old_score" db:"old_score"`
	NewScore  *float64      `json:"new_score" db:"new_score"`
	OldTier   *Tier         `json:"old_tier" db:"old_tier"`
	NewTier   *Tier         `json:"new_tier" db:"new_tier"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// Watchlist is a user-named collection of pages.
type Watchlist struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WatchlistItem links a page into a watchlist; unique on
// (watchlist_id, page_id).
type WatchlistItem struct {
	WatchlistID string    `json:"watchlist_id" db:"watchlist_id"`
	PageID      string    `json:"page_id" db:"page_id"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}
