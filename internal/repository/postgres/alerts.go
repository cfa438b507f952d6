package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// AlertRepo backs change detection and the alert read endpoints.
type AlertRepo struct{ db *sql.DB }

// NewAlertRepo creates a Postgres-backed alert repository.
func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

func (r *AlertRepo) SaveAlert(ctx context.Context, a *domain.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts
			(id, page_id, type, severity, message, old_score, new_score,
			 old_tier, new_tier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.PageID, a.Type, a.Severity, a.Message,
		a.OldScore, a.NewScore, a.OldTier, a.NewTier, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// LatestSnapshot returns (nil, nil) when the page has no snapshots.
func (r *AlertRepo) LatestSnapshot(ctx context.Context, pageID string) (*domain.PageDailyMetrics, error) {
	return latestSnapshot(ctx, r.db, pageID)
}

const alertCols = `id, page_id, type, severity, message, old_score, new_score,
	old_tier, new_tier, created_at`

func scanAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	defer rows.Close()
	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.PageID, &a.Type, &a.Severity, &a.Message,
			&a.OldScore, &a.NewScore, &a.OldTier, &a.NewTier, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Recent returns the newest alerts across all pages.
func (r *AlertRepo) Recent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertCols+` FROM alerts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	return scanAlerts(rows)
}

// ByPage returns the page's alerts, newest first.
func (r *AlertRepo) ByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+alertCols+` FROM alerts
		WHERE page_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pageID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("alerts by page: %w", err)
	}
	return scanAlerts(rows)
}
