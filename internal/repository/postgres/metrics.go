package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// MetricsRepo backs daily snapshots and history reads.
type MetricsRepo struct{ db *sql.DB }

// NewMetricsRepo creates a Postgres-backed metrics repository.
func NewMetricsRepo(db *sql.DB) *MetricsRepo { return &MetricsRepo{db: db} }

// TrackedPages returns every page eligible for snapshotting.
func (r *MetricsRepo) TrackedPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pageCols+` FROM pages WHERE state NOT IN ('deleted','archived') ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("tracked pages: %w", err)
	}
	defer rows.Close()

	var out []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *MetricsRepo) PageExists(ctx context.Context, pageID string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE id = $1`, pageID).Scan(&n); err != nil {
		return false, fmt.Errorf("page exists: %w", err)
	}
	return n > 0, nil
}

// UpsertSnapshot writes the snapshot, replacing any existing row for
// the same (page, date).
func (r *MetricsRepo) UpsertSnapshot(ctx context.Context, m *domain.PageDailyMetrics) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO page_daily_metrics
			(id, page_id, date, ads_count, shop_score, products_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (page_id, date) DO UPDATE SET
			ads_count = EXCLUDED.ads_count,
			shop_score = EXCLUDED.shop_score,
			products_count = EXCLUDED.products_count
	`, m.ID, m.PageID, m.Date, m.AdsCount, m.ShopScore, m.ProductsCount, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// MetricsSince returns snapshots dated on or after from, ascending.
func (r *MetricsRepo) MetricsSince(ctx context.Context, pageID string, from time.Time) ([]domain.PageDailyMetrics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, page_id, date, ads_count, shop_score, products_count, created_at
		FROM page_daily_metrics
		WHERE page_id = $1 AND date >= $2
		ORDER BY date ASC
	`, pageID, from)
	if err != nil {
		return nil, fmt.Errorf("metrics since: %w", err)
	}
	defer rows.Close()

	var out []domain.PageDailyMetrics
	for rows.Next() {
		var m domain.PageDailyMetrics
		if err := rows.Scan(&m.ID, &m.PageID, &m.Date, &m.AdsCount,
			&m.ShopScore, &m.ProductsCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// latestSnapshot is shared with the alert repository.
func latestSnapshot(ctx context.Context, q querier, pageID string) (*domain.PageDailyMetrics, error) {
	m := &domain.PageDailyMetrics{}
	err := q.QueryRowContext(ctx, `
		SELECT id, page_id, date, ads_count, shop_score, products_count, created_at
		FROM page_daily_metrics
		WHERE page_id = $1
		ORDER BY date DESC
		LIMIT 1
	`, pageID).Scan(&m.ID, &m.PageID, &m.Date, &m.AdsCount,
		&m.ShopScore, &m.ProductsCount, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return m, nil
}

// LatestSnapshot returns (nil, nil) when the page has no snapshots.
func (r *MetricsRepo) LatestSnapshot(ctx context.Context, pageID string) (*domain.PageDailyMetrics, error) {
	return latestSnapshot(ctx, r.db, pageID)
}
