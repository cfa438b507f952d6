package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// ProductRepo backs the product insight endpoints.
type ProductRepo struct{ db *sql.DB }

// NewProductRepo creates a Postgres-backed product repository.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// Upsert writes the batch keyed on (page_id, handle); first_seen_at is
// kept from the first observation.
func (r *ProductRepo) Upsert(ctx context.Context, products []*domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products
				(id, page_id, handle, title, url, price_min, price_max,
				 available, tags, vendor, first_seen_at, last_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (page_id, handle) DO UPDATE SET
				title = EXCLUDED.title,
				url = EXCLUDED.url,
				price_min = EXCLUDED.price_min,
				price_max = EXCLUDED.price_max,
				available = EXCLUDED.available,
				tags = EXCLUDED.tags,
				vendor = EXCLUDED.vendor,
				last_seen_at = EXCLUDED.last_seen_at
		`, p.ID, p.PageID, p.Handle, p.Title, p.URL, p.PriceMin, p.PriceMax,
			p.Available, pq.Array(p.Tags), p.Vendor, p.FirstSeenAt, p.LastSeenAt)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Handle, err)
		}
	}
	return tx.Commit()
}

// productSortCols whitelists sortable columns for the insights query.
var productSortCols = map[string]string{
	"price":      "price_min",
	"title":      "title",
	"first_seen": "first_seen_at",
	"last_seen":  "last_seen_at",
}

// ProductInsights aggregates a page's catalog: price spread plus how
// many products first appeared in the last 7 days.
type ProductInsights struct {
	Total        int      `json:"total"`
	Available    int      `json:"available"`
	PriceMin     *float64 `json:"price_min"`
	PriceMax     *float64 `json:"price_max"`
	PriceAvg     *float64 `json:"price_avg"`
	NewLast7Days int      `json:"new_last_7_days"`
}

// Insights computes catalog aggregates for one page.
func (r *ProductRepo) Insights(ctx context.Context, pageID string) (*ProductInsights, error) {
	var ins ProductInsights
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE available),
		       MIN(price_min), MAX(price_max), ROUND(AVG(price_min)::numeric, 2),
		       COUNT(*) FILTER (WHERE first_seen_at >= NOW() - INTERVAL '7 days')
		FROM products
		WHERE page_id = $1
	`, pageID).Scan(&ins.Total, &ins.Available, &ins.PriceMin, &ins.PriceMax,
		&ins.PriceAvg, &ins.NewLast7Days)
	if err != nil {
		return nil, fmt.Errorf("product insights: %w", err)
	}
	return &ins, nil
}

// ByPage returns the page's products. sortBy must be one of the
// whitelisted keys; empty falls back to last_seen.
func (r *ProductRepo) ByPage(ctx context.Context, pageID, sortBy string, limit, offset int) ([]domain.Product, int, error) {
	if limit <= 0 {
		limit = 50
	}
	col, ok := productSortCols[sortBy]
	if !ok {
		col = "last_seen_at"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE page_id = $1`, pageID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, page_id, handle, title, url, price_min, price_max,
		       available, tags, COALESCE(vendor,''), first_seen_at, last_seen_at
		FROM products
		WHERE page_id = $1
		ORDER BY `+col+` DESC
		LIMIT $2 OFFSET $3
	`, pageID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.PageID, &p.Handle, &p.Title, &p.URL,
			&p.PriceMin, &p.PriceMax, &p.Available, pq.Array(&p.Tags),
			&p.Vendor, &p.FirstSeenAt, &p.LastSeenAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
