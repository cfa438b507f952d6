package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/shopradar/ads-monitor/internal/domain"
)

const pageCols = `id, url, domain, advertiser_id, name, country, language,
	COALESCE(currency,''), COALESCE(category,''), product_count,
	is_commerce_platform, profile_id, active_ads_count, total_ads_count,
	current_score, state, first_seen_at, last_scanned_at, created_at, updated_at`

// scanPage reads one pages row in pageCols order.
func scanPage(row interface{ Scan(...interface{}) error }) (*domain.Page, error) {
	p := &domain.Page{}
	err := row.Scan(
		&p.ID, &p.URL, &p.Domain, &p.AdvertiserID, &p.Name, &p.Country, &p.Language,
		&p.Currency, &p.Category, &p.ProductCount,
		&p.IsCommerce, &p.ProfileID, &p.ActiveAdsCount, &p.TotalAdsCount,
		&p.CurrentScore, &p.State, &p.FirstSeenAt, &p.LastScannedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// pageByID is shared across the repositories whose ports include a page
// lookup. Returns (nil, nil) when the page does not exist.
func pageByID(ctx context.Context, q querier, id string) (*domain.Page, error) {
	p, err := scanPage(q.QueryRowContext(ctx,
		`SELECT `+pageCols+` FROM pages WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func updatePage(ctx context.Context, q querier, p *domain.Page) error {
	res, err := q.ExecContext(ctx, `
		UPDATE pages SET
			url = $2, domain = $3, name = $4, country = $5, language = $6,
			currency = NULLIF($7,''), category = NULLIF($8,''), product_count = $9,
			is_commerce_platform = $10, profile_id = $11, active_ads_count = $12,
			total_ads_count = $13, current_score = $14, state = $15,
			last_scanned_at = $16, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.URL, p.Domain, p.Name, p.Country, p.Language,
		p.Currency, p.Category, p.ProductCount,
		p.IsCommerce, p.ProfileID, p.ActiveAdsCount,
		p.TotalAdsCount, p.CurrentScore, p.State, p.LastScannedAt)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update page %s: no row", p.ID)
	}
	return nil
}

// PageRepo serves the site-analysis and catalog ports plus the page
// read endpoints.
type PageRepo struct{ db *sql.DB }

// NewPageRepo creates a Postgres-backed page repository.
func NewPageRepo(db *sql.DB) *PageRepo { return &PageRepo{db: db} }

func (r *PageRepo) PageByID(ctx context.Context, id string) (*domain.Page, error) {
	return pageByID(ctx, r.db, id)
}

func (r *PageRepo) UpdatePage(ctx context.Context, p *domain.Page) error {
	return updatePage(ctx, r.db, p)
}

// SaveProfile upserts the page's commerce profile and links it.
func (r *PageRepo) SaveProfile(ctx context.Context, cp *domain.CommerceProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var profileID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO commerce_profiles
			(id, page_id, shop_name, theme, apps, payment_methods, pixel_ids,
			 trust_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (page_id) DO UPDATE SET
			shop_name = EXCLUDED.shop_name,
			theme = EXCLUDED.theme,
			apps = EXCLUDED.apps,
			payment_methods = EXCLUDED.payment_methods,
			pixel_ids = EXCLUDED.pixel_ids,
			trust_score = EXCLUDED.trust_score,
			updated_at = NOW()
		RETURNING id
	`, cp.ID, cp.PageID, cp.ShopName, cp.Theme,
		pq.Array(cp.Apps), pq.Array(cp.PaymentMethods), pq.Array(cp.PixelIDs),
		cp.TrustScore).Scan(&profileID)
	if err != nil {
		return fmt.Errorf("upsert commerce profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pages SET profile_id = $1, updated_at = NOW() WHERE id = $2`,
		profileID, cp.PageID); err != nil {
		return fmt.Errorf("link profile: %w", err)
	}
	return tx.Commit()
}

// ProfileByPage returns (nil, nil) when the page has no profile.
func (r *PageRepo) ProfileByPage(ctx context.Context, pageID string) (*domain.CommerceProfile, error) {
	cp := &domain.CommerceProfile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, page_id, shop_name, COALESCE(theme,''), apps, payment_methods,
		       pixel_ids, trust_score, created_at, updated_at
		FROM commerce_profiles WHERE page_id = $1
	`, pageID).Scan(
		&cp.ID, &cp.PageID, &cp.ShopName, &cp.Theme,
		pq.Array(&cp.Apps), pq.Array(&cp.PaymentMethods),
		pq.Array(&cp.PixelIDs), &cp.TrustScore, &cp.CreatedAt, &cp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return cp, nil
}

// PageFilter narrows the page listing.
type PageFilter struct {
	State   string
	Country string
	Limit   int
	Offset  int
}

// List returns a page of pages plus the filtered total.
func (r *PageRepo) List(ctx context.Context, f PageFilter) ([]domain.Page, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE state <> 'deleted'"
	args := []interface{}{}
	idx := 1
	if f.State != "" {
		where += fmt.Sprintf(" AND state = $%d", idx)
		args = append(args, f.State)
		idx++
	}
	if f.Country != "" {
		where += fmt.Sprintf(" AND country = $%d", idx)
		args = append(args, f.Country)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pages: %w", err)
	}

	q := `SELECT ` + pageCols + ` FROM pages` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}
