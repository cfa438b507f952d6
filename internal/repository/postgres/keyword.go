package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// KeywordRepo backs the keyword-search use case: runs, discovery and
// the blacklist.
type KeywordRepo struct{ db *sql.DB }

// NewKeywordRepo creates a Postgres-backed keyword repository.
func NewKeywordRepo(db *sql.DB) *KeywordRepo { return &KeywordRepo{db: db} }

func (r *KeywordRepo) SaveRun(ctx context.Context, run *domain.KeywordRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO keyword_runs
			(id, keyword, country, language, status, result, retry_count,
			 max_retries, error_message, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, run.ID, run.Keyword, run.Country, run.Language, run.Status,
		nullJSON(run.Result), run.RetryCount, run.MaxRetries, run.Error,
		run.StartedAt, run.CompletedAt, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save keyword run: %w", err)
	}
	return nil
}

func (r *KeywordRepo) UpdateRun(ctx context.Context, run *domain.KeywordRun) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE keyword_runs SET
			status = $2, result = $3, retry_count = $4, error_message = $5,
			started_at = $6, completed_at = $7
		WHERE id = $1
	`, run.ID, run.Status, nullJSON(run.Result), run.RetryCount, run.Error,
		run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("update keyword run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update keyword run %s: no row", run.ID)
	}
	return nil
}

// RunByID returns (nil, nil) when the run does not exist.
func (r *KeywordRepo) RunByID(ctx context.Context, id string) (*domain.KeywordRun, error) {
	run := &domain.KeywordRun{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, keyword, country, language, status, COALESCE(result,'null'),
		       retry_count, max_retries, COALESCE(error_message,''),
		       started_at, completed_at, created_at
		FROM keyword_runs WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Keyword, &run.Country, &run.Language, &run.Status, &run.Result,
		&run.RetryCount, &run.MaxRetries, &run.Error,
		&run.StartedAt, &run.CompletedAt, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get keyword run: %w", err)
	}
	return run, nil
}

func (r *KeywordRepo) PageByAdvertiserID(ctx context.Context, advertiserID string) (*domain.Page, error) {
	p, err := scanPage(r.db.QueryRowContext(ctx,
		`SELECT `+pageCols+` FROM pages WHERE advertiser_id = $1`, advertiserID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page by advertiser: %w", err)
	}
	return p, nil
}

func (r *KeywordRepo) IsBlacklisted(ctx context.Context, advertiserID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blacklisted_pages WHERE advertiser_id = $1`,
		advertiserID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

// UpsertPageWithAds writes one advertiser group atomically: the page
// row keyed on advertiser_id, then its ads batch, counters included.
func (r *KeywordRepo) UpsertPageWithAds(ctx context.Context, page *domain.Page, ads []*domain.Ad) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// The stored id wins over the in-memory one so concurrent discovery
	// of the same advertiser converges on a single page row.
	var pageID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO pages
			(id, url, domain, advertiser_id, name, country, language, currency,
			 category, product_count, is_commerce_platform, active_ads_count,
			 total_ads_count, current_score, state, first_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8,''), NULLIF($9,''),
		        $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		ON CONFLICT (advertiser_id) DO UPDATE SET
			name = EXCLUDED.name,
			active_ads_count = EXCLUDED.active_ads_count,
			total_ads_count = EXCLUDED.total_ads_count,
			updated_at = NOW()
		RETURNING id
	`, page.ID, page.URL, page.Domain, page.AdvertiserID, page.Name,
		page.Country, page.Language, page.Currency, page.Category,
		page.ProductCount, page.IsCommerce, page.ActiveAdsCount,
		page.TotalAdsCount, page.CurrentScore, page.State, page.FirstSeenAt).Scan(&pageID)
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", page.AdvertiserID, err)
	}
	page.ID = pageID
	for _, a := range ads {
		a.PageID = pageID
	}

	if err := upsertAdsTx(ctx, tx, ads); err != nil {
		return err
	}
	return tx.Commit()
}

// Blacklist adds an advertiser to the blacklist; idempotent.
func (r *KeywordRepo) Blacklist(ctx context.Context, advertiserID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blacklisted_pages (advertiser_id, reason, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (advertiser_id) DO NOTHING
	`, advertiserID, reason)
	if err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	return nil
}

// Unblacklist removes an advertiser from the blacklist.
func (r *KeywordRepo) Unblacklist(ctx context.Context, advertiserID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blacklisted_pages WHERE advertiser_id = $1`, advertiserID)
	if err != nil {
		return fmt.Errorf("unblacklist: %w", err)
	}
	return nil
}

// nullJSON maps empty raw JSON to NULL rather than the empty string,
// which jsonb would reject.
func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
