package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/shopradar/ads-monitor/internal/domain"
)

const adCols = `id, page_id, meta_ad_id, title, body, link_url, image_url,
	video_url, cta_type, status, platforms, countries, started_at, ended_at,
	impressions_min, impressions_max, spend_min, spend_max,
	COALESCE(currency,''), first_seen_at, last_seen_at`

func scanAd(row interface{ Scan(...interface{}) error }) (*domain.Ad, error) {
	a := &domain.Ad{}
	var platforms []string
	err := row.Scan(
		&a.ID, &a.PageID, &a.MetaAdID, &a.Title, &a.Body, &a.LinkURL, &a.ImageURL,
		&a.VideoURL, &a.CTAType, &a.Status, pq.Array(&platforms), pq.Array(&a.Countries),
		&a.StartedAt, &a.EndedAt,
		&a.ImpressionsMin, &a.ImpressionsMax, &a.SpendMin, &a.SpendMax,
		&a.Currency, &a.FirstSeenAt, &a.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	a.Platforms = make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		a.Platforms[i] = domain.Platform(p)
	}
	return a, nil
}

// upsertAdsTx writes the batch keyed on meta_ad_id. first_seen_at is
// kept from the first observation; everything else follows the library.
func upsertAdsTx(ctx context.Context, tx *sql.Tx, ads []*domain.Ad) error {
	for _, a := range ads {
		platforms := make([]string, len(a.Platforms))
		for i, p := range a.Platforms {
			platforms[i] = string(p)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ads
				(id, page_id, meta_ad_id, title, body, link_url, image_url,
				 video_url, cta_type, status, platforms, countries, started_at,
				 ended_at, impressions_min, impressions_max, spend_min, spend_max,
				 currency, first_seen_at, last_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			        $14, $15, $16, $17, $18, NULLIF($19,''), $20, $21)
			ON CONFLICT (meta_ad_id) DO UPDATE SET
				title = EXCLUDED.title,
				body = EXCLUDED.body,
				link_url = EXCLUDED.link_url,
				image_url = EXCLUDED.image_url,
				video_url = EXCLUDED.video_url,
				cta_type = EXCLUDED.cta_type,
				status = EXCLUDED.status,
				platforms = EXCLUDED.platforms,
				countries = EXCLUDED.countries,
				started_at = EXCLUDED.started_at,
				ended_at = COALESCE(ads.ended_at, EXCLUDED.ended_at),
				impressions_min = EXCLUDED.impressions_min,
				impressions_max = EXCLUDED.impressions_max,
				spend_min = EXCLUDED.spend_min,
				spend_max = EXCLUDED.spend_max,
				currency = EXCLUDED.currency,
				last_seen_at = EXCLUDED.last_seen_at
		`, a.ID, a.PageID, a.MetaAdID, a.Title, a.Body, a.LinkURL, a.ImageURL,
			a.VideoURL, a.CTAType, a.Status, pq.Array(platforms), pq.Array(a.Countries),
			a.StartedAt, a.EndedAt, a.ImpressionsMin, a.ImpressionsMax,
			a.SpendMin, a.SpendMax, a.Currency, a.FirstSeenAt, a.LastSeenAt)
		if err != nil {
			return fmt.Errorf("upsert ad %s: %w", a.MetaAdID, err)
		}
	}
	return nil
}

// refreshAdCounters recomputes the page's ad counters from the ads
// table inside the same transaction as the batch write.
func refreshAdCounters(ctx context.Context, tx *sql.Tx, pageID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE pages SET
			active_ads_count = (SELECT COUNT(*) FROM ads WHERE page_id = $1 AND status = 'ACTIVE'),
			total_ads_count  = (SELECT COUNT(*) FROM ads WHERE page_id = $1),
			updated_at = NOW()
		WHERE id = $1
	`, pageID)
	if err != nil {
		return fmt.Errorf("refresh ad counters: %w", err)
	}
	return nil
}

func adsByPage(ctx context.Context, q querier, pageID string) ([]domain.Ad, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+adCols+` FROM ads WHERE page_id = $1 ORDER BY last_seen_at DESC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	var out []domain.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
