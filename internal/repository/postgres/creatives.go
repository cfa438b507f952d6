package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// CreativeRepo backs creative analysis.
type CreativeRepo struct{ db *sql.DB }

// NewCreativeRepo creates a Postgres-backed creative repository.
func NewCreativeRepo(db *sql.DB) *CreativeRepo { return &CreativeRepo{db: db} }

// AdByID returns (nil, nil) when the ad does not exist.
func (r *CreativeRepo) AdByID(ctx context.Context, adID string) (*domain.Ad, error) {
	a, err := scanAd(r.db.QueryRowContext(ctx,
		`SELECT `+adCols+` FROM ads WHERE id = $1`, adID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ad: %w", err)
	}
	return a, nil
}

func (r *CreativeRepo) AdsByPage(ctx context.Context, pageID string) ([]domain.Ad, error) {
	return adsByPage(ctx, r.db, pageID)
}

const analysisCols = `id, ad_id, creative_score, style_tags, angle_tags,
	tone_tags, sentiment, analyzer_version, created_at`

func scanAnalysis(row interface{ Scan(...interface{}) error }) (*domain.CreativeAnalysis, error) {
	a := &domain.CreativeAnalysis{}
	err := row.Scan(&a.ID, &a.AdID, &a.CreativeScore,
		pq.Array(&a.StyleTags), pq.Array(&a.AngleTags), pq.Array(&a.ToneTags),
		&a.Sentiment, &a.AnalyzerVersion, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AnalysisByAd returns (nil, nil) when the ad was never analyzed.
func (r *CreativeRepo) AnalysisByAd(ctx context.Context, adID string) (*domain.CreativeAnalysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx,
		`SELECT `+analysisCols+` FROM creative_analyses WHERE ad_id = $1`, adID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// SaveAnalysis writes the analysis; the first write for an ad wins and
// concurrent duplicates converge on the stored row.
func (r *CreativeRepo) SaveAnalysis(ctx context.Context, a *domain.CreativeAnalysis) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO creative_analyses
			(id, ad_id, creative_score, style_tags, angle_tags, tone_tags,
			 sentiment, analyzer_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ad_id) DO NOTHING
	`, a.ID, a.AdID, a.CreativeScore,
		pq.Array(a.StyleTags), pq.Array(a.AngleTags), pq.Array(a.ToneTags),
		a.Sentiment, a.AnalyzerVersion, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		stored, err := r.AnalysisByAd(ctx, a.AdID)
		if err != nil {
			return err
		}
		if stored != nil {
			*a = *stored
		}
	}
	return nil
}

func (r *CreativeRepo) AnalysesByPage(ctx context.Context, pageID string) ([]domain.CreativeAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+analysisCols+` FROM creative_analyses
		WHERE ad_id IN (SELECT id FROM ads WHERE page_id = $1)
		ORDER BY creative_score DESC
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("analyses by page: %w", err)
	}
	defer rows.Close()

	var out []domain.CreativeAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
