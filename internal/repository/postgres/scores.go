package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/scoring"
)

// ScoreRepo backs score computation and the score read endpoints.
type ScoreRepo struct{ db *sql.DB }

// NewScoreRepo creates a Postgres-backed score repository.
func NewScoreRepo(db *sql.DB) *ScoreRepo { return &ScoreRepo{db: db} }

func (r *ScoreRepo) PageByID(ctx context.Context, id string) (*domain.Page, error) {
	return pageByID(ctx, r.db, id)
}

// creativeSignalTerms mirror the creative-quality heuristics at the SQL
// aggregate level so scoring needs a single round trip.
var (
	discountSQL  = signalPattern("% off", "%sale%", "%discount%", "%promo%", "%deal%", "%réduction%", "%rabatt%")
	ctaPhraseSQL = signalPattern("%shop now%", "%buy now%", "%order now%", "%get yours%", "%learn more%", "%sign up%", "%limited time%", "%don''t miss%")
)

func signalPattern(terms ...string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = "'" + t + "'"
	}
	return "ARRAY[" + strings.Join(quoted, ",") + "]"
}

// AdStats aggregates the page's ad signals in one query.
func (r *ScoreRepo) AdStats(ctx context.Context, pageID string) (*scoring.AdStats, error) {
	st := &scoring.AdStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'ACTIVE'),
			COUNT(*),
			COALESCE((SELECT COUNT(DISTINCT c) FROM ads a2, unnest(a2.countries) c WHERE a2.page_id = $1), 0),
			COALESCE((SELECT COUNT(DISTINCT p) FROM ads a3, unnest(a3.platforms) p WHERE a3.page_id = $1 AND p <> 'UNKNOWN'), 0),
			COALESCE(bool_or(COALESCE(title,'') <> '' OR COALESCE(body,'') <> ''), false),
			COALESCE(bool_or(lower(COALESCE(title,'') || ' ' || COALESCE(body,'')) LIKE ANY (`+discountSQL+`)), false),
			COALESCE(bool_or((COALESCE(title,'') || COALESCE(body,'')) ~ '[\U0001F000-\U0001FAFF☀-➿]'), false),
			COALESCE(bool_or(lower(COALESCE(title,'') || ' ' || COALESCE(body,'')) LIKE ANY (`+ctaPhraseSQL+`)), false),
			COALESCE(bool_or(COALESCE(cta_type,'') <> ''), false)
		FROM ads WHERE page_id = $1
	`, pageID).Scan(
		&st.ActiveCount, &st.TotalCount, &st.CountryCount, &st.PlatformCount,
		&st.AnyText, &st.HasDiscount, &st.HasEmoji, &st.HasCTAPhrase, &st.HasCTAType,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate ad stats: %w", err)
	}
	return st, nil
}

// LatestScore returns (nil, nil) when the page was never scored.
func (r *ScoreRepo) LatestScore(ctx context.Context, pageID string) (*domain.ShopScore, error) {
	s := &domain.ShopScore{}
	var components []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, page_id, score, components, created_at
		FROM shop_scores
		WHERE page_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, pageID).Scan(&s.ID, &s.PageID, &s.Score, &components, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest score: %w", err)
	}
	if err := json.Unmarshal(components, &s.Components); err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}
	return s, nil
}

// SaveScore appends one immutable score observation.
func (r *ScoreRepo) SaveScore(ctx context.Context, s *domain.ShopScore) error {
	components, err := json.Marshal(s.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shop_scores (id, page_id, score, components, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.PageID, s.Score, components, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

func (r *ScoreRepo) UpdatePageScore(ctx context.Context, pageID string, score float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pages SET current_score = $2, updated_at = NOW() WHERE id = $1
	`, pageID, score)
	if err != nil {
		return fmt.Errorf("update page score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update page score %s: no row", pageID)
	}
	return nil
}
