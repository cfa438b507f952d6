package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// RankedRepo is the ranked-shop read model: each page's latest score
// joined with page info, filtered, ordered and paginated.
type RankedRepo struct{ db *sql.DB }

// NewRankedRepo creates a Postgres-backed ranked read model.
func NewRankedRepo(db *sql.DB) *RankedRepo { return &RankedRepo{db: db} }

// rankedBase resolves each page's latest score once; both the item and
// the count query build on it so the filters always agree.
const rankedBase = `
	SELECT DISTINCT ON (s.page_id)
	       s.page_id, s.score, s.created_at, p.url, p.country, p.name
	FROM shop_scores s
	JOIN pages p ON p.id = s.page_id
	WHERE p.state <> 'deleted'
	ORDER BY s.page_id, s.created_at DESC`

// RankedShops returns one page of ranked shops plus the filtered total.
// Items come back in non-increasing score order, ties broken by newest
// score first.
func (r *RankedRepo) RankedShops(ctx context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1

	if c.Tier != "" {
		low, high, err := domain.TierRange(c.Tier)
		if err != nil {
			return nil, err
		}
		// Upper bound is exclusive except for the top tier, whose range
		// closes at 100.
		op := "<"
		if high >= 100 {
			op = "<="
		}
		where += fmt.Sprintf(" AND latest.score >= $%d AND latest.score %s $%d", idx, op, idx+1)
		args = append(args, low, high)
		idx += 2
	}
	if c.MinScore != nil {
		where += fmt.Sprintf(" AND latest.score >= $%d", idx)
		args = append(args, *c.MinScore)
		idx++
	}
	if c.Country != "" {
		where += fmt.Sprintf(" AND latest.country = $%d", idx)
		args = append(args, c.Country)
		idx++
	}

	var total int
	countQ := `SELECT COUNT(*) FROM (` + rankedBase + `) latest` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count ranked shops: %w", err)
	}

	q := `SELECT latest.page_id, latest.score, latest.url, latest.country, latest.name
		FROM (` + rankedBase + `) latest` + where +
		fmt.Sprintf(" ORDER BY latest.score DESC, latest.created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, c.Limit, c.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ranked shops: %w", err)
	}
	defer rows.Close()

	res := &domain.RankedShopsResult{Limit: c.Limit, Offset: c.Offset, Total: total}
	for rows.Next() {
		var s domain.RankedShop
		if err := rows.Scan(&s.PageID, &s.Score, &s.URL, &s.Country, &s.Name); err != nil {
			return nil, fmt.Errorf("scan ranked shop: %w", err)
		}
		s.Tier = domain.TierForScore(s.Score)
		res.Items = append(res.Items, s)
	}
	return res, rows.Err()
}
