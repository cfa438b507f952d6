// Package ranking serves the ranked-shop read model: latest score per
// page, filtered and paginated.
package ranking

import (
	"context"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// DefaultLimit applies when the caller does not specify a page size.
const DefaultLimit = 50

// Repository is the read-model port. Implementations must order by
// score descending, then created_at descending, and compute Total with
// the same filters as the item query.
type Repository interface {
	RankedShops(ctx context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error)
}

// Service validates criteria and delegates to the read model.
type Service struct {
	repo Repository
}

// NewService creates a ranking service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Rank returns one page of ranked shops. A zero limit gets the default;
// anything else out of range is rejected.
func (s *Service) Rank(ctx context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error) {
	if c.Limit == 0 {
		c.Limit = DefaultLimit
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Country != "" {
		normalized, err := domain.NormalizeCountry(c.Country)
		if err != nil {
			return nil, err
		}
		c.Country = normalized
	}

	res, err := s.repo.RankedShops(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("ranking query: %w", err)
	}
	return res, nil
}

// Top returns the n best-scored shops with no filters.
func (s *Service) Top(ctx context.Context, n int) ([]domain.RankedShop, error) {
	if n <= 0 {
		n = 10
	}
	if n > 200 {
		n = 200
	}
	res, err := s.Rank(ctx, domain.RankingCriteria{Limit: n})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
