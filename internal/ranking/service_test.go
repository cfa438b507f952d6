package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/domain"
)

type fakeRepo struct {
	lastCriteria domain.RankingCriteria
	result       *domain.RankedShopsResult
}

func (f *fakeRepo) RankedShops(_ context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error) {
	f.lastCriteria = c
	if f.result != nil {
		return f.result, nil
	}
	return &domain.RankedShopsResult{Limit: c.Limit, Offset: c.Offset}, nil
}

func TestRankAppliesDefaultLimit(t *testing.T) {
	repo := &fakeRepo{}
	_, err := NewService(repo).Rank(context.Background(), domain.RankingCriteria{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, repo.lastCriteria.Limit)
}

func TestRankRejectsOutOfRangeLimit(t *testing.T) {
	svc := NewService(&fakeRepo{})
	_, err := svc.Rank(context.Background(), domain.RankingCriteria{Limit: 201})
	assert.Error(t, err)
	_, err = svc.Rank(context.Background(), domain.RankingCriteria{Limit: -1})
	assert.Error(t, err)
}

func TestRankNormalizesCountryAndTier(t *testing.T) {
	repo := &fakeRepo{}
	_, err := NewService(repo).Rank(context.Background(), domain.RankingCriteria{
		Limit:   20,
		Tier:    "xl",
		Country: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "FR", repo.lastCriteria.Country)
}

func TestRankRejectsUnknownTier(t *testing.T) {
	_, err := NewService(&fakeRepo{}).Rank(context.Background(), domain.RankingCriteria{
		Limit: 10,
		Tier:  "MEGA",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTier)
}

func TestTopClampsRequestedSize(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastCriteria.Limit)

	_, err = svc.Top(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastCriteria.Limit)
}
