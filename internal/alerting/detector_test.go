package alerting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/domain"
)

type fakeRepo struct {
	alerts   []*domain.Alert
	snapshot *domain.PageDailyMetrics

	saveErrOn map[domain.AlertType]error
}

func (f *fakeRepo) SaveAlert(_ context.Context, a *domain.Alert) error {
	if err := f.saveErrOn[a.Type]; err != nil {
		return err
	}
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeRepo) LatestSnapshot(_ context.Context, _ string) (*domain.PageDailyMetrics, error) {
	return f.snapshot, nil
}

func score(v float64) *domain.ShopScore {
	return &domain.ShopScore{ID: "s-1", PageID: "page-1", Score: v}
}

func page(activeAds int) *domain.Page {
	return &domain.Page{ID: "page-1", ActiveAdsCount: activeAds}
}

func types(alerts []*domain.Alert) []domain.AlertType {
	out := make([]domain.AlertType, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestDetectChangesNoPriorsNoAlerts(t *testing.T) {
	repo := &fakeRepo{}
	err := NewDetector(repo).DetectChanges(context.Background(), page(10), nil, score(90))
	require.NoError(t, err)
	assert.Empty(t, repo.alerts)
}

func TestDetectChangesExactThresholdFiresScoreJump(t *testing.T) {
	repo := &fakeRepo{}
	err := NewDetector(repo).DetectChanges(context.Background(), page(0), score(40), score(50))
	require.NoError(t, err)

	// +10.0 exactly is a jump; 40 and 50 are both tier M so no tier alert.
	require.Len(t, repo.alerts, 1)
	a := repo.alerts[0]
	assert.Equal(t, domain.AlertScoreJump, a.Type)
	assert.Equal(t, domain.SeverityWarning, a.Severity)
	assert.Equal(t, 40.0, *a.OldScore)
	assert.Equal(t, 50.0, *a.NewScore)
}

func TestDetectChangesBelowThresholdSilent(t *testing.T) {
	repo := &fakeRepo{}
	err := NewDetector(repo).DetectChanges(context.Background(), page(0), score(40), score(49.99))
	require.NoError(t, err)
	assert.Empty(t, repo.alerts)
}

func TestDetectChangesTripleCombo(t *testing.T) {
	// Score 30 -> 75 (jump + tier S to XL) while active ads went from
	// 5 (snapshot) to 12 (boost ratio 1.4).
	repo := &fakeRepo{snapshot: &domain.PageDailyMetrics{PageID: "page-1", AdsCount: 5}}
	err := NewDetector(repo).DetectChanges(context.Background(), page(12), score(30), score(75))
	require.NoError(t, err)

	got := types(repo.alerts)
	assert.ElementsMatch(t, []domain.AlertType{
		domain.AlertScoreJump, domain.AlertTierUp, domain.AlertNewAdsBoost,
	}, got)

	for _, a := range repo.alerts {
		if a.Type == domain.AlertScoreJump {
			assert.Equal(t, domain.SeverityWarning, a.Severity)
		}
	}
}

func TestDetectChangesScoreDropAndTierDown(t *testing.T) {
	repo := &fakeRepo{}
	err := NewDetector(repo).DetectChanges(context.Background(), page(0), score(88), score(60))
	require.NoError(t, err)

	assert.ElementsMatch(t, []domain.AlertType{
		domain.AlertScoreDrop, domain.AlertTierDown,
	}, types(repo.alerts))
}

func TestDetectChangesAdsBoostNeedsDoubling(t *testing.T) {
	repo := &fakeRepo{snapshot: &domain.PageDailyMetrics{PageID: "page-1", AdsCount: 10}}

	err := NewDetector(repo).DetectChanges(context.Background(), page(19), score(50), score(50))
	require.NoError(t, err)
	assert.Empty(t, repo.alerts, "1.9x is below the boost ratio")

	err = NewDetector(repo).DetectChanges(context.Background(), page(20), score(50), score(50))
	require.NoError(t, err)
	require.Len(t, repo.alerts, 1)
	assert.Equal(t, domain.AlertNewAdsBoost, repo.alerts[0].Type)
}

func TestDetectChangesAdsBoostFromZeroBaseline(t *testing.T) {
	// A snapshot with zero ads counts as baseline 1, so 0 -> 2 fires.
	repo := &fakeRepo{snapshot: &domain.PageDailyMetrics{PageID: "page-1", AdsCount: 0}}

	err := NewDetector(repo).DetectChanges(context.Background(), page(1), score(50), score(50))
	require.NoError(t, err)
	assert.Empty(t, repo.alerts, "1 ad against baseline 1 is below the ratio")

	err = NewDetector(repo).DetectChanges(context.Background(), page(2), score(50), score(50))
	require.NoError(t, err)
	require.Len(t, repo.alerts, 1)
	assert.Equal(t, domain.AlertNewAdsBoost, repo.alerts[0].Type)
}

func TestDetectChangesSaveFailureDoesNotAbortOthers(t *testing.T) {
	repo := &fakeRepo{
		saveErrOn: map[domain.AlertType]error{
			domain.AlertScoreJump: errors.New("insert failed"),
		},
	}
	err := NewDetector(repo).DetectChanges(context.Background(), page(0), score(30), score(75))
	assert.Error(t, err, "partial failure is reported")
	assert.ElementsMatch(t, []domain.AlertType{domain.AlertTierUp}, types(repo.alerts))
}
