package creative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/domain"
)

type fakeRepo struct {
	ads      map[string]*domain.Ad
	pageAds  map[string][]domain.Ad
	analyses map[string]*domain.CreativeAnalysis

	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		ads:      map[string]*domain.Ad{},
		pageAds:  map[string][]domain.Ad{},
		analyses: map[string]*domain.CreativeAnalysis{},
	}
}

func (f *fakeRepo) AdByID(_ context.Context, id string) (*domain.Ad, error) {
	return f.ads[id], nil
}

func (f *fakeRepo) AdsByPage(_ context.Context, pageID string) ([]domain.Ad, error) {
	return f.pageAds[pageID], nil
}

func (f *fakeRepo) AnalysisByAd(_ context.Context, adID string) (*domain.CreativeAnalysis, error) {
	return f.analyses[adID], nil
}

func (f *fakeRepo) SaveAnalysis(_ context.Context, a *domain.CreativeAnalysis) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.analyses[a.AdID] = a
	return nil
}

func (f *fakeRepo) AnalysesByPage(_ context.Context, pageID string) ([]domain.CreativeAnalysis, error) {
	var out []domain.CreativeAnalysis
	for _, ad := range f.pageAds[pageID] {
		if a := f.analyses[ad.ID]; a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func seedAd(f *fakeRepo, pageID, adID, body string) {
	a := domain.Ad{ID: adID, PageID: pageID}
	if body != "" {
		a.Body = &body
	}
	f.ads[adID] = &a
	f.pageAds[pageID] = append(f.pageAds[pageID], a)
}

func TestAnalyzeAdIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedAd(repo, "page-1", "ad-1", "Get 20% off today! Shop now 🔥")
	svc := NewService(repo)

	first, err := svc.AnalyzeAd(context.Background(), "ad-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := svc.AnalyzeAd(context.Background(), "ad-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "existing record returned, not recomputed")
	assert.Len(t, repo.analyses, 1)
}

func TestAnalyzeAdUnknown(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.AnalyzeAd(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAdNotFound)
}

func TestAnalyzePageSkipsAnalyzedAndContinuesOnErrors(t *testing.T) {
	repo := newFakeRepo()
	seedAd(repo, "page-1", "ad-1", "Shop now! 20% off")
	seedAd(repo, "page-1", "ad-2", "New collection just dropped")
	seedAd(repo, "page-1", "ad-3", "Plain text")

	svc := NewService(repo)
	_, err := svc.AnalyzeAd(context.Background(), "ad-1")
	require.NoError(t, err)

	res, err := svc.AnalyzePage(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.AdsSeen)
	assert.Equal(t, 2, res.Analyzed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Errors)
}

func TestAnalyzePageCountsSaveFailures(t *testing.T) {
	repo := newFakeRepo()
	seedAd(repo, "page-1", "ad-1", "Shop now!")
	repo.saveErr = errors.New("disk full")

	res, err := NewService(repo).AnalyzePage(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Zero(t, res.Analyzed)
}

func TestSummarizePage(t *testing.T) {
	repo := newFakeRepo()
	seedAd(repo, "page-1", "ad-1", "Huge SALE! 50% off everything, shop now 🔥 limited time only")
	seedAd(repo, "page-1", "ad-2", "20% off our best sellers. Order now, sale ends today!")
	seedAd(repo, "page-1", "ad-3", "Our story, told plainly")

	svc := NewService(repo)
	_, err := svc.AnalyzePage(context.Background(), "page-1")
	require.NoError(t, err)

	sum, err := svc.SummarizePage(context.Background(), "page-1")
	require.NoError(t, err)

	assert.Equal(t, 3, sum.AnalyzedAds)
	assert.Greater(t, sum.AverageScore, 0.0)
	assert.NotEmpty(t, sum.BestAdID)
	assert.GreaterOrEqual(t, sum.BestScore, sum.AverageScore)
	assert.Contains(t, sum.CommonTags, "discount", "two of three ads lead with a discount")
	assert.LessOrEqual(t, len(sum.TopCreatives), topCreativesLimit)
	total := 0
	for _, n := range sum.SentimentCounts {
		total += n
	}
	assert.Equal(t, 3, total)
}

func TestSummarizePageEmpty(t *testing.T) {
	sum, err := NewService(newFakeRepo()).SummarizePage(context.Background(), "page-9")
	require.NoError(t, err)
	assert.Zero(t, sum.AnalyzedAds)
	assert.Zero(t, sum.AverageScore)
}
