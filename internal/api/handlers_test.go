package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/repository/postgres"
	"github.com/shopradar/ads-monitor/internal/service/keywordsearch"
	"github.com/shopradar/ads-monitor/internal/service/watchlist"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

type fakeSearch struct {
	res *keywordsearch.Result
	err error
}

func (f *fakeSearch) Execute(context.Context, keywordsearch.Params) (*keywordsearch.Result, error) {
	return f.res, f.err
}

type fakeRanker struct {
	criteria domain.RankingCriteria
	res      *domain.RankedShopsResult
	err      error
}

func (f *fakeRanker) Rank(_ context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error) {
	f.criteria = c
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &domain.RankedShopsResult{Limit: c.Limit, Offset: c.Offset}, nil
}

func (f *fakeRanker) Top(ctx context.Context, n int) ([]domain.RankedShop, error) {
	res, err := f.Rank(ctx, domain.RankingCriteria{Limit: n})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

type fakeHistorian struct {
	hist *domain.PageMetricsHistory
	err  error
}

func (f *fakeHistorian) History(context.Context, string, int) (*domain.PageMetricsHistory, error) {
	return f.hist, f.err
}

type fakeCreatives struct{ summary *creative.Summary }

func (f *fakeCreatives) SummarizePage(_ context.Context, pageID string) (*creative.Summary, error) {
	if f.summary != nil {
		return f.summary, nil
	}
	return &creative.Summary{PageID: pageID}, nil
}

type fakeWatchlists struct {
	created *domain.Watchlist
	err     error
}

func (f *fakeWatchlists) Create(_ context.Context, name string) (*domain.Watchlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &domain.Watchlist{ID: "wl-1", Name: name}
	return f.created, nil
}
func (f *fakeWatchlists) List(context.Context) ([]*domain.Watchlist, error) { return nil, f.err }
func (f *fakeWatchlists) Get(context.Context, string) (*domain.Watchlist, []*domain.WatchlistItem, error) {
	return nil, nil, f.err
}
func (f *fakeWatchlists) Delete(context.Context, string) error          { return f.err }
func (f *fakeWatchlists) AddPage(context.Context, string, string) error { return f.err }
func (f *fakeWatchlists) RemovePage(context.Context, string, string) error {
	return f.err
}
func (f *fakeWatchlists) ScanNow(context.Context, string) (*watchlist.ScanNowResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &watchlist.ScanNowResult{PagesQueued: 3}, nil
}

type fakePages struct {
	page    *domain.Page
	profile *domain.CommerceProfile
	err     error
}

func (f *fakePages) PageByID(context.Context, string) (*domain.Page, error) {
	return f.page, f.err
}
func (f *fakePages) ProfileByPage(context.Context, string) (*domain.CommerceProfile, error) {
	return f.profile, nil
}
func (f *fakePages) List(context.Context, postgres.PageFilter) ([]domain.Page, int, error) {
	if f.page == nil {
		return nil, 0, f.err
	}
	return []domain.Page{*f.page}, 1, f.err
}

type fakeScans struct{ scan *domain.Scan }

func (f *fakeScans) ScanByID(context.Context, string) (*domain.Scan, error) { return f.scan, nil }

type fakeScores struct{ score *domain.ShopScore }

func (f *fakeScores) LatestScore(context.Context, string) (*domain.ShopScore, error) {
	return f.score, nil
}

type fakeAlerts struct{ alerts []domain.Alert }

func (f *fakeAlerts) Recent(context.Context, int) ([]domain.Alert, error) { return f.alerts, nil }
func (f *fakeAlerts) ByPage(context.Context, string, int, int) ([]domain.Alert, error) {
	return f.alerts, nil
}

type fakeProducts struct {
	items    []domain.Product
	insights *postgres.ProductInsights
}

func (f *fakeProducts) ByPage(context.Context, string, string, int, int) ([]domain.Product, int, error) {
	return f.items, len(f.items), nil
}
func (f *fakeProducts) Insights(context.Context, string) (*postgres.ProductInsights, error) {
	if f.insights != nil {
		return f.insights, nil
	}
	return &postgres.ProductInsights{}, nil
}

type fakeBlacklist struct{ added []string }

func (f *fakeBlacklist) Blacklist(_ context.Context, advertiserID, _ string) error {
	f.added = append(f.added, advertiserID)
	return nil
}
func (f *fakeBlacklist) Unblacklist(context.Context, string) error { return nil }

type fakeEnqueuer struct {
	names []string
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, name string, _ any) error {
	if f.err != nil {
		return f.err
	}
	f.names = append(f.names, name)
	return nil
}

type fixture struct {
	search     *fakeSearch
	ranker     *fakeRanker
	historian  *fakeHistorian
	creatives  *fakeCreatives
	watchlists *fakeWatchlists
	pages      *fakePages
	scans      *fakeScans
	scores     *fakeScores
	alerts     *fakeAlerts
	products   *fakeProducts
	blacklist  *fakeBlacklist
	enqueuer   *fakeEnqueuer
	router     http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		search:     &fakeSearch{},
		ranker:     &fakeRanker{},
		historian:  &fakeHistorian{},
		creatives:  &fakeCreatives{},
		watchlists: &fakeWatchlists{},
		pages:      &fakePages{},
		scans:      &fakeScans{},
		scores:     &fakeScores{},
		alerts:     &fakeAlerts{},
		products:   &fakeProducts{},
		blacklist:  &fakeBlacklist{},
		enqueuer:   &fakeEnqueuer{},
	}
	h := NewHandlers(f.search, f.ranker, f.historian, f.creatives, f.watchlists,
		f.pages, f.scans, f.scores, f.alerts, f.products, f.blacklist, f.enqueuer, nil)
	f.router = SetupRoutes(h)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthWithoutDB(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSearchKeywords(t *testing.T) {
	f := newFixture()
	f.search.res = &keywordsearch.Result{RunID: "run-1", UniquePages: 4}

	rec := f.do(t, http.MethodPost, "/api/keywords/search",
		`{"keyword":"yoga mat","country":"FR"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)
}

func TestSearchKeywordsEmptyKeyword(t *testing.T) {
	f := newFixture()
	f.search.err = keywordsearch.ErrInvalidKeyword

	rec := f.do(t, http.MethodPost, "/api/keywords/search", `{"keyword":"","country":"FR"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchKeywordsRateLimited(t *testing.T) {
	f := newFixture()
	f.search.err = &adslib.RateLimitError{RetryAfter: 30}

	rec := f.do(t, http.MethodPost, "/api/keywords/search", `{"keyword":"yoga","country":"FR"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestSearchKeywordsUpstreamDown(t *testing.T) {
	f := newFixture()
	f.search.err = adslib.ErrUpstream

	rec := f.do(t, http.MethodPost, "/api/keywords/search", `{"keyword":"yoga","country":"FR"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetPageNotFound(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/pages/p-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPageWithProfile(t *testing.T) {
	f := newFixture()
	profileID := "prof-1"
	f.pages.page = &domain.Page{
		ID: "p-1", URL: "https://shop.example", State: domain.PageActive,
		ProfileID: &profileID,
	}
	f.pages.profile = &domain.CommerceProfile{ID: profileID, PageID: "p-1", ShopName: "Shop"}

	rec := f.do(t, http.MethodGet, "/api/pages/p-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		URL     string `json:"url"`
		Profile *struct {
			ShopName string `json:"shop_name"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "https://shop.example", got.URL)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Shop", got.Profile.ShopName)
}

func TestRankedPagesFilters(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/pages/ranked?tier=XL&min_score=72.5&country=FR&limit=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Tier("XL"), f.ranker.criteria.Tier)
	require.NotNil(t, f.ranker.criteria.MinScore)
	assert.Equal(t, 72.5, *f.ranker.criteria.MinScore)
	assert.Equal(t, 20, f.ranker.criteria.Limit)
}

func TestRankedPagesBadMinScore(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/pages/ranked?min_score=high", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankedPagesInvalidTier(t *testing.T) {
	f := newFixture()
	f.ranker.err = domain.ErrInvalidTier
	rec := f.do(t, http.MethodGet, "/api/pages/ranked?tier=GIGANTIC", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetScoreDerivesTier(t *testing.T) {
	f := newFixture()
	f.scores.score = &domain.ShopScore{ID: "s-1", PageID: "p-1", Score: 88.5}

	rec := f.do(t, http.MethodGet, "/api/pages/p-1/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tier":"XXL"`)
}

func TestGetScoreNone(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/pages/p-1/score", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecomputeScoreQueues(t *testing.T) {
	f := newFixture()
	f.pages.page = &domain.Page{ID: "p-1", State: domain.PageActive}

	rec := f.do(t, http.MethodPost, "/api/pages/p-1/score/recompute", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{tasks.ComputeShopScore}, f.enqueuer.names)
}

func TestRecomputeScoreQueueDown(t *testing.T) {
	f := newFixture()
	f.pages.page = &domain.Page{ID: "p-1", State: domain.PageActive}
	f.enqueuer.err = errors.New("connection refused")

	rec := f.do(t, http.MethodPost, "/api/pages/p-1/score/recompute", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHistoryUnknownPage(t *testing.T) {
	f := newFixture()
	f.historian.err = history.ErrPageNotFound

	rec := f.do(t, http.MethodGet, "/api/pages/p-404/metrics/history?days=14", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHistoryDateRangeAndLimit(t *testing.T) {
	f := newFixture()
	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}
	f.historian.hist = &domain.PageMetricsHistory{
		PageID: "p-1",
		Metrics: []domain.PageDailyMetrics{
			{PageID: "p-1", Date: day(20), AdsCount: 3},
			{PageID: "p-1", Date: day(21), AdsCount: 5},
			{PageID: "p-1", Date: day(22), AdsCount: 8},
		},
	}

	rec := f.do(t, http.MethodGet,
		"/api/pages/p-1/metrics/history?date_from=2026-08-20&date_to=2026-08-21&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.PageMetricsHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Metrics, 1)
	assert.Equal(t, day(20), got.Metrics[0].Date)
}

func TestMetricsHistoryBadDateFrom(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/pages/p-1/metrics/history?date_from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWatchlistInvalidName(t *testing.T) {
	f := newFixture()
	f.watchlists.err = watchlist.ErrInvalidName

	rec := f.do(t, http.MethodPost, "/api/watchlists", `{"name":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateWatchlist(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/watchlists", `{"name":"competitors"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"competitors"`)
}

func TestScanWatchlistNow(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/watchlists/wl-1/scan_now", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pages_queued":3`)
}

func TestGetScanNotFound(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/scans/sc-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddBlacklist(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/blacklist", `{"advertiser_id":"adv-1","reason":"spam"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"adv-1"}, f.blacklist.added)
}

func TestProductInsights(t *testing.T) {
	f := newFixture()
	f.pages.page = &domain.Page{ID: "p-1", State: domain.PageActive}
	avg := 24.9
	f.products.insights = &postgres.ProductInsights{Total: 120, PriceAvg: &avg}

	rec := f.do(t, http.MethodGet, "/api/pages/p-1/products/insights?sort_by=price", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":120`)
}
