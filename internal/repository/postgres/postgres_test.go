package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPageByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM pages WHERE id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	page, err := NewPageRepo(db).PageByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepoLatestScoreDecodesComponents(t *testing.T) {
	db, mock := newMock(t)
	components, _ := json.Marshal(domain.ScoreComponents{
		AdsActivity: 80, Commerce: 90, CreativeQuality: 60, Catalog: 100,
	})
	created := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, page_id, score, components, created_at`).
		WithArgs("page-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "page_id", "score", "components", "created_at"}).
			AddRow("score-1", "page-1", 83.0, components, created))

	score, err := NewScoreRepo(db).LatestScore(context.Background(), "page-1")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 83.0, score.Score)
	assert.Equal(t, 90.0, score.Components.Commerce)
	assert.Equal(t, domain.TierXL, score.Tier())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepoLatestScoreNone(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, page_id, score, components, created_at`).
		WithArgs("page-1").
		WillReturnError(sql.ErrNoRows)

	score, err := NewScoreRepo(db).LatestScore(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestMetricsRepoUpsertSnapshot(t *testing.T) {
	db, mock := newMock(t)
	score := 55.5
	m := &domain.PageDailyMetrics{
		ID:        "m-1",
		PageID:    "page-1",
		Date:      time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		AdsCount:  7,
		ShopScore: &score,
		CreatedAt: time.Now().UTC(),
	}
	mock.ExpectExec(`INSERT INTO page_daily_metrics`).
		WithArgs(m.ID, m.PageID, m.Date, m.AdsCount, m.ShopScore, m.ProductsCount, m.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewMetricsRepo(db).UpsertSnapshot(context.Background(), m))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepoIsBlacklisted(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM blacklisted_pages`).
		WithArgs("adv-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	blocked, err := NewKeywordRepo(db).IsBlacklisted(context.Background(), "adv-1")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestKeywordRepoUpsertPageWithAdsCommitsAtomically(t *testing.T) {
	db, mock := newMock(t)
	page := &domain.Page{
		ID:           "page-1",
		URL:          "https://shop.example",
		Domain:       "shop.example",
		AdvertiserID: "adv-1",
		Name:         "Shop",
		State:        domain.PageDiscovered,
		FirstSeenAt:  time.Now().UTC(),
	}
	title := "Summer sale"
	ad := &domain.Ad{
		ID:          "ad-1",
		PageID:      "page-1",
		MetaAdID:    "meta-1",
		Title:       &title,
		Status:      domain.AdActive,
		FirstSeenAt: time.Now().UTC(),
		LastSeenAt:  time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO pages`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stored-page-id"))
	mock.ExpectExec(`INSERT INTO ads`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewKeywordRepo(db).UpsertPageWithAds(context.Background(), page, []*domain.Ad{ad})
	require.NoError(t, err)
	// Stored id wins so concurrent discovery converges on one row.
	assert.Equal(t, "stored-page-id", page.ID)
	assert.Equal(t, "stored-page-id", ad.PageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepoUpsertAdsRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	page := &domain.Page{ID: "page-1"}
	ad := &domain.Ad{ID: "ad-1", PageID: "page-1", MetaAdID: "meta-1",
		Status: domain.AdActive, FirstSeenAt: time.Now(), LastSeenAt: time.Now()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ads`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := NewScanRepo(db).UpsertAds(context.Background(), page, []*domain.Ad{ad})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchlistRepoRemoveItemReportsMiss(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM watchlist_items`).
		WithArgs("wl-1", "page-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := NewWatchlistRepo(db).RemoveItem(context.Background(), "wl-1", "page-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestProductRepoUpsertBatch(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	batch := []*domain.Product{
		{ID: "pr-1", PageID: "page-1", Handle: "red-shoe",
			Title: "red shoe", URL: "https://shop.example/products/red-shoe",
			Available: true, FirstSeenAt: now, LastSeenAt: now},
		{ID: "pr-2", PageID: "page-1", Handle: "blue-bag",
			Title: "blue bag", URL: "https://shop.example/products/blue-bag",
			Available: true, FirstSeenAt: now, LastSeenAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO products`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO products`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewProductRepo(db).Upsert(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoInsights(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WithArgs("page-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"total", "available", "min", "max", "avg", "new"}).
			AddRow(120, 110, 9.90, 199.0, 42.50, 6))

	ins, err := NewProductRepo(db).Insights(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, 120, ins.Total)
	assert.Equal(t, 110, ins.Available)
	require.NotNil(t, ins.PriceAvg)
	assert.Equal(t, 42.50, *ins.PriceAvg)
	assert.Equal(t, 6, ins.NewLast7Days)
}

func TestRankedRepoFiltersAndDerivesTier(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM (`)).
		WithArgs(70.0, 85.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT latest.page_id, latest.score`).
		WithArgs(70.0, 85.0, 50, 0).
		WillReturnRows(sqlmock.NewRows(
			[]string{"page_id", "score", "url", "country", "name"}).
			AddRow("p1", 84.0, "https://a.example", "FR", "A").
			AddRow("p2", 71.5, "https://b.example", "DE", "B"))

	res, err := NewRankedRepo(db).RankedShops(context.Background(), domain.RankingCriteria{
		Limit: 50, Tier: domain.TierXL,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, domain.TierXL, res.Items[0].Tier)
	assert.False(t, res.HasMore())
	assert.NoError(t, mock.ExpectationsWereMet())
}
