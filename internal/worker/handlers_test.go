package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/service/catalog"
	"github.com/shopradar/ads-monitor/internal/service/pageanalysis"
	"github.com/shopradar/ads-monitor/internal/service/siteanalysis"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

type calls struct {
	scans     []string
	sites     []string
	catalogs  []string
	scores    []string
	creatives []string
	snapshots []time.Time

	enqueued []string
	scanErr  error
	scoreErr error
	enqErr   error
}

func (c *calls) Execute(_ context.Context, pageID, country, scanID string) (*pageanalysis.Result, error) {
	c.scans = append(c.scans, pageID)
	return &pageanalysis.Result{}, c.scanErr
}

type siteCalls struct{ c *calls }

func (s siteCalls) Execute(_ context.Context, pageID, _ string) (*siteanalysis.Result, error) {
	s.c.sites = append(s.c.sites, pageID)
	return &siteanalysis.Result{}, nil
}

type catalogCalls struct{ c *calls }

func (s catalogCalls) Execute(_ context.Context, pageID, _, _ string) (*catalog.Result, error) {
	s.c.catalogs = append(s.c.catalogs, pageID)
	return &catalog.Result{}, nil
}

type scoreCalls struct{ c *calls }

func (s scoreCalls) ComputeForPage(_ context.Context, pageID string) (*domain.ShopScore, error) {
	s.c.scores = append(s.c.scores, pageID)
	return &domain.ShopScore{PageID: pageID}, s.c.scoreErr
}

type creativeCalls struct{ c *calls }

func (s creativeCalls) AnalyzePage(_ context.Context, pageID string) (*creative.PageResult, error) {
	s.c.creatives = append(s.c.creatives, pageID)
	return &creative.PageResult{}, nil
}

type snapshotCalls struct{ c *calls }

func (s snapshotCalls) Snapshot(_ context.Context, date time.Time) (*history.SnapshotResult, error) {
	s.c.snapshots = append(s.c.snapshots, date)
	return &history.SnapshotResult{Date: date.Format("2006-01-02")}, nil
}

func (c *calls) Enqueue(_ context.Context, name string, _ any) error {
	if c.enqErr != nil {
		return c.enqErr
	}
	c.enqueued = append(c.enqueued, name)
	return nil
}

func testDeps(c *calls) Deps {
	return Deps{
		PageScanner:      c,
		SiteAnalyzer:     siteCalls{c},
		CatalogSizer:     catalogCalls{c},
		ScoreComputer:    scoreCalls{c},
		CreativeAnalyzer: creativeCalls{c},
		Snapshotter:      snapshotCalls{c},
		Enqueuer:         c,
	}
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestScanPageChainsCreativeAnalysis(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleScanPage(context.Background(),
		payload(t, tasks.ScanPagePayload{PageID: "page-1", Country: "FR"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1"}, c.scans)
	assert.Equal(t, []string{tasks.AnalyzeCreativesForPage}, c.enqueued)
}

func TestScanPageFailurePropagates(t *testing.T) {
	c := &calls{scanErr: errors.New("library down")}
	d := testDeps(c)

	err := d.handleScanPage(context.Background(),
		payload(t, tasks.ScanPagePayload{PageID: "page-1"}))
	require.Error(t, err)
	assert.Empty(t, c.enqueued)
}

func TestScanPageChainFailureNonFatal(t *testing.T) {
	c := &calls{enqErr: errors.New("queue full")}
	d := testDeps(c)

	err := d.handleScanPage(context.Background(),
		payload(t, tasks.ScanPagePayload{PageID: "page-1"}))
	assert.NoError(t, err)
}

func TestCountSitemapProductsChainsScore(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleCountSitemapProducts(context.Background(),
		payload(t, tasks.CountSitemapProductsPayload{
			PageID: "page-1", URL: "https://shop.example", Country: "FR",
		}))
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1"}, c.catalogs)
	assert.Equal(t, []string{tasks.ComputeShopScore}, c.enqueued)
}

func TestComputeShopScore(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleComputeShopScore(context.Background(),
		payload(t, tasks.ComputeShopScorePayload{PageID: "page-1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1"}, c.scores)
}

func TestSnapshotParsesDate(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleSnapshot(context.Background(),
		payload(t, tasks.SnapshotPayload{Date: "2026-08-25"}))
	require.NoError(t, err)
	require.Len(t, c.snapshots, 1)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), c.snapshots[0])
}

func TestSnapshotRejectsBadDate(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleSnapshot(context.Background(),
		payload(t, tasks.SnapshotPayload{Date: "08/25/2026"}))
	assert.Error(t, err)
	assert.Empty(t, c.snapshots)
}

func TestMalformedPayloadFailsFast(t *testing.T) {
	c := &calls{}
	d := testDeps(c)

	err := d.handleAnalyseWebsite(context.Background(), json.RawMessage(`{"page_id":3}`))
	assert.Error(t, err)
	assert.Empty(t, c.sites)
}
