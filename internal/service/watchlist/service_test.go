package watchlist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

type fakeRepo struct {
	lists map[string]*domain.Watchlist
	items map[string][]*domain.WatchlistItem
	pages map[string]bool

	removeReturns bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lists:         map[string]*domain.Watchlist{},
		items:         map[string][]*domain.WatchlistItem{},
		pages:         map[string]bool{},
		removeReturns: true,
	}
}

func (f *fakeRepo) SaveWatchlist(_ context.Context, wl *domain.Watchlist) error {
	f.lists[wl.ID] = wl
	return nil
}

func (f *fakeRepo) WatchlistByID(_ context.Context, id string) (*domain.Watchlist, error) {
	return f.lists[id], nil
}

func (f *fakeRepo) Watchlists(_ context.Context) ([]*domain.Watchlist, error) {
	var out []*domain.Watchlist
	for _, wl := range f.lists {
		out = append(out, wl)
	}
	return out, nil
}

func (f *fakeRepo) DeleteWatchlist(_ context.Context, id string) error {
	delete(f.lists, id)
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) AddItem(_ context.Context, item *domain.WatchlistItem) error {
	for _, existing := range f.items[item.WatchlistID] {
		if existing.PageID == item.PageID {
			return nil
		}
	}
	f.items[item.WatchlistID] = append(f.items[item.WatchlistID], item)
	return nil
}

func (f *fakeRepo) RemoveItem(_ context.Context, watchlistID, pageID string) (bool, error) {
	return f.removeReturns, nil
}

func (f *fakeRepo) Items(_ context.Context, watchlistID string) ([]*domain.WatchlistItem, error) {
	return f.items[watchlistID], nil
}

func (f *fakeRepo) PageExists(_ context.Context, pageID string) (bool, error) {
	return f.pages[pageID], nil
}

type fakeDispatcher struct {
	names    []string
	payloads []any
	failOn   string
}

func (f *fakeDispatcher) Enqueue(_ context.Context, name string, payload any) error {
	if p, ok := payload.(tasks.ComputeShopScorePayload); ok && p.PageID == f.failOn {
		return errors.New("queue unavailable")
	}
	f.names = append(f.names, name)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestCreateAndGet(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeDispatcher{})

	wl, err := svc.Create(context.Background(), "  Q4 competitors  ")
	require.NoError(t, err)
	assert.Equal(t, "Q4 competitors", wl.Name)
	assert.NotEmpty(t, wl.ID)

	got, items, err := svc.Get(context.Background(), wl.ID)
	require.NoError(t, err)
	assert.Equal(t, wl.ID, got.ID)
	assert.Empty(t, items)
}

func TestCreateRejectsBadNames(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeDispatcher{})

	_, err := svc.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Create(context.Background(), strings.Repeat("x", 121))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestAddPage(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeDispatcher{})
	wl, err := svc.Create(context.Background(), "tracked")
	require.NoError(t, err)
	repo.pages["page-1"] = true

	require.NoError(t, svc.AddPage(context.Background(), wl.ID, "page-1"))
	// Re-adding the same page is a no-op.
	require.NoError(t, svc.AddPage(context.Background(), wl.ID, "page-1"))
	assert.Len(t, repo.items[wl.ID], 1)

	assert.ErrorIs(t, svc.AddPage(context.Background(), wl.ID, "ghost"), ErrPageNotFound)
	assert.ErrorIs(t, svc.AddPage(context.Background(), "missing", "page-1"), ErrWatchlistNotFound)
}

func TestRemovePageMissingItemIsNotAnError(t *testing.T) {
	repo := newFakeRepo()
	repo.removeReturns = false
	svc := NewService(repo, &fakeDispatcher{})
	wl, err := svc.Create(context.Background(), "tracked")
	require.NoError(t, err)

	assert.NoError(t, svc.RemovePage(context.Background(), wl.ID, "never-added"))
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeDispatcher{})
	wl, err := svc.Create(context.Background(), "tracked")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), wl.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), wl.ID), ErrWatchlistNotFound)
}

func TestScanNowQueuesEveryMember(t *testing.T) {
	repo := newFakeRepo()
	disp := &fakeDispatcher{}
	svc := NewService(repo, disp)
	wl, err := svc.Create(context.Background(), "tracked")
	require.NoError(t, err)
	for _, id := range []string{"page-1", "page-2", "page-3"} {
		repo.pages[id] = true
		require.NoError(t, svc.AddPage(context.Background(), wl.ID, id))
	}

	res, err := svc.ScanNow(context.Background(), wl.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.PagesQueued)
	assert.Equal(t, 0, res.Failures)
	require.Len(t, disp.names, 3)
	assert.Equal(t, tasks.ComputeShopScore, disp.names[0])
	assert.Equal(t, tasks.ComputeShopScorePayload{PageID: "page-1"}, disp.payloads[0])
}

func TestScanNowCountsDispatchFailures(t *testing.T) {
	repo := newFakeRepo()
	disp := &fakeDispatcher{failOn: "page-2"}
	svc := NewService(repo, disp)
	wl, err := svc.Create(context.Background(), "tracked")
	require.NoError(t, err)
	for _, id := range []string{"page-1", "page-2", "page-3"} {
		repo.pages[id] = true
		require.NoError(t, svc.AddPage(context.Background(), wl.ID, id))
	}

	res, err := svc.ScanNow(context.Background(), wl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PagesQueued)
	assert.Equal(t, 1, res.Failures)
}

func TestScanNowUnknownWatchlist(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeDispatcher{})
	_, err := svc.ScanNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrWatchlistNotFound)
}
