package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// maxNameLen bounds watchlist names.
const maxNameLen = 120

var (
	ErrWatchlistNotFound = errors.New("watchlist: not found")
	ErrPageNotFound      = errors.New("watchlist: page not found")
	ErrInvalidName       = errors.New("watchlist: invalid name")
)

// Repository is the persistence port for watchlists. Lookups return
// (nil, nil) when the row does not exist.
type Repository interface {
	SaveWatchlist(ctx context.Context, wl *domain.Watchlist) error
	WatchlistByID(ctx context.Context, id string) (*domain.Watchlist, error)
	Watchlists(ctx context.Context) ([]*domain.Watchlist, error)
	DeleteWatchlist(ctx context.Context, id string) error

	// AddItem is idempotent on the (watchlist_id, page_id) pair.
	AddItem(ctx context.Context, item *domain.WatchlistItem) error
	// RemoveItem reports whether an item was actually deleted.
	RemoveItem(ctx context.Context, watchlistID, pageID string) (bool, error)
	Items(ctx context.Context, watchlistID string) ([]*domain.WatchlistItem, error)

	PageExists(ctx context.Context, pageID string) (bool, error)
}

// Dispatcher enqueues rescore tasks.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskName string, payload any) error
}

// ScanNowResult reports a bulk rescore dispatch.
type ScanNowResult struct {
	PagesQueued int `json:"pages_queued"`
	Failures    int `json:"failures"`
}

// Service manages watchlists.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService creates a watchlist service.
func NewService(repo Repository, dispatcher Dispatcher) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, now: time.Now}
}

// Create makes a new, empty watchlist.
func (s *Service) Create(ctx context.Context, name string) (*domain.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	now := s.now().UTC()
	wl := &domain.Watchlist{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveWatchlist(ctx, wl); err != nil {
		return nil, fmt.Errorf("creating watchlist: %w", err)
	}
	return wl, nil
}

// List returns all watchlists.
func (s *Service) List(ctx context.Context) ([]*domain.Watchlist, error) {
	return s.repo.Watchlists(ctx)
}

// Get returns one watchlist with its items.
func (s *Service) Get(ctx context.Context, id string) (*domain.Watchlist, []*domain.WatchlistItem, error) {
	wl, err := s.repo.WatchlistByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if wl == nil {
		return nil, nil, ErrWatchlistNotFound
	}
	items, err := s.repo.Items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return wl, items, nil
}

// Delete removes a watchlist and its items.
func (s *Service) Delete(ctx context.Context, id string) error {
	wl, err := s.repo.WatchlistByID(ctx, id)
	if err != nil {
		return err
	}
	if wl == nil {
		return ErrWatchlistNotFound
	}
	return s.repo.DeleteWatchlist(ctx, id)
}

// AddPage links a page into the watchlist. Adding an already-linked
// page is a no-op.
func (s *Service) AddPage(ctx context.Context, watchlistID, pageID string) error {
	wl, err := s.repo.WatchlistByID(ctx, watchlistID)
	if err != nil {
		return err
	}
	if wl == nil {
		return ErrWatchlistNotFound
	}
	exists, err := s.repo.PageExists(ctx, pageID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPageNotFound
	}
	item := &domain.WatchlistItem{
		WatchlistID: watchlistID,
		PageID:      pageID,
		AddedAt:     s.now().UTC(),
	}
	return s.repo.AddItem(ctx, item)
}

// RemovePage unlinks a page from the watchlist. A missing item should
// be unreachable under the unique pair constraint, so it is logged
// rather than surfaced.
func (s *Service) RemovePage(ctx context.Context, watchlistID, pageID string) error {
	wl, err := s.repo.WatchlistByID(ctx, watchlistID)
	if err != nil {
		return err
	}
	if wl == nil {
		return ErrWatchlistNotFound
	}
	removed, err := s.repo.RemoveItem(ctx, watchlistID, pageID)
	if err != nil {
		return err
	}
	if !removed {
		logger.Warn("watchlist item missing on removal",
			"watchlist_id", watchlistID, "page_id", pageID)
	}
	return nil
}

// ScanNow enqueues a score recomputation for every member page.
// Per-page dispatch failures are counted, not fatal.
func (s *Service) ScanNow(ctx context.Context, watchlistID string) (*ScanNowResult, error) {
	wl, err := s.repo.WatchlistByID(ctx, watchlistID)
	if err != nil {
		return nil, err
	}
	if wl == nil {
		return nil, ErrWatchlistNotFound
	}
	items, err := s.repo.Items(ctx, watchlistID)
	if err != nil {
		return nil, err
	}

	res := &ScanNowResult{}
	for _, item := range items {
		payload := tasks.ComputeShopScorePayload{PageID: item.PageID}
		if err := s.dispatcher.Enqueue(ctx, tasks.ComputeShopScore, payload); err != nil {
			logger.Warn("failed to enqueue rescore",
				"watchlist_id", watchlistID, "page_id", item.PageID, "error", err)
			res.Failures++
			continue
		}
		res.PagesQueued++
	}
	logger.Info("watchlist rescore dispatched",
		"watchlist_id", watchlistID,
		"pages_queued", res.PagesQueued,
		"failures", res.Failures)
	return res, nil
}
