package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// WatchlistRepo backs watchlist management.
type WatchlistRepo struct{ db *sql.DB }

// NewWatchlistRepo creates a Postgres-backed watchlist repository.
func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{db: db} }

func (r *WatchlistRepo) SaveWatchlist(ctx context.Context, wl *domain.Watchlist) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlists (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, wl.ID, wl.Name, wl.CreatedAt, wl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}

// WatchlistByID returns (nil, nil) when the watchlist does not exist.
func (r *WatchlistRepo) WatchlistByID(ctx context.Context, id string) (*domain.Watchlist, error) {
	wl := &domain.Watchlist{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM watchlists WHERE id = $1
	`, id).Scan(&wl.ID, &wl.Name, &wl.CreatedAt, &wl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist: %w", err)
	}
	return wl, nil
}

func (r *WatchlistRepo) Watchlists(ctx context.Context) ([]*domain.Watchlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM watchlists ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list watchlists: %w", err)
	}
	defer rows.Close()

	var out []*domain.Watchlist
	for rows.Next() {
		wl := &domain.Watchlist{}
		if err := rows.Scan(&wl.ID, &wl.Name, &wl.CreatedAt, &wl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		out = append(out, wl)
	}
	return out, rows.Err()
}

func (r *WatchlistRepo) DeleteWatchlist(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM watchlist_items WHERE watchlist_id = $1`, id); err != nil {
		return fmt.Errorf("delete watchlist items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM watchlists WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete watchlist: %w", err)
	}
	return tx.Commit()
}

// AddItem is idempotent on the (watchlist_id, page_id) pair.
func (r *WatchlistRepo) AddItem(ctx context.Context, item *domain.WatchlistItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist_items (watchlist_id, page_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (watchlist_id, page_id) DO NOTHING
	`, item.WatchlistID, item.PageID, item.AddedAt)
	if err != nil {
		return fmt.Errorf("add watchlist item: %w", err)
	}
	return nil
}

// RemoveItem reports whether an item was actually deleted.
func (r *WatchlistRepo) RemoveItem(ctx context.Context, watchlistID, pageID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watchlist_items WHERE watchlist_id = $1 AND page_id = $2
	`, watchlistID, pageID)
	if err != nil {
		return false, fmt.Errorf("remove watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *WatchlistRepo) Items(ctx context.Context, watchlistID string) ([]*domain.WatchlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT watchlist_id, page_id, added_at
		FROM watchlist_items
		WHERE watchlist_id = $1
		ORDER BY added_at
	`, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist items: %w", err)
	}
	defer rows.Close()

	var out []*domain.WatchlistItem
	for rows.Next() {
		item := &domain.WatchlistItem{}
		if err := rows.Scan(&item.WatchlistID, &item.PageID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *WatchlistRepo) PageExists(ctx context.Context, pageID string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE id = $1`, pageID).Scan(&n); err != nil {
		return false, fmt.Errorf("page exists: %w", err)
	}
	return n > 0, nil
}
