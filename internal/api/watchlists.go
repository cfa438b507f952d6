package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
)

type createWatchlistRequest struct {
	Name string `json:"name"`
}

// CreateWatchlist creates a named page collection.
func (h *Handlers) CreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var req createWatchlistRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	wl, err := h.watchlists.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, wl)
}

// ListWatchlists returns every watchlist.
func (h *Handlers) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.watchlists.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"items": lists})
}

// GetWatchlist returns one watchlist with its items.
func (h *Handlers) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wl, items, err := h.watchlists.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"watchlist": wl, "items": items})
}

// DeleteWatchlist removes a watchlist and its items.
func (h *Handlers) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlists.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

type addWatchlistItemRequest struct {
	PageID string `json:"page_id"`
}

// AddWatchlistItem links a page into a watchlist. Idempotent.
func (h *Handlers) AddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistItemRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.PageID == "" {
		httputil.BadRequest(w, "page_id is required")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.watchlists.AddPage(r.Context(), id, req.PageID); err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"watchlist_id": id, "page_id": req.PageID})
}

// RemoveWatchlistItem unlinks a page from a watchlist.
func (h *Handlers) RemoveWatchlistItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "page_id")
	if err := h.watchlists.RemovePage(r.Context(), id, pageID); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ScanWatchlistNow queues a fresh score computation for every page in
// the watchlist.
func (h *Handlers) ScanWatchlistNow(w http.ResponseWriter, r *http.Request) {
	res, err := h.watchlists.ScanNow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Accepted(w, res)
}
