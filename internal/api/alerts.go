package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
)

// ListAlerts returns the most recent alerts across all pages.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 50)
	if !ok {
		return
	}
	alerts, err := h.alerts.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"items": alerts})
}

// PageAlerts returns the alert history for one page, newest first.
func (h *Handlers) PageAlerts(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "page_id")
	limit, ok := queryInt(w, r, "limit", 50)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if notFound := h.requirePage(w, r, pageID); notFound {
		return
	}
	alerts, err := h.alerts.ByPage(r.Context(), pageID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"page_id": pageID, "items": alerts})
}
