package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
)

// GetScan returns one scan record with its status and result payload.
func (h *Handlers) GetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scan, err := h.scans.ScanByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if scan == nil {
		httputil.NotFound(w, "scan not found")
		return
	}
	httputil.OK(w, scan)
}
