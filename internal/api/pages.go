package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
	"github.com/shopradar/ads-monitor/internal/repository/postgres"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// listResponse is the shared paginated envelope.
type listResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListPages returns tracked pages, filterable by state and country.
func (h *Handlers) ListPages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 50)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	f := postgres.PageFilter{
		State:   r.URL.Query().Get("state"),
		Country: r.URL.Query().Get("country"),
		Limit:   limit,
		Offset:  offset,
	}
	items, total, err := h.pages.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, listResponse{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// pageDetail bundles a page with its commerce profile when one exists.
type pageDetail struct {
	*domain.Page
	Profile *domain.CommerceProfile `json:"profile,omitempty"`
}

// GetPage returns one page with its commerce profile.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := h.pages.PageByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if page == nil {
		httputil.NotFound(w, "page not found")
		return
	}
	detail := pageDetail{Page: page}
	if page.ProfileID != nil {
		if profile, err := h.pages.ProfileByPage(r.Context(), page.ID); err == nil {
			detail.Profile = profile
		}
	}
	httputil.OK(w, detail)
}

// RankedPages serves the ranked read model with tier/score/country
// filters.
func (h *Handlers) RankedPages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	c := domain.RankingCriteria{
		Limit:   limit,
		Offset:  offset,
		Tier:    domain.Tier(r.URL.Query().Get("tier")),
		Country: r.URL.Query().Get("country"),
	}
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.BadRequest(w, "invalid min_score: "+raw)
			return
		}
		c.MinScore = &minScore
	}

	res, err := h.ranker.Rank(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// TopPages returns the best-scored shops overall.
func (h *Handlers) TopPages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	items, err := h.ranker.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"items": items})
}

// GetScore returns the latest score observation with its derived tier.
func (h *Handlers) GetScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	score, err := h.scores.LatestScore(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if score == nil {
		httputil.NotFound(w, "no score computed for this page")
		return
	}
	httputil.OK(w, map[string]any{
		"id":         score.ID,
		"page_id":    score.PageID,
		"score":      score.Score,
		"tier":       score.Tier(),
		"components": score.Components,
		"created_at": score.CreatedAt,
	})
}

// RecomputeScore enqueues a fresh score computation for the page.
func (h *Handlers) RecomputeScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := h.pages.PageByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if page == nil {
		httputil.NotFound(w, "page not found")
		return
	}
	payload := tasks.ComputeShopScorePayload{PageID: page.ID}
	if err := h.enqueuer.Enqueue(r.Context(), tasks.ComputeShopScore, payload); err != nil {
		httputil.Error(w, http.StatusServiceUnavailable, "task queue unavailable")
		return
	}
	httputil.Accepted(w, map[string]string{"status": "queued", "page_id": page.ID})
}

// MetricsHistory returns the daily snapshot series for a page, oldest
// first. The window is either days back from today or an explicit
// date_from/date_to range; limit truncates the series.
func (h *Handlers) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days, ok := queryInt(w, r, "days", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	var dateTo time.Time
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.BadRequest(w, "date_to must be YYYY-MM-DD")
			return
		}
		dateTo = to
	}
	if raw := r.URL.Query().Get("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.BadRequest(w, "date_from must be YYYY-MM-DD")
			return
		}
		days = int(time.Now().UTC().Truncate(24*time.Hour).Sub(from).Hours()/24) + 1
	}

	hist, err := h.historian.History(r.Context(), id, days)
	if err != nil {
		writeError(w, err)
		return
	}
	if !dateTo.IsZero() {
		kept := hist.Metrics[:0]
		for _, m := range hist.Metrics {
			if !m.Date.After(dateTo) {
				kept = append(kept, m)
			}
		}
		hist.Metrics = kept
	}
	if limit > 0 && len(hist.Metrics) > limit {
		hist.Metrics = hist.Metrics[:limit]
	}
	httputil.OK(w, hist)
}

// ListProducts returns the page's catalog entries.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, ok := queryInt(w, r, "limit", 50)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if notFound := h.requirePage(w, r, id); notFound {
		return
	}
	items, total, err := h.products.ByPage(r.Context(), id, r.URL.Query().Get("sort_by"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// ProductInsights returns catalog aggregates plus a sorted sample.
func (h *Handlers) ProductInsights(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, ok := queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if notFound := h.requirePage(w, r, id); notFound {
		return
	}
	insights, err := h.products.Insights(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	items, _, err := h.products.ByPage(r.Context(), id, r.URL.Query().Get("sort_by"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"page_id":  id,
		"insights": insights,
		"items":    items,
	})
}

// CreativeSummary aggregates the stored creative analyses for a page.
func (h *Handlers) CreativeSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if notFound := h.requirePage(w, r, id); notFound {
		return
	}
	summary, err := h.creatives.SummarizePage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, summary)
}

// requirePage writes a 404/500 and reports true when the page cannot
// serve the request.
func (h *Handlers) requirePage(w http.ResponseWriter, r *http.Request, id string) bool {
	page, err := h.pages.PageByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return true
	}
	if page == nil {
		httputil.NotFound(w, "page not found")
		return true
	}
	return false
}
