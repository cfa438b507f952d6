package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
	"github.com/shopradar/ads-monitor/internal/service/keywordsearch"
)

type keywordSearchRequest struct {
	Keyword  string `json:"keyword"`
	Country  string `json:"country"`
	Language string `json:"language,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// SearchKeywords runs the discovery stage for one keyword and returns
// the run summary. The heavy per-page analysis continues asynchronously
// on the task queue.
func (h *Handlers) SearchKeywords(w http.ResponseWriter, r *http.Request) {
	var req keywordSearchRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.search.Execute(r.Context(), keywordsearch.Params{
		Keyword:  req.Keyword,
		Country:  req.Country,
		Language: req.Language,
		Limit:    req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

type blacklistRequest struct {
	AdvertiserID string `json:"advertiser_id"`
	Reason       string `json:"reason,omitempty"`
}

// AddBlacklist excludes an advertiser from future keyword runs.
func (h *Handlers) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AdvertiserID == "" {
		httputil.BadRequest(w, "advertiser_id is required")
		return
	}
	if err := h.blacklist.Blacklist(r.Context(), req.AdvertiserID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"advertiser_id": req.AdvertiserID})
}

// RemoveBlacklist lifts an advertiser exclusion.
func (h *Handlers) RemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	advertiserID := chi.URLParam(r, "advertiser_id")
	if err := h.blacklist.Unblacklist(r.Context(), advertiserID); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}
