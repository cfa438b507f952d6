// Package api exposes the monitoring platform over HTTP: page and
// score read models, keyword search, alerts, watchlists and the
// product/creative insight endpoints.
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/pkg/httputil"
	"github.com/shopradar/ads-monitor/internal/repository/postgres"
	"github.com/shopradar/ads-monitor/internal/scoring"
	"github.com/shopradar/ads-monitor/internal/scraper"
	"github.com/shopradar/ads-monitor/internal/service/keywordsearch"
	"github.com/shopradar/ads-monitor/internal/service/watchlist"
)

// Ports into the use-case layer. One narrow interface per concern so
// handler tests can fake them independently.
type (
	KeywordSearcher interface {
		Execute(ctx context.Context, p keywordsearch.Params) (*keywordsearch.Result, error)
	}
	Ranker interface {
		Rank(ctx context.Context, c domain.RankingCriteria) (*domain.RankedShopsResult, error)
		Top(ctx context.Context, n int) ([]domain.RankedShop, error)
	}
	Historian interface {
		History(ctx context.Context, pageID string, days int) (*domain.PageMetricsHistory, error)
	}
	CreativeSummarizer interface {
		SummarizePage(ctx context.Context, pageID string) (*creative.Summary, error)
	}
	WatchlistManager interface {
		Create(ctx context.Context, name string) (*domain.Watchlist, error)
		List(ctx context.Context) ([]*domain.Watchlist, error)
		Get(ctx context.Context, id string) (*domain.Watchlist, []*domain.WatchlistItem, error)
		Delete(ctx context.Context, id string) error
		AddPage(ctx context.Context, watchlistID, pageID string) error
		RemovePage(ctx context.Context, watchlistID, pageID string) error
		ScanNow(ctx context.Context, watchlistID string) (*watchlist.ScanNowResult, error)
	}
	PageStore interface {
		PageByID(ctx context.Context, id string) (*domain.Page, error)
		ProfileByPage(ctx context.Context, pageID string) (*domain.CommerceProfile, error)
		List(ctx context.Context, f postgres.PageFilter) ([]domain.Page, int, error)
	}
	ScanStore interface {
		ScanByID(ctx context.Context, id string) (*domain.Scan, error)
	}
	ScoreStore interface {
		LatestScore(ctx context.Context, pageID string) (*domain.ShopScore, error)
	}
	AlertStore interface {
		Recent(ctx context.Context, limit int) ([]domain.Alert, error)
		ByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Alert, error)
	}
	ProductStore interface {
		ByPage(ctx context.Context, pageID, sortBy string, limit, offset int) ([]domain.Product, int, error)
		Insights(ctx context.Context, pageID string) (*postgres.ProductInsights, error)
	}
	BlacklistStore interface {
		Blacklist(ctx context.Context, advertiserID, reason string) error
		Unblacklist(ctx context.Context, advertiserID string) error
	}
	Enqueuer interface {
		Enqueue(ctx context.Context, taskName string, payload any) error
	}
)

// Handlers carries every dependency the HTTP layer needs.
type Handlers struct {
	search     KeywordSearcher
	ranker     Ranker
	historian  Historian
	creatives  CreativeSummarizer
	watchlists WatchlistManager
	pages      PageStore
	scans      ScanStore
	scores     ScoreStore
	alerts     AlertStore
	products   ProductStore
	blacklist  BlacklistStore
	enqueuer   Enqueuer
	db         *sql.DB
}

// NewHandlers wires the HTTP layer. db may be nil in tests; the health
// endpoint then skips its probes.
func NewHandlers(
	search KeywordSearcher,
	ranker Ranker,
	historian Historian,
	creatives CreativeSummarizer,
	watchlists WatchlistManager,
	pages PageStore,
	scans ScanStore,
	scores ScoreStore,
	alerts AlertStore,
	products ProductStore,
	blacklist BlacklistStore,
	enqueuer Enqueuer,
	db *sql.DB,
) *Handlers {
	return &Handlers{
		search:     search,
		ranker:     ranker,
		historian:  historian,
		creatives:  creatives,
		watchlists: watchlists,
		pages:      pages,
		scans:      scans,
		scores:     scores,
		alerts:     alerts,
		products:   products,
		blacklist:  blacklist,
		enqueuer:   enqueuer,
		db:         db,
	}
}

// HealthCheck reports process liveness plus DB and queue-depth probes.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.db == nil {
		httputil.OK(w, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "down"
		httputil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["database"] = "up"

	var depth int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analysis_tasks WHERE status = 'pending'`).Scan(&depth); err == nil {
		resp["queue_depth"] = depth
	}
	httputil.OK(w, resp)
}

// validationErrs are local input problems surfaced as 422.
var validationErrs = []error{
	domain.ErrInvalidURL,
	domain.ErrInvalidCountry,
	domain.ErrInvalidLanguage,
	domain.ErrInvalidCurrency,
	domain.ErrInvalidCategory,
	domain.ErrInvalidProductCount,
	domain.ErrInvalidScanID,
	domain.ErrInvalidPaymentMethod,
	domain.ErrInvalidRanking,
	domain.ErrInvalidTier,
	domain.ErrInvalidStateTransition,
	keywordsearch.ErrInvalidKeyword,
	watchlist.ErrInvalidName,
}

// notFoundErrs are entity lookup misses surfaced as 404.
var notFoundErrs = []error{
	history.ErrPageNotFound,
	scoring.ErrPageNotFound,
	watchlist.ErrWatchlistNotFound,
	watchlist.ErrPageNotFound,
	creative.ErrAdNotFound,
}

// writeError maps an error from the use-case layer to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	var rle *adslib.RateLimitError
	switch {
	case errors.As(err, &rle):
		httputil.TooManyRequests(w, rle.RetryAfter, "ads library rate limited")
	case errors.Is(err, adslib.ErrTimeout):
		httputil.Error(w, http.StatusGatewayTimeout, "ads library timed out")
	case errors.Is(err, adslib.ErrAuth):
		httputil.Error(w, http.StatusUnauthorized, "ads library rejected credentials")
	case errors.Is(err, adslib.ErrUpstream):
		httputil.Error(w, http.StatusBadGateway, "ads library unavailable")
	case errors.Is(err, scraper.ErrBlocked):
		httputil.Error(w, http.StatusForbidden, "target site refused the probe")
	case matchesAny(err, notFoundErrs):
		httputil.NotFound(w, err.Error())
	case matchesAny(err, validationErrs):
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// queryInt parses an integer query parameter, falling back to def when
// absent. Returns ok=false (after writing a 400) on garbage.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		httputil.BadRequest(w, "invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}
