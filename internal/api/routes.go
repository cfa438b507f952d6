package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router: health unauthenticated at the
// root, everything else under /api.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/pages", func(r chi.Router) {
			r.Get("/", h.ListPages)
			r.Get("/ranked", h.RankedPages)
			r.Get("/top", h.TopPages)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPage)
				r.Get("/score", h.GetScore)
				r.Post("/score/recompute", h.RecomputeScore)
				r.Get("/metrics/history", h.MetricsHistory)
				r.Get("/products", h.ListProducts)
				r.Get("/products/insights", h.ProductInsights)
				r.Get("/creatives/summary", h.CreativeSummary)
			})
		})

		r.Get("/scans/{id}", h.GetScan)

		r.Post("/keywords/search", h.SearchKeywords)

		r.Post("/blacklist", h.AddBlacklist)
		r.Delete("/blacklist/{advertiser_id}", h.RemoveBlacklist)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Get("/{page_id}", h.PageAlerts)
		})

		r.Route("/watchlists", func(r chi.Router) {
			r.Post("/", h.CreateWatchlist)
			r.Get("/", h.ListWatchlists)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWatchlist)
				r.Delete("/", h.DeleteWatchlist)
				r.Post("/items", h.AddWatchlistItem)
				r.Delete("/items/{page_id}", h.RemoveWatchlistItem)
				r.Post("/scan_now", h.ScanWatchlistNow)
			})
		})
	})

	return r
}
