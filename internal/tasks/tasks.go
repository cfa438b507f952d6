// Package tasks names the queue task types and their payloads. Both the
// services that enqueue work and the worker runtime that executes it
// depend on this package, nothing else.
package tasks

// Task names as stored in the queue.
const (
	ScanPage                = "scan_page"
	AnalyseWebsite          = "analyse_website"
	CountSitemapProducts    = "count_sitemap_products"
	ComputeShopScore        = "compute_shop_score"
	AnalyzeCreativesForPage = "analyze_creatives_for_page"
	SnapshotDailyMetrics    = "snapshot_daily_metrics"
)

// ScanPagePayload asks for a deep ads scan of one page.
type ScanPagePayload struct {
	PageID  string `json:"page_id"`
	Country string `json:"country"`
	ScanID  string `json:"scan_id,omitempty"`
}

// AnalyseWebsitePayload asks for commerce fingerprinting of a URL.
type AnalyseWebsitePayload struct {
	PageID string `json:"page_id"`
	URL    string `json:"url"`
}

// CountSitemapProductsPayload asks for catalog sizing.
type CountSitemapProductsPayload struct {
	PageID  string `json:"page_id"`
	URL     string `json:"url"`
	Country string `json:"country"`
}

// ComputeShopScorePayload asks for a score recomputation.
type ComputeShopScorePayload struct {
	PageID string `json:"page_id"`
}

// AnalyzeCreativesPayload asks for creative analysis of a page's ads.
type AnalyzeCreativesPayload struct {
	PageID string `json:"page_id"`
}

// SnapshotPayload asks for a daily metrics snapshot run.
type SnapshotPayload struct {
	Date string `json:"date"` // YYYY-MM-DD; empty means today
}
