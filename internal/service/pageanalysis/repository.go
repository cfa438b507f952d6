package pageanalysis

import (
	"context"
	"errors"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/domain"
)

// ErrPageNotFound is returned when the scanned page does not exist.
var ErrPageNotFound = errors.New("pageanalysis: page not found")

// AdsLibrary is the per-page lookup capability of the ads-library port.
type AdsLibrary interface {
	Search(ctx context.Context, p adslib.SearchParams) ([]adslib.RawAd, error)
}

// Repository is the persistence port for deep page scans.
type Repository interface {
	PageByID(ctx context.Context, pageID string) (*domain.Page, error)
	SaveScan(ctx context.Context, scan *domain.Scan) error
	UpdateScan(ctx context.Context, scan *domain.Scan) error
	// UpsertAds writes the batch and refreshes the page's ad counters
	// in the same transaction.
	UpsertAds(ctx context.Context, page *domain.Page, ads []*domain.Ad) error
}

// Dispatcher enqueues follow-up pipeline tasks.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskName string, payload any) error
}
