package keywordsearch

import (
	"context"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/domain"
)

// AdsLibrary is the search capability of the ads-library port.
type AdsLibrary interface {
	Search(ctx context.Context, p adslib.SearchParams) ([]adslib.RawAd, error)
}

// Repository is the persistence port for keyword runs and discovery.
type Repository interface {
	SaveRun(ctx context.Context, run *domain.KeywordRun) error
	UpdateRun(ctx context.Context, run *domain.KeywordRun) error

	// PageByAdvertiserID returns (nil, nil) when the advertiser has no
	// tracked page yet.
	PageByAdvertiserID(ctx context.Context, advertiserID string) (*domain.Page, error)
	IsBlacklisted(ctx context.Context, advertiserID string) (bool, error)

	// UpsertPageWithAds writes one advertiser group atomically: the
	// page row plus its ads batch, in a single transaction.
	UpsertPageWithAds(ctx context.Context, page *domain.Page, ads []*domain.Ad) error
}

// Dispatcher enqueues follow-up pipeline tasks.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskName string, payload any) error
}
