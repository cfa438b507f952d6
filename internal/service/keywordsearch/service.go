package keywordsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/adsingest"
	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/adsurl"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// DefaultLimit caps how many ads one keyword run pulls from the library
// when the caller does not say otherwise.
const DefaultLimit = 1000

// Params is the keyword-search request.
type Params struct {
	Keyword  string
	Country  string
	Language string
	Limit    int
	ScanID   string
}

// Result summarizes one completed keyword run.
type Result struct {
	RunID         string   `json:"run_id"`
	ScanID        string   `json:"scan_id"`
	PageIDs       []string `json:"pages"`
	TotalAdsFound int      `json:"total_ads_found"`
	AdsProcessed  int      `json:"ads_processed"`
	UniquePages   int      `json:"unique_pages"`
	NewPages      int      `json:"new_pages"`
	SkippedGroups int      `json:"skipped_groups"`
}

// Archiver persists the raw library payload for audit and replay.
type Archiver interface {
	SaveRun(ctx context.Context, runID, keyword string, raw json.RawMessage, adCount int) error
}

// Service runs keyword searches end to end.
type Service struct {
	adsLib     AdsLibrary
	repo       Repository
	dispatcher Dispatcher
	archiver   Archiver
	now        func() time.Time
}

// NewService creates a keyword-search service.
func NewService(adsLib AdsLibrary, repo Repository, dispatcher Dispatcher) *Service {
	return &Service{adsLib: adsLib, repo: repo, dispatcher: dispatcher, now: time.Now}
}

// WithArchiver turns on raw-payload archiving for completed runs.
func (s *Service) WithArchiver(a Archiver) *Service {
	s.archiver = a
	return s
}

// Execute performs the discovery stage for one keyword. The run record
// tracks the outcome: COMPLETED with a result summary, RATE_LIMITED
// when the library throttled us, FAILED otherwise.
func (s *Service) Execute(ctx context.Context, p Params) (*Result, error) {
	keyword := strings.ToLower(strings.TrimSpace(p.Keyword))
	if keyword == "" {
		return nil, ErrInvalidKeyword
	}
	country, err := domain.NormalizeCountry(p.Country)
	if err != nil {
		return nil, err
	}
	language := ""
	if p.Language != "" {
		if language, err = domain.NormalizeLanguage(p.Language); err != nil {
			return nil, err
		}
	}
	scanID := p.ScanID
	if scanID == "" {
		scanID = uuid.NewString()
	} else if _, err := domain.ParseScanID(scanID); err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	run := domain.NewKeywordRun(keyword, country, language)
	run.Status = domain.RunRunning
	started := s.now().UTC()
	run.StartedAt = &started
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording keyword run: %w", err)
	}

	logger.Info("keyword search started",
		"run_id", run.ID, "keyword", keyword, "country", country, "limit", limit)

	rawAds, err := s.adsLib.Search(ctx, adslib.SearchParams{
		SearchTerms: keyword,
		Countries:   []string{country},
		MaxAds:      limit,
	})
	if err != nil {
		s.closeRunFailed(ctx, run, err)
		return nil, err
	}

	if s.archiver != nil {
		if raw, merr := json.Marshal(rawAds); merr == nil {
			if aerr := s.archiver.SaveRun(ctx, run.ID, keyword, raw, len(rawAds)); aerr != nil {
				logger.Warn("raw payload archive failed", "run_id", run.ID, "error", aerr)
			}
		}
	}

	res, err := s.ingest(ctx, run, rawAds, country, scanID)
	if err != nil {
		s.closeRunFailed(ctx, run, err)
		return nil, err
	}

	run.Status = domain.RunCompleted
	completed := s.now().UTC()
	run.CompletedAt = &completed
	run.Result, _ = json.Marshal(map[string]int{
		"total_ads_found": res.TotalAdsFound,
		"unique_pages":    res.UniquePages,
		"new_pages":       res.NewPages,
		"ads_processed":   res.AdsProcessed,
	})
	if err := s.repo.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to close keyword run", "run_id", run.ID, "error", err)
	}

	logger.Info("keyword search completed",
		"run_id", run.ID,
		"ads_found", res.TotalAdsFound,
		"unique_pages", res.UniquePages,
		"new_pages", res.NewPages,
		"skipped_groups", res.SkippedGroups)
	return res, nil
}

// ingest groups the raw ads by advertiser and upserts one group per
// transaction, dispatching a scan task per surviving page.
func (s *Service) ingest(ctx context.Context, run *domain.KeywordRun, rawAds []adslib.RawAd, country, scanID string) (*Result, error) {
	res := &Result{RunID: run.ID, ScanID: scanID, TotalAdsFound: len(rawAds)}

	groups := map[string][]adslib.RawAd{}
	groupOrder := []string{}
	for _, raw := range rawAds {
		if raw.PageID == "" {
			continue
		}
		if _, seen := groups[raw.PageID]; !seen {
			groupOrder = append(groupOrder, raw.PageID)
		}
		groups[raw.PageID] = append(groups[raw.PageID], raw)
	}
	res.UniquePages = len(groupOrder)

	for _, advertiserID := range groupOrder {
		group := groups[advertiserID]

		blocked, err := s.repo.IsBlacklisted(ctx, advertiserID)
		if err != nil {
			return nil, fmt.Errorf("blacklist check for advertiser %s: %w", advertiserID, err)
		}
		if blocked {
			res.SkippedGroups++
			logger.Debug("skipping blacklisted advertiser", "advertiser_id", advertiserID)
			continue
		}

		page, err := s.repo.PageByAdvertiserID(ctx, advertiserID)
		if err != nil {
			return nil, fmt.Errorf("page lookup for advertiser %s: %w", advertiserID, err)
		}
		if page == nil {
			dest := adsurl.ExtractDestinationURL(group, group[0].PageName)
			if dest == "" {
				res.SkippedGroups++
				logger.Debug("no destination URL for advertiser group",
					"advertiser_id", advertiserID, "ads", len(group))
				continue
			}
			page = &domain.Page{
				ID:           uuid.NewString(),
				AdvertiserID: advertiserID,
				Name:         group[0].PageName,
				Country:      country,
				State:        domain.PageDiscovered,
				FirstSeenAt:  s.now().UTC(),
				CreatedAt:    s.now().UTC(),
			}
			if err := page.SetURL(dest); err != nil {
				res.SkippedGroups++
				logger.Warn("extracted URL failed validation",
					"advertiser_id", advertiserID, "url", dest, "error", err)
				continue
			}
			res.NewPages++
		}

		ads := s.convertGroup(group, page.ID)
		active := 0
		for _, ad := range ads {
			if ad.IsActive() {
				active++
			}
		}
		page.ActiveAdsCount = active
		page.TotalAdsCount = len(ads)
		page.UpdatedAt = s.now().UTC()

		if err := s.repo.UpsertPageWithAds(ctx, page, ads); err != nil {
			return nil, fmt.Errorf("upserting advertiser group %s: %w", advertiserID, err)
		}
		res.AdsProcessed += len(ads)
		res.PageIDs = append(res.PageIDs, page.ID)

		payload := tasks.ScanPagePayload{PageID: page.ID, Country: country, ScanID: scanID}
		if err := s.dispatcher.Enqueue(ctx, tasks.ScanPage, payload); err != nil {
			logger.Warn("failed to enqueue page scan",
				"page_id", page.ID, "error", err)
		}
	}
	return res, nil
}

// convertGroup maps raw ads, deduplicating by library ad id. A bad
// record is logged and skipped, never fatal.
func (s *Service) convertGroup(group []adslib.RawAd, pageID string) []*domain.Ad {
	seen := map[string]bool{}
	out := make([]*domain.Ad, 0, len(group))
	now := s.now().UTC()
	for i := range group {
		raw := &group[i]
		if raw.ID != "" && seen[raw.ID] {
			continue
		}
		ad, err := adsingest.ConvertRawAd(raw, pageID, now)
		if err != nil {
			logger.Warn("skipping unconvertible ad", "page_id", pageID, "error", err)
			continue
		}
		seen[raw.ID] = true
		out = append(out, ad)
	}
	return out
}

func (s *Service) closeRunFailed(ctx context.Context, run *domain.KeywordRun, cause error) {
	if errors.Is(cause, adslib.ErrRateLimited) {
		run.Status = domain.RunRateLimited
	} else {
		run.Status = domain.RunFailed
	}
	run.Error = cause.Error()
	completed := s.now().UTC()
	run.CompletedAt = &completed
	if err := s.repo.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to record keyword run failure", "run_id", run.ID, "error", err)
	}
}
