package pageanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/adsingest"
	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/adsurl"
	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// linkTitleWeight favors title-derived destination URLs over caption
// and description candidates.
const linkTitleWeight = 2

// Result summarizes one deep page scan.
type Result struct {
	ScanID                    string `json:"scan_id"`
	AdsFound                  int    `json:"ads_found"`
	AdsSaved                  int    `json:"ads_saved"`
	DestinationURL            string `json:"destination_url,omitempty"`
	WebsiteAnalysisDispatched bool   `json:"website_analysis_dispatched"`
}

// Service runs deep page scans.
type Service struct {
	adsLib     AdsLibrary
	repo       Repository
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService creates a page-analysis service.
func NewService(adsLib AdsLibrary, repo Repository, dispatcher Dispatcher) *Service {
	return &Service{adsLib: adsLib, repo: repo, dispatcher: dispatcher, now: time.Now}
}

// Execute pulls all ads for the page, persists them, and dispatches
// site analysis when a destination URL surfaced. The scan record
// brackets the whole attempt.
func (s *Service) Execute(ctx context.Context, pageID, country, scanID string) (*Result, error) {
	page, err := s.repo.PageByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}

	if scanID == "" {
		scanID = uuid.NewString()
	} else if _, err := domain.ParseScanID(scanID); err != nil {
		return nil, err
	}

	scan := domain.NewScan(pageID, domain.ScanAdsOnly)
	scan.ID = scanID
	scan.Status = domain.RunRunning
	started := s.now().UTC()
	scan.StartedAt = &started
	if err := s.repo.SaveScan(ctx, scan); err != nil {
		return nil, fmt.Errorf("recording scan for page %s: %w", pageID, err)
	}

	res, err := s.run(ctx, page, country, scanID)
	if err != nil {
		s.closeScan(ctx, scan, domain.RunFailed, err.Error(), nil)
		return nil, err
	}
	s.closeScan(ctx, scan, domain.RunCompleted, "", res)
	return res, nil
}

func (s *Service) run(ctx context.Context, page *domain.Page, country, scanID string) (*Result, error) {
	params := adslib.SearchParams{PageIDs: []string{page.AdvertiserID}}
	if country != "" {
		normalized, err := domain.NormalizeCountry(country)
		if err != nil {
			return nil, err
		}
		params.Countries = []string{normalized}
	}

	rawAds, err := s.adsLib.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching ads for page %s: %w", page.ID, err)
	}

	res := &Result{ScanID: scanID, AdsFound: len(rawAds)}

	var candidates []adsurl.DestinationCandidate
	ads := make([]*domain.Ad, 0, len(rawAds))
	seen := map[string]bool{}
	now := s.now().UTC()
	for i := range rawAds {
		raw := &rawAds[i]
		if raw.ID != "" && seen[raw.ID] {
			continue
		}
		ad, err := adsingest.ConvertRawAd(raw, page.ID, now)
		if err != nil {
			logger.Warn("skipping unconvertible ad", "page_id", page.ID, "error", err)
			continue
		}
		seen[raw.ID] = true
		ads = append(ads, ad)

		if ad.LinkURL != nil {
			candidates = append(candidates, adsurl.DestinationCandidate{URL: *ad.LinkURL, Weight: 1})
		}
		if t := adslib.First(raw.LinkTitles); t != "" {
			candidates = append(candidates, adsurl.DestinationCandidate{URL: t, Weight: linkTitleWeight})
		}
		if d := adslib.First(raw.LinkDescriptions); d != "" {
			candidates = append(candidates, adsurl.DestinationCandidate{URL: d, Weight: 1})
		}
	}

	if err := s.repo.UpsertAds(ctx, page, ads); err != nil {
		return nil, fmt.Errorf("saving ads for page %s: %w", page.ID, err)
	}
	res.AdsSaved = len(ads)

	res.DestinationURL = adsurl.BestDestination(candidates)
	if res.DestinationURL != "" {
		payload := tasks.AnalyseWebsitePayload{PageID: page.ID, URL: res.DestinationURL}
		if err := s.dispatcher.Enqueue(ctx, tasks.AnalyseWebsite, payload); err != nil {
			logger.Warn("failed to enqueue site analysis", "page_id", page.ID, "error", err)
		} else {
			res.WebsiteAnalysisDispatched = true
		}
	}

	logger.Info("page scan finished",
		"page_id", page.ID,
		"ads_found", res.AdsFound,
		"ads_saved", res.AdsSaved,
		"destination_url", res.DestinationURL)
	return res, nil
}

func (s *Service) closeScan(ctx context.Context, scan *domain.Scan, status domain.RunStatus, errMsg string, res *Result) {
	scan.Status = status
	scan.Error = errMsg
	completed := s.now().UTC()
	scan.CompletedAt = &completed
	if res != nil {
		scan.Result, _ = json.Marshal(res)
	}
	if err := s.repo.UpdateScan(ctx, scan); err != nil {
		logger.Warn("failed to close scan", "scan_id", scan.ID, "error", err)
	}
}
