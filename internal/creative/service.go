package creative

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/domain"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// ErrAdNotFound is returned when the ad to analyze does not exist.
var ErrAdNotFound = errors.New("creative: ad not found")

// Repository is the persistence port for creative analysis.
type Repository interface {
	AdByID(ctx context.Context, adID string) (*domain.Ad, error)
	AdsByPage(ctx context.Context, pageID string) ([]domain.Ad, error)
	// AnalysisByAd returns (nil, nil) when the ad was never analyzed.
	AnalysisByAd(ctx context.Context, adID string) (*domain.CreativeAnalysis, error)
	SaveAnalysis(ctx context.Context, a *domain.CreativeAnalysis) error
	AnalysesByPage(ctx context.Context, pageID string) ([]domain.CreativeAnalysis, error)
}

// Service runs and persists creative analyses. Analysis is idempotent
// per ad: an existing record is returned as-is, never recomputed.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a creative analysis service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// AnalyzeAd analyzes one ad, storing the result. If an analysis already
// exists it is returned unchanged.
func (s *Service) AnalyzeAd(ctx context.Context, adID string) (*domain.CreativeAnalysis, error) {
	existing, err := s.repo.AnalysisByAd(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("loading analysis for ad %s: %w", adID, err)
	}
	if existing != nil {
		return existing, nil
	}

	ad, err := s.repo.AdByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad == nil {
		return nil, ErrAdNotFound
	}

	analysis := Analyze(ad)
	analysis.ID = uuid.NewString()
	analysis.CreatedAt = s.now().UTC()
	if err := s.repo.SaveAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("saving analysis for ad %s: %w", adID, err)
	}
	return analysis, nil
}

// PageResult reports an AnalyzePage pass.
type PageResult struct {
	AdsSeen  int `json:"ads_seen"`
	Analyzed int `json:"analyzed"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// AnalyzePage analyzes every ad of a page that has no stored analysis
// yet. Per-ad failures are logged and counted, never fatal.
func (s *Service) AnalyzePage(ctx context.Context, pageID string) (*PageResult, error) {
	ads, err := s.repo.AdsByPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading ads for page %s: %w", pageID, err)
	}

	res := &PageResult{AdsSeen: len(ads)}
	for i := range ads {
		existing, err := s.repo.AnalysisByAd(ctx, ads[i].ID)
		if err != nil {
			logger.Warn("creative analysis lookup failed", "ad_id", ads[i].ID, "error", err)
			res.Errors++
			continue
		}
		if existing != nil {
			res.Skipped++
			continue
		}

		analysis := Analyze(&ads[i])
		analysis.ID = uuid.NewString()
		analysis.CreatedAt = s.now().UTC()
		if err := s.repo.SaveAnalysis(ctx, analysis); err != nil {
			logger.Warn("creative analysis save failed", "ad_id", ads[i].ID, "error", err)
			res.Errors++
			continue
		}
		res.Analyzed++
	}

	logger.Info("page creatives analyzed",
		"page_id", pageID,
		"seen", res.AdsSeen,
		"analyzed", res.Analyzed,
		"skipped", res.Skipped,
		"errors", res.Errors)
	return res, nil
}

// Summary aggregates a page's stored analyses.
type Summary struct {
	PageID          string                    `json:"page_id"`
	AnalyzedAds     int                       `json:"analyzed_ads"`
	AverageScore    float64                   `json:"average_score"`
	BestAdID        string                    `json:"best_ad_id,omitempty"`
	BestScore       float64                   `json:"best_score"`
	SentimentCounts map[domain.Sentiment]int  `json:"sentiment_counts"`
	CommonTags      []string                  `json:"common_tags"`
	TopCreatives    []domain.CreativeAnalysis `json:"top_creatives"`
}

// topCreativesLimit bounds the sample returned in a summary.
const topCreativesLimit = 5

// SummarizePage aggregates the stored analyses for one page. A page
// with no analyses yields an empty summary, not an error.
func (s *Service) SummarizePage(ctx context.Context, pageID string) (*Summary, error) {
	analyses, err := s.repo.AnalysesByPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading analyses for page %s: %w", pageID, err)
	}

	sum := &Summary{
		PageID:          pageID,
		AnalyzedAds:     len(analyses),
		SentimentCounts: map[domain.Sentiment]int{},
	}
	if len(analyses) == 0 {
		return sum, nil
	}

	tagCounts := map[string]int{}
	var total float64
	for _, a := range analyses {
		total += a.CreativeScore
		sum.SentimentCounts[a.Sentiment]++
		if a.CreativeScore > sum.BestScore || sum.BestAdID == "" {
			sum.BestScore = a.CreativeScore
			sum.BestAdID = a.AdID
		}
		for _, t := range a.AngleTags {
			tagCounts[t]++
		}
		for _, t := range a.StyleTags {
			tagCounts[t]++
		}
	}
	sum.AverageScore = round2(total / float64(len(analyses)))

	// Common tags appear on at least half of the analyzed ads.
	threshold := (len(analyses) + 1) / 2
	for tag, n := range tagCounts {
		if n >= threshold {
			sum.CommonTags = append(sum.CommonTags, tag)
		}
	}
	sort.Strings(sum.CommonTags)

	sorted := make([]domain.CreativeAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreativeScore > sorted[j].CreativeScore
	})
	if len(sorted) > topCreativesLimit {
		sorted = sorted[:topCreativesLimit]
	}
	sum.TopCreatives = sorted
	return sum, nil
}

func round2(x float64) float64 {
	return float64(int(x*100+0.5)) / 100
}
