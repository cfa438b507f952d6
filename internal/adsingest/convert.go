// Package adsingest converts raw ads-library records into Ad entities
// shared by the discovery and deep-scan stages.
package adsingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/adsurl"
	"github.com/shopradar/ads-monitor/internal/domain"
)

// ConvertRawAd maps one library record to an Ad entity. Array fields
// use their first element. A record without a library id cannot be
// upserted and fails conversion.
func ConvertRawAd(raw *adslib.RawAd, pageID string, seenAt time.Time) (*domain.Ad, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("raw ad has no library id (page %s)", raw.PageID)
	}

	ad := &domain.Ad{
		ID:          uuid.NewString(),
		PageID:      pageID,
		MetaAdID:    raw.ID,
		Status:      parseStatus(raw.Status),
		Countries:   []string(raw.Countries),
		Currency:    raw.Currency,
		FirstSeenAt: seenAt,
		LastSeenAt:  seenAt,
	}

	if t := adslib.First(raw.LinkTitles); t != "" {
		ad.Title = &t
	}
	if b := adslib.First(raw.CreativeBodies); b != "" {
		ad.Body = &b
	}
	if link := adsurl.NormalizeLinkURL(adslib.First(raw.LinkCaptions)); link != "" {
		ad.LinkURL = &link
	}
	if raw.CTAType != "" {
		cta := raw.CTAType
		ad.CTAType = &cta
	}
	if raw.SnapshotURL != "" {
		snap := raw.SnapshotURL
		ad.ImageURL = &snap
	}

	for _, p := range raw.PublisherPlatforms {
		ad.Platforms = append(ad.Platforms, domain.ParsePlatform(p))
	}

	if t, ok := parseLibraryTime(raw.DeliveryStartTime); ok {
		ad.StartedAt = &t
	}
	if t, ok := parseLibraryTime(raw.DeliveryStopTime); ok {
		ad.EndedAt = &t
		if ad.Status == domain.AdUnknown {
			ad.Status = domain.AdInactive
		}
	}

	if raw.Impressions != nil {
		lo, hi := int64(raw.Impressions.LowerBound), int64(raw.Impressions.UpperBound)
		ad.ImpressionsMin = &lo
		ad.ImpressionsMax = &hi
	}
	if raw.Spend != nil {
		lo, hi := float64(raw.Spend.LowerBound), float64(raw.Spend.UpperBound)
		ad.SpendMin = &lo
		ad.SpendMax = &hi
	}
	return ad, nil
}

func parseStatus(raw string) domain.AdStatus {
	switch domain.AdStatus(raw) {
	case domain.AdActive:
		return domain.AdActive
	case domain.AdInactive:
		return domain.AdInactive
	}
	return domain.AdUnknown
}

// parseLibraryTime accepts the library's two timestamp shapes: a bare
// date and RFC3339.
func parseLibraryTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
