package domain

import (
	"time"
)

// AdStatus enumerates the library-side status of a creative.
type AdStatus string

const (
	AdActive   AdStatus = "ACTIVE"
	AdInactive AdStatus = "INACTIVE"
	AdUnknown  AdStatus = "UNKNOWN"
)

// Platform enumerates the delivery surfaces an ad can run on.
type Platform string

const (
	PlatformFacebook        Platform = "FACEBOOK"
	PlatformInstagram       Platform = "INSTAGRAM"
	PlatformMessenger       Platform = "MESSENGER"
	PlatformAudienceNetwork Platform = "AUDIENCE_NETWORK"
	PlatformThreads         Platform = "THREADS"
	PlatformUnknown         Platform = "UNKNOWN"
)

// ParsePlatform maps a raw library platform string to the enum,
// defaulting to UNKNOWN rather than erroring.
func ParsePlatform(raw string) Platform {
	switch Platform(normalizeEnum(raw)) {
	case PlatformFacebook:
		return PlatformFacebook
	case PlatformInstagram:
		return PlatformInstagram
	case PlatformMessenger:
		return PlatformMessenger
	case PlatformAudienceNetwork:
		return PlatformAudienceNetwork
	case PlatformThreads:
		return PlatformThreads
	}
	return PlatformUnknown
}

func normalizeEnum(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c == ' ' || c == '-':
			out = append(out, '_')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// Ad is one creative observed in the public ads library. Ads are upserted
// by MetaAdID and never deleted; historical ads transition to INACTIVE.
type Ad struct {
	ID             string     `json:"id" db:"id"`
	PageID         string     `json:"page_id" db:"page_id"`
	MetaAdID       string     `json:"meta_ad_id" db:"meta_ad_id"`
	Title          *string    `json:"title" db:"title"`
	Body           *string    `json:"body" db:"body"`
	LinkURL        *string    `json:"link_url" db:"link_url"`
	ImageURL       *string    `json:"image_url" db:"image_url"`
	VideoURL       *string    `json:"video_url" db:"video_url"`
	CTAType        *string    `json:"cta_type" db:"cta_type"`
	Status         AdStatus   `json:"status" db:"status"`
	Platforms      []Platform `json:"platforms" db:"platforms"`
	Countries      []string   `json:"countries" db:"countries"`
	StartedAt      *time.Time `json:"started_at" db:"started_at"`
	EndedAt        *time.Time `json:"ended_at" db:"ended_at"`
	ImpressionsMin *int64     `json:"impressions_min" db:"impressions_min"`
	ImpressionsMax *int64     `json:"impressions_max" db:"impressions_max"`
	SpendMin       *float64   `json:"spend_min" db:"spend_min"`
	SpendMax       *float64   `json:"spend_max" db:"spend_max"`
	Currency       string     `json:"currency" db:"currency"`
	FirstSeenAt    time.Time  `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt     time.Time  `json:"last_seen_at" db:"last_seen_at"`
}

// IsActive reports whether the ad is currently running in the library.
func (a *Ad) IsActive() bool { return a.Status == AdActive }

// MarkInactive records that the library no longer reports the ad as
// running. EndedAt is set once and kept.
func (a *Ad) MarkInactive(at time.Time) {
	if a.Status == AdInactive {
		return
	}
	a.Status = AdInactive
	if a.EndedAt == nil {
		a.EndedAt = &at
	}
}

// Text concatenates title, body and CTA type for creative analysis.
func (a *Ad) Text() string {
	parts := make([]string, 0, 3)
	if a.Title != nil && *a.Title != "" {
		parts = append(parts, *a.Title)
	}
	if a.Body != nil && *a.Body != "" {
		parts = append(parts, *a.Body)
	}
	if a.CTAType != nil && *a.CTAType != "" {
		parts = append(parts, *a.CTAType)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// Sentiment classifies the overall tone of a creative's text.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// CreativeAnalysis is the stored result of the heuristic text analysis
// for a single ad. At most one row per ad; re-analysis returns the
// stored record.
type CreativeAnalysis struct {
	ID              string    `json:"id" db:"id"`
	AdID            string    `json:"ad_id" db:"ad_id"`
	CreativeScore   float64   `json:"creative_score" db:"creative_score"`
	StyleTags       []string  `json:"style_tags" db:"style_tags"`
	AngleTags       []string  `json:"angle_tags" db:"angle_tags"`
	ToneTags        []string  `json:"tone_tags" db:"tone_tags"`
	Sentiment       Sentiment `json:"sentiment" db:"sentiment"`
	AnalyzerVersion string    `json:"analyzer_version" db:"analyzer_version"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
