package adslib

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Error kinds for the ads-library taxonomy. The client wraps every
// failure into one of these so use cases and the API layer can map them
// without knowing HTTP.
var (
	ErrAuth        = errors.New("ads library: authentication failed")
	ErrRateLimited = errors.New("ads library: rate limited")
	ErrUpstream    = errors.New("ads library: upstream error")
	ErrTimeout     = errors.New("ads library: request timed out")
)

// RateLimitError carries the Retry-After hint from a 429 so callers can
// propagate it to clients and cooldowns.
type RateLimitError struct {
	RetryAfter int // seconds; 0 when the library sent no hint
}

func (e *RateLimitError) Error() string {
	return ErrRateLimited.Error()
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// CountrySet decodes the library's inconsistent country field, which is
// sometimes a single string and sometimes a list, into a sorted set.
type CountrySet []string

// UnmarshalJSON accepts "FR", ["FR","DE"], or null. The receiver is
// reset first so reused structs never keep a previous ad's countries.
func (c *CountrySet) UnmarshalJSON(data []byte) error {
	*c = nil
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*c = CountrySet{strings.ToUpper(one)}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		// Tolerate unexpected shapes; missing data is not an error.
		*c = nil
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(many))
	for _, v := range many {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	*c = out
	return nil
}

// Bound is a numeric bound the library serializes as either a JSON
// number or a quoted string.
type Bound float64

// UnmarshalJSON accepts 100, "100", and "100.5".
func (b *Bound) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = Bound(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*b = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*b = 0
		return nil
	}
	*b = Bound(n)
	return nil
}

// BoundRange is the library's {lower_bound, upper_bound} envelope for
// impressions and spend.
type BoundRange struct {
	LowerBound Bound `json:"lower_bound"`
	UpperBound Bound `json:"upper_bound"`
}

// RawAd is the loosely-typed ads-library record. Only the fields this
// pipeline consumes are decoded; everything else is ignored.
type RawAd struct {
	ID                 string      `json:"id"`
	PageID             string      `json:"page_id"`
	PageName           string      `json:"page_name"`
	CreativeBodies     []string    `json:"ad_creative_bodies"`
	LinkTitles         []string    `json:"ad_creative_link_titles"`
	LinkCaptions       []string    `json:"ad_creative_link_captions"`
	LinkDescriptions   []string    `json:"ad_creative_link_descriptions"`
	SnapshotURL        string      `json:"ad_snapshot_url"`
	CTAType            string      `json:"cta_type"`
	Status             string      `json:"ad_active_status"`
	DeliveryStartTime  string      `json:"ad_delivery_start_time"`
	DeliveryStopTime   string      `json:"ad_delivery_stop_time"`
	PublisherPlatforms []string    `json:"publisher_platforms"`
	Countries          CountrySet  `json:"ad_reached_countries"`
	Impressions        *BoundRange `json:"impressions"`
	Spend              *BoundRange `json:"spend"`
	Currency           string      `json:"currency"`
	Languages          []string    `json:"languages"`
}

// First returns the first element of a string-array field, or "".
func First(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// searchResponse is one page of library results.
type searchResponse struct {
	Data   []RawAd `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *apiError `json:"error"`
}

// apiError is the library's documented error envelope.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
