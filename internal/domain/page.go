package domain

import (
	"time"
)

// PageState enumerates the lifecycle states of a tracked storefront.
type PageState string

const (
	PageDiscovered       PageState = "discovered"
	PagePending          PageState = "pending"
	PageAnalyzing        PageState = "analyzing"
	PageAnalyzed         PageState = "analyzed"
	PageVerifiedCommerce PageState = "verified_commerce"
	PageNotCommerce      PageState = "not_commerce"
	PageActive           PageState = "active"
	PageInactive         PageState = "inactive"
	PageArchived         PageState = "archived"
	PageDeleted          PageState = "deleted"
	PageError            PageState = "error"
	PageUnreachable      PageState = "unreachable"
)

// pageTransitions is the explicit allowed-transition table. Attempts
// outside it fail with InvalidTransitionError. error/unreachable are
// reachable from every analysis state and recover back to pending;
// deleted is terminal; archived reactivates to active.
var pageTransitions = map[PageState][]PageState{
	PageDiscovered:       {PagePending, PageError, PageUnreachable},
	PagePending:          {PageAnalyzing, PageArchived, PageError, PageUnreachable},
	PageAnalyzing:        {PageAnalyzed, PageError, PageUnreachable},
	PageAnalyzed:         {PageVerifiedCommerce, PageNotCommerce, PageError, PageUnreachable},
	PageVerifiedCommerce: {PageActive, PageInactive, PageError, PageUnreachable},
	PageNotCommerce:      {PageInactive, PageArchived, PageError, PageUnreachable},
	PageActive:           {PageInactive, PageArchived},
	PageInactive:         {PageActive, PageArchived},
	PageArchived:         {PageActive, PageDeleted},
	PageError:            {PagePending},
	PageUnreachable:      {PagePending},
	PageDeleted:          {},
}

// CanTransition reports whether from→to is in the allowed table.
func CanTransition(from, to PageState) bool {
	for _, next := range pageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the state change and returns the new state, or an
// InvalidTransitionError.
func Transition(from, to PageState) (PageState, error) {
	if !CanTransition(from, to) {
		return from, &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}

// Page is a tracked storefront discovered through the ads library.
// Domain always equals RegistrableHost(URL).
type Page struct {
	ID             string     `json:"id" db:"id"`
	URL            string     `json:"url" db:"url"`
	Domain         string     `json:"domain" db:"domain"`
	AdvertiserID   string     `json:"advertiser_id" db:"advertiser_id"`
	Name           string     `json:"name" db:"name"`
	Country        string     `json:"country" db:"country"`
	Language       string     `json:"language" db:"language"`
	Currency       string     `json:"currency" db:"currency"`
	Category       string     `json:"category" db:"category"`
	ProductCount   int        `json:"product_count" db:"product_count"`
	IsCommerce     bool       `json:"is_commerce_platform" db:"is_commerce_platform"`
	ProfileID      *string    `json:"profile_id" db:"profile_id"`
	ActiveAdsCount int        `json:"active_ads_count" db:"active_ads_count"`
	TotalAdsCount  int        `json:"total_ads_count" db:"total_ads_count"`
	CurrentScore   *float64   `json:"current_score" db:"current_score"`
	State          PageState  `json:"state" db:"state"`
	FirstSeenAt    time.Time  `json:"first_seen_at" db:"first_seen_at"`
	LastScannedAt  *time.Time `json:"last_scanned_at" db:"last_scanned_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// SetURL sets URL and keeps the Domain invariant.
func (p *Page) SetURL(raw string) error {
	u, err := ValidateURL(raw)
	if err != nil {
		return err
	}
	host, err := RegistrableHost(u)
	if err != nil {
		return err
	}
	p.URL = u
	p.Domain = host
	return nil
}

// TransitionTo applies the state machine guard in place.
func (p *Page) TransitionTo(to PageState) error {
	next, err := Transition(p.State, to)
	if err != nil {
		return err
	}
	p.State = next
	return nil
}

// CommerceProfile is the enriched per-page fingerprint produced by
// site analysis.
type CommerceProfile struct {
	ID             string    `json:"id" db:"id"`
	PageID         string    `json:"page_id" db:"page_id"`
	ShopName       string    `json:"shop_name" db:"shop_name"`
	Theme          string    `json:"theme" db:"theme"`
	Apps           []string  `json:"apps" db:"apps"`
	PaymentMethods []string  `json:"payment_methods" db:"payment_methods"`
	PixelIDs       []string  `json:"pixel_ids" db:"pixel_ids"`
	TrustScore     float64   `json:"trust_score" db:"trust_score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a page-scoped catalog entry.
type Product struct {
	ID          string    `json:"id" db:"id"`
	PageID      string    `json:"page_id" db:"page_id"`
	Handle      string    `json:"handle" db:"handle"`
	Title       string    `json:"title" db:"title"`
	URL         string    `json:"url" db:"url"`
	PriceMin    *float64  `json:"price_min" db:"price_min"`
	PriceMax    *float64  `json:"price_max" db:"price_max"`
	Available   bool      `json:"available" db:"available"`
	Tags        []string  `json:"tags" db:"tags"`
	Vendor      string    `json:"vendor" db:"vendor"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}
