// Package scoring computes the 0-100 shop score from ads activity,
// commerce signals, creative quality and catalog size.
package scoring

import (
	"math"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// Component weights. They sum to 1.
const (
	WeightAdsActivity     = 0.4
	WeightCommerce        = 0.3
	WeightCreativeQuality = 0.2
	WeightCatalog         = 0.1
)

// Saturation points: the input value at which each activity signal
// contributes its full share.
const (
	activeAdsSaturation = 50
	countriesSaturation = 5
	platformsSaturation = 3
	catalogSaturation   = 200
)

// Input gathers every observed signal the score depends on.
type Input struct {
	ActiveAdCount int
	TotalAdCount  int
	CountryCount  int
	PlatformCount int

	IsCommerce bool
	Currency   string

	ProductCount int

	// Creative signals aggregated across the page's ads.
	AnyAdText    bool
	HasDiscount  bool
	HasEmoji     bool
	HasCTAPhrase bool
	HasCTAType   bool
}

// Compute derives the weighted score and its components. The total is
// clamped to [0,100] and rounded to two decimals.
func Compute(in Input) (float64, domain.ScoreComponents) {
	c := domain.ScoreComponents{
		AdsActivity:     adsActivity(in),
		Commerce:        commerce(in),
		CreativeQuality: creativeQuality(in),
		Catalog:         catalog(in),
	}

	total := WeightAdsActivity*c.AdsActivity +
		WeightCommerce*c.Commerce +
		WeightCreativeQuality*c.CreativeQuality +
		WeightCatalog*c.Catalog

	return round2(domain.ClampScore(total)), c
}

// adsActivity saturates at 50 active ads, 5 countries, 3 platforms.
func adsActivity(in Input) float64 {
	s := 0.6*ratio(in.ActiveAdCount, activeAdsSaturation) +
		0.2*ratio(in.CountryCount, countriesSaturation) +
		0.2*ratio(in.PlatformCount, platformsSaturation)
	return round2(100 * s)
}

// commerce starts at a 20-point baseline for any advertiser and adds
// fixed bonuses for verified commerce signals.
func commerce(in Input) float64 {
	score := 20.0
	if in.IsCommerce {
		score += 30
	}
	if domain.IsStrongCurrency(in.Currency) {
		score += 20
	}
	if in.ActiveAdCount > 0 {
		score += 20
	}
	if in.TotalAdCount >= 10 {
		score += 10
	}
	return score
}

// creativeQuality is a checklist over the page's ad creatives.
func creativeQuality(in Input) float64 {
	score := 0.0
	if in.AnyAdText {
		score += 20
	}
	if in.HasDiscount {
		score += 20
	}
	if in.HasEmoji {
		score += 15
	}
	if in.HasCTAPhrase {
		score += 25
	}
	if in.HasCTAType {
		score += 20
	}
	return score
}

// catalog saturates at 200 products.
func catalog(in Input) float64 {
	return round2(100 * ratio(in.ProductCount, catalogSaturation))
}

func ratio(n, saturation int) float64 {
	if n <= 0 {
		return 0
	}
	r := float64(n) / float64(saturation)
	if r > 1 {
		return 1
	}
	return r
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
