package domain

import (
	"fmt"
	"strings"
)

// Tier is the six-band discretisation of the 0-100 shop score.
type Tier string

const (
	TierXXL Tier = "XXL"
	TierXL  Tier = "XL"
	TierL   Tier = "L"
	TierM   Tier = "M"
	TierS   Tier = "S"
	TierXS  Tier = "XS"
)

// tierBounds is the single source of truth for the score→tier mapping.
// Bands are lower-inclusive, upper-exclusive, except XXL whose upper
// bound is inclusive at 100. Every score-to-tier decision in the system
// must route through TierForScore / TierRange.
var tierBounds = []struct {
	tier Tier
	low  float64
	high float64
}{
	{TierXXL, 85, 100},
	{TierXL, 70, 85},
	{TierL, 55, 70},
	{TierM, 40, 55},
	{TierS, 25, 40},
	{TierXS, 0, 25},
}

// ClampScore clamps x into [0,100].
func ClampScore(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}

// TierForScore maps a score to its tier. Out-of-range scores are clamped
// before mapping.
func TierForScore(score float64) Tier {
	s := ClampScore(score)
	for _, b := range tierBounds {
		if s >= b.low {
			return b.tier
		}
	}
	return TierXS
}

// TierRange returns the [low, high) score band for a tier (high is
// inclusive only for XXL). Tier names are matched case-insensitively.
func TierRange(t Tier) (low, high float64, err error) {
	upper := Tier(strings.ToUpper(string(t)))
	for _, b := range tierBounds {
		if b.tier == upper {
			return b.low, b.high, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTier, t)
}

// TierOrder returns the rank of a tier for up/down comparisons
// (XS=0 .. XXL=5, case-insensitive). Unknown tiers return -1.
func TierOrder(t Tier) int {
	switch Tier(strings.ToUpper(string(t))) {
	case TierXS:
		return 0
	case TierS:
		return 1
	case TierM:
		return 2
	case TierL:
		return 3
	case TierXL:
		return 4
	case TierXXL:
		return 5
	}
	return -1
}
