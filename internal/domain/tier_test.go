package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForScoreBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Tier
	}{
		{0, TierXS},
		{24.99, TierXS},
		{25, TierS},
		{39.99, TierS},
		{40, TierM},
		{54.99, TierM},
		{55, TierL},
		{69.999, TierL},
		{70, TierXL},
		{84.99, TierXL},
		{85, TierXXL},
		{100, TierXXL},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierForScore(c.score), "score %v", c.score)
	}
}

func TestTierForScoreClampsOutOfRange(t *testing.T) {
	assert.Equal(t, TierXS, TierForScore(-5))
	assert.Equal(t, TierXXL, TierForScore(150))

	// tier(x) == tier(clamp(x)) for arbitrary inputs
	for _, x := range []float64{-100, -0.001, 42.5, 100.0001, 1e9} {
		assert.Equal(t, TierForScore(ClampScore(x)), TierForScore(x))
	}
}

func TestTierRange(t *testing.T) {
	low, high, err := TierRange(TierXL)
	require.NoError(t, err)
	assert.Equal(t, 70.0, low)
	assert.Equal(t, 85.0, high)

	low, high, err = TierRange("xxl") // case-insensitive
	require.NoError(t, err)
	assert.Equal(t, 85.0, low)
	assert.Equal(t, 100.0, high)

	_, _, err = TierRange("XXS")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestTierOrder(t *testing.T) {
	order := []Tier{TierXS, TierS, TierM, TierL, TierXL, TierXXL}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, TierOrder(order[i]), TierOrder(order[i-1]))
	}
	assert.Equal(t, TierOrder(TierM), TierOrder("m"))
	assert.Equal(t, -1, TierOrder("nope"))
}
