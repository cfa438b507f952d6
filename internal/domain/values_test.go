package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCountry(t *testing.T) {
	c, err := NormalizeCountry(" fr ")
	require.NoError(t, err)
	assert.Equal(t, "FR", c)

	_, err = NormalizeCountry("XX")
	assert.ErrorIs(t, err, ErrInvalidCountry)
	_, err = NormalizeCountry("")
	assert.ErrorIs(t, err, ErrInvalidCountry)
}

func TestNormalizeCurrency(t *testing.T) {
	c, err := NormalizeCurrency("eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", c)

	_, err = NormalizeCurrency("BTC")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	assert.True(t, IsStrongCurrency("usd"))
	assert.False(t, IsStrongCurrency("CAD"))
}

func TestNormalizeCategory(t *testing.T) {
	c, err := NormalizeCategory("  Home & Garden ")
	require.NoError(t, err)
	assert.Equal(t, "home & garden", c)

	_, err = NormalizeCategory("   ")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestValidateProductCount(t *testing.T) {
	assert.NoError(t, ValidateProductCount(0))
	assert.NoError(t, ValidateProductCount(200))
	assert.ErrorIs(t, ValidateProductCount(-1), ErrInvalidProductCount)
	assert.ErrorIs(t, ValidateProductCount(MaxProductCount+1), ErrInvalidProductCount)
}

func TestValidatePaymentMethods(t *testing.T) {
	assert.NoError(t, ValidatePaymentMethods([]string{"visa", "Klarna", "shop_pay"}))
	assert.ErrorIs(t, ValidatePaymentMethods([]string{"visa", "doge"}), ErrInvalidPaymentMethod)
}

func TestRankingCriteriaValidate(t *testing.T) {
	min := 50.0
	ok := RankingCriteria{Limit: 20, Offset: 0, Tier: TierXL, MinScore: &min, Country: "DE"}
	assert.NoError(t, ok.Validate())

	assert.ErrorIs(t, RankingCriteria{Limit: 0}.Validate(), ErrInvalidRanking)
	assert.ErrorIs(t, RankingCriteria{Limit: 201}.Validate(), ErrInvalidRanking)
	assert.ErrorIs(t, RankingCriteria{Limit: 10, Offset: -1}.Validate(), ErrInvalidRanking)
	assert.ErrorIs(t, RankingCriteria{Limit: 10, Tier: "XXS"}.Validate(), ErrInvalidTier)

	bad := -0.5
	assert.ErrorIs(t, RankingCriteria{Limit: 10, MinScore: &bad}.Validate(), ErrInvalidRanking)
	assert.ErrorIs(t, RankingCriteria{Limit: 10, Country: "ZZ"}.Validate(), ErrInvalidCountry)
}

func TestRankedShopsResultHasMore(t *testing.T) {
	r := RankedShopsResult{Items: make([]RankedShop, 10), Total: 25, Offset: 0}
	assert.True(t, r.HasMore())

	r.Offset = 15
	assert.False(t, r.HasMore(), "offset+items == total means no more")

	r = RankedShopsResult{Items: nil, Total: 0, Offset: 0}
	assert.False(t, r.HasMore())
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformFacebook, ParsePlatform("facebook"))
	assert.Equal(t, PlatformInstagram, ParsePlatform("Instagram"))
	assert.Equal(t, PlatformAudienceNetwork, ParsePlatform("audience network"))
	assert.Equal(t, PlatformUnknown, ParsePlatform("tiktok"))
	assert.Equal(t, PlatformUnknown, ParsePlatform(""))
}
