package adsingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/domain"
)

func TestConvertRawAd(t *testing.T) {
	seen := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	raw := &adslib.RawAd{
		ID:                 "lib-123",
		PageID:             "adv-1",
		CreativeBodies:     []string{"Get 20% off", "alt body"},
		LinkTitles:         []string{"Summer Sale"},
		LinkCaptions:       []string{"myshop.example"},
		SnapshotURL:        "https://lib.example/snapshot/123",
		CTAType:            "SHOP_NOW",
		Status:             "ACTIVE",
		DeliveryStartTime:  "2026-08-01",
		PublisherPlatforms: []string{"facebook", "instagram", "tiktok"},
		Countries:          adslib.CountrySet{"DE", "FR"},
		Impressions:        &adslib.BoundRange{LowerBound: 1000, UpperBound: 4999},
		Spend:              &adslib.BoundRange{LowerBound: 100, UpperBound: 499.5},
		Currency:           "EUR",
	}

	ad, err := ConvertRawAd(raw, "page-1", seen)
	require.NoError(t, err)

	assert.NotEmpty(t, ad.ID)
	assert.Equal(t, "page-1", ad.PageID)
	assert.Equal(t, "lib-123", ad.MetaAdID)
	assert.Equal(t, "Summer Sale", *ad.Title)
	assert.Equal(t, "Get 20% off", *ad.Body, "first element of the array wins")
	assert.Equal(t, "https://myshop.example", *ad.LinkURL)
	assert.Equal(t, "SHOP_NOW", *ad.CTAType)
	assert.Equal(t, domain.AdActive, ad.Status)
	assert.Equal(t, []domain.Platform{
		domain.PlatformFacebook, domain.PlatformInstagram, domain.PlatformUnknown,
	}, ad.Platforms)
	assert.Equal(t, []string{"DE", "FR"}, ad.Countries)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *ad.StartedAt)
	assert.Nil(t, ad.EndedAt)
	assert.Equal(t, int64(1000), *ad.ImpressionsMin)
	assert.Equal(t, 499.5, *ad.SpendMax)
	assert.Equal(t, seen, ad.FirstSeenAt)
}

func TestConvertRawAdStoppedDeliveryImpliesInactive(t *testing.T) {
	ad, err := ConvertRawAd(&adslib.RawAd{
		ID:               "lib-1",
		DeliveryStopTime: "2026-07-01",
	}, "page-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.AdInactive, ad.Status)
	require.NotNil(t, ad.EndedAt)
}

func TestConvertRawAdMissingID(t *testing.T) {
	_, err := ConvertRawAd(&adslib.RawAd{PageID: "adv-1"}, "page-1", time.Now())
	assert.Error(t, err)
}

func TestConvertRawAdEmptyOptionalFields(t *testing.T) {
	ad, err := ConvertRawAd(&adslib.RawAd{ID: "lib-2", Status: "ACTIVE"}, "page-1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, ad.Title)
	assert.Nil(t, ad.Body)
	assert.Nil(t, ad.LinkURL)
	assert.Nil(t, ad.CTAType)
	assert.Nil(t, ad.ImpressionsMin)
	assert.Equal(t, domain.AdActive, ad.Status)
}
