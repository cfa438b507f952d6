package adsurl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopradar/ads-monitor/internal/adslib"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://MyShop.example/collections/all", "https://myshop.example", true},
		{"http://shop.example", "http://shop.example", true},
		{"myshop.example", "https://myshop.example", true},
		{"myshop.example/sale", "https://myshop.example", true},
		{"MYSHOP.EXAMPLE", "https://myshop.example", true},
		{"Shop Now", "", false},
		{"learn more", "", false},
		{"En Savoir Plus", "", false},
		{"just some text", "", false},
		{"no-tld", "", false},
		{"x.y", "", false}, // single-letter TLD
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := canonicalURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestExtractDestinationURLPicksMode(t *testing.T) {
	group := []adslib.RawAd{
		{LinkCaptions: []string{"myshop.example"}},
		{LinkCaptions: []string{"myshop.example"}},
		{LinkCaptions: []string{"othershop.example"}},
	}
	assert.Equal(t, "https://myshop.example", ExtractDestinationURL(group, "My Shop"))
}

func TestExtractDestinationURLTieBreaksOnFirstSeen(t *testing.T) {
	group := []adslib.RawAd{
		{LinkCaptions: []string{"first.example"}},
		{LinkCaptions: []string{"second.example"}},
	}
	assert.Equal(t, "https://first.example", ExtractDestinationURL(group, ""))
}

func TestExtractDestinationURLSkipsCTAPhrases(t *testing.T) {
	group := []adslib.RawAd{
		{LinkCaptions: []string{"Shop Now", "Shop Now"}, LinkTitles: []string{"realshop.example"}},
	}
	assert.Equal(t, "https://realshop.example", ExtractDestinationURL(group, ""))
}

func TestExtractDestinationURLFallsBackToAdvertiserName(t *testing.T) {
	group := []adslib.RawAd{{LinkCaptions: []string{"Learn More"}}}
	assert.Equal(t, "https://brand.example", ExtractDestinationURL(group, "brand.example"))
	assert.Equal(t, "", ExtractDestinationURL(group, "Just A Brand"))
}

func TestNormalizeLinkURL(t *testing.T) {
	assert.Equal(t, "https://shop.example/products/x", NormalizeLinkURL("https://shop.example/products/x"))
	assert.Equal(t, "https://shop.example/sale", NormalizeLinkURL("shop.example/sale"))
	assert.Equal(t, "https://shop.example", NormalizeLinkURL("shop.example"))
	assert.Equal(t, "", NormalizeLinkURL("Shop Now"))
}

func TestBestDestinationWeights(t *testing.T) {
	// A single title-derived candidate (weight 2) beats two
	// caption-derived mentions split across different URLs.
	got := BestDestination([]DestinationCandidate{
		{URL: "caption.example", Weight: 1},
		{URL: "title.example", Weight: 2},
		{URL: "other.example", Weight: 1},
	})
	assert.Equal(t, "https://title.example", got)
}

func TestBestDestinationTieGoesToFirstSeen(t *testing.T) {
	got := BestDestination([]DestinationCandidate{
		{URL: "a.example", Weight: 1},
		{URL: "b.example", Weight: 1},
	})
	assert.Equal(t, "https://a.example", got)
}

func TestBestDestinationEmpty(t *testing.T) {
	assert.Equal(t, "", BestDestination(nil))
	assert.Equal(t, "", BestDestination([]DestinationCandidate{{URL: "Shop Now", Weight: 2}}))
}
