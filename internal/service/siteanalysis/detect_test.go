package siteanalysis

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    string
	}{
		{
			name:    "shopify shop id header",
			headers: http.Header{"X-Shopid": {"12345"}},
			want:    "shopify",
		},
		{
			name:    "shopify sorting hat",
			headers: http.Header{"X-Sorting-Hat-Shopid": {"67890"}},
			want:    "shopify",
		},
		{
			name:    "magento cache header",
			headers: http.Header{"X-Magento-Cache-Control": {"max-age=86400"}},
			want:    "magento",
		},
		{
			name:    "wix request id",
			headers: http.Header{"X-Wix-Request-Id": {"abc"}},
			want:    "wix",
		},
		{
			name:    "squarespace server banner",
			headers: http.Header{"Server": {"Squarespace"}},
			want:    "squarespace",
		},
		{
			name:    "plain nginx",
			headers: http.Header{"Server": {"nginx/1.25.3"}},
			want:    "",
		},
		{
			name: "nil headers",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFromHeaders(tt.headers))
		})
	}
}

func TestDetectFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "shopify cdn asset",
			body: `<link href="https://cdn.shopify.com/s/files/theme.css">`,
			want: "shopify",
		},
		{
			name: "shopify theme object",
			body: `<script>Shopify.theme = {"name":"Dawn","id":1};</script>`,
			want: "shopify",
		},
		{
			name: "woocommerce plugin path",
			body: `<script src="/wp-content/plugins/woocommerce/assets/js/cart.js"></script>`,
			want: "woocommerce",
		},
		{
			name: "prestashop globals",
			body: `<script>var prestashop = {"currency":{"iso_code":"EUR"}};</script>`,
			want: "prestashop",
		},
		{
			name: "bigcommerce cdn",
			body: `<img src="https://cdn11.bigcommerce.com/s-abc/images/p.jpg">`,
			want: "bigcommerce",
		},
		{
			name: "shopware globals",
			body: `<script>window.shopware = {};</script>`,
			want: "shopware",
		},
		{
			name: "plain marketing page",
			body: `<html><body><h1>Our consulting services</h1></body></html>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFromBody(tt.body))
		})
	}
}
