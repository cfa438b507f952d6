// Package siteanalysis fingerprints a storefront: whether it runs on a
// known commerce platform, and if so under what name, theme, currency,
// category and payment methods. Verified pages move on to catalog
// sizing; everything else is parked as not_commerce.
package siteanalysis
