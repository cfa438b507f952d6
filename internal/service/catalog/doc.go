// Package catalog sizes a verified storefront's product catalog from
// its sitemaps. The count feeds the catalog score component, and a
// non-empty catalog activates the page.
package catalog
