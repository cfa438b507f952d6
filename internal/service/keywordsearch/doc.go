// Package keywordsearch implements the discovery stage: query the ads
// library for a keyword, group results by advertiser, extract each
// advertiser's storefront URL, and upsert pages and ads. Every
// discovered page gets a follow-up scan task on the queue.
package keywordsearch
