// Package pageanalysis implements the deep-scan stage: pull the full
// ad inventory for one tracked page, persist it, surface the page's
// destination URL, and hand the URL to site analysis.
package pageanalysis
