package logger

import (
	"regexp"
	"strings"
)

// tokenRe matches long opaque credentials (ads-library access tokens,
// signing keys) so they never land in log output in full.
var tokenRe = regexp.MustCompile(`[A-Za-z0-9_\-]{24,}`)

// RedactToken keeps the first four characters of a credential and masks
// the rest.
func RedactToken(tok string) string {
	if len(tok) <= 8 {
		return "****"
	}
	return tok[:4] + "****"
}

// redactValue masks credential-bearing fields and any embedded
// token-shaped substrings in URL-like values.
func redactValue(key, val string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "token") || strings.Contains(k, "secret") || strings.Contains(k, "key") {
		return RedactToken(val)
	}
	if strings.Contains(val, "access_token=") {
		return tokenRe.ReplaceAllStringFunc(val, RedactToken)
	}
	return val
}
