package keywordsearch

import "errors"

var (
	// ErrInvalidKeyword is returned when the keyword is empty after
	// trimming.
	ErrInvalidKeyword = errors.New("keywordsearch: keyword must not be empty")
)
