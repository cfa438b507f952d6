package domain

import (
	"errors"
	"fmt"
)

// Sentinel validation errors. Services wrap these with context; the API
// layer maps them to 4xx responses via errors.Is.
var (
	ErrInvalidURL             = errors.New("invalid url")
	ErrInvalidCountry         = errors.New("invalid country code")
	ErrInvalidLanguage        = errors.New("invalid language code")
	ErrInvalidCurrency        = errors.New("invalid currency code")
	ErrInvalidCategory        = errors.New("invalid category")
	ErrInvalidProductCount    = errors.New("invalid product count")
	ErrInvalidScanID          = errors.New("invalid scan id")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidRanking         = errors.New("invalid ranking criteria")
	ErrInvalidTier            = errors.New("invalid tier")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// InvalidTransitionError reports a page-state transition outside the
// allowed-transition table.
type InvalidTransitionError struct {
	From PageState
	To   PageState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

// Is lets errors.Is(err, ErrInvalidStateTransition) match.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
