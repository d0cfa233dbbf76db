package models

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable signals that the provider was unreachable and no cached
// fallback existed for the requested series.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrPositionNotFound signals a lookup for an unknown position ID.
var ErrPositionNotFound = errors.New("position not found")

// ProviderErrorKind classifies provider failures.
type ProviderErrorKind string

const (
	ProviderErrTransient   ProviderErrorKind = "transient"
	ProviderErrNotFound    ProviderErrorKind = "not_found"
	ProviderErrRateLimited ProviderErrorKind = "rate_limited"
)

// ProviderError wraps a market data provider failure with its classification.
type ProviderError struct {
	Kind   ProviderErrorKind
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s error for %s: %v", e.Kind, e.Symbol, e.Err)
	}
	return fmt.Sprintf("provider %s error for %s", e.Kind, e.Symbol)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// InvalidPositionError reports a position rejected at the persistence boundary.
type InvalidPositionError struct {
	Field  string
	Reason string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid position: %s", e.Reason)
}

// IsInvalidPosition reports whether err is an InvalidPositionError.
func IsInvalidPosition(err error) bool {
	var ipe *InvalidPositionError
	return errors.As(err, &ipe)
}
