package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductNotFound    = errors.New("product not found")
	ErrStoreUnavailable   = errors.New("catalog store unavailable")
	ErrInvariantViolation = errors.New("catalog invariant violation")
)
