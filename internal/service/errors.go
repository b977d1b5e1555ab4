package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any ValidationError via errors.Is
	ErrValidation = errors.New("invalid constraints")
	// ErrCatalogUnavailable matches any CatalogUnavailableError via errors.Is
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// ValidationError reports malformed or missing required input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CatalogUnavailableError wraps a storage failure observed while running a tier.
// The relaxation loop stops at the tier that failed.
type CatalogUnavailableError struct {
	Tier int
	Err  error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unavailable at tier %d: %v", e.Tier, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error {
	return e.Err
}

func (e *CatalogUnavailableError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}
