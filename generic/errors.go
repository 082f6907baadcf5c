/*
errors.go - Centralized error types for the engine boundaries

PURPOSE:
  The calculators themselves never fail: unknown categories are skipped and
  corrupt numbers become zero. Errors only exist at the boundaries where
  configuration is merged, documents are decoded and quotes are stored.
  All of them live here for consistency and discoverability.

ERROR CATEGORIES:
  1. Configuration errors - malformed org overrides, decreasing thresholds
  2. Document errors - unreadable Preventivo payloads
  3. Store errors - missing quotes or organizations

USAGE:
  if errors.Is(err, generic.ErrInvalidThresholds) {
      // reject the override before it reaches the engine
  }

SEE ALSO:
  - factory/overrides.go: Wraps these with the offending path
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownTrack is returned when an override names a track that is not
	// registered.
	ErrUnknownTrack = errors.New("unknown track")

	// ErrUnknownCategory is returned when an override names a category the
	// track does not define. The calculators skip unknown categories; only
	// the merge step rejects them.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidThresholds is returned when configured thresholds decrease.
	ErrInvalidThresholds = errors.New("invalid thresholds: levels must be non-decreasing")

	// ErrInvalidOverride is returned when an org override fails validation.
	ErrInvalidOverride = errors.New("invalid override")

	// ErrInvalidDocument is returned when a Preventivo document cannot be read.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPeriod is returned for an impossible competition month.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrQuoteNotFound is returned when a stored quote doesn't exist.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrOrganizationNotFound is returned when no rate overrides are stored
	// for an organization.
	ErrOrganizationNotFound = errors.New("organization not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ThresholdOrderError reports the first decreasing threshold.
type ThresholdOrderError struct {
	Index    int
	Previous decimal.Decimal
	Value    decimal.Decimal
}

func (e *ThresholdOrderError) Error() string {
	return fmt.Sprintf("threshold %d (%s) is lower than threshold %d (%s)",
		e.Index+1, e.Value, e.Index, e.Previous)
}

func (e *ThresholdOrderError) Unwrap() error {
	return ErrInvalidThresholds
}

// OverrideError locates a rejected override field.
type OverrideError struct {
	Path   string // e.g. "mobile.categories.tied.pointWeight"
	Reason string
	Err    error
}

func (e *OverrideError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *OverrideError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidOverride
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownTrack) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInvalidThresholds) ||
		errors.Is(err, ErrInvalidOverride) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuoteNotFound) ||
		errors.Is(err, ErrOrganizationNotFound)
}
