/*
errors.go - Centralized error types for the overtime engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Data integrity - a malformed or unresolvable input row. Recovered
     locally: the affected carrier-day is excluded (or flagged) and the
     problem lands in the run's review list. Never fatal.
  2. Aggregation conflict - an evaluator broke its contract (duplicate or
     missing record). Fatal: the run is aborted, no ledger is produced.
  3. Configuration - malformed or overlapping exclusion periods, bad
     thresholds. Fatal at load time, before any evaluation starts.

USAGE:
  if errors.Is(err, generic.ErrAggregationConflict) {
      // engine bug, report and abort
  }

  var die *generic.DataIntegrityError
  if errors.As(err, &die) {
      review = append(review, die)
  }

SEE ALSO:
  - rings/prepare.go: Produces DataIntegrityError
  - violations/ledger.go: Produces AggregationConflictError
  - exclusion/calendar.go, factory/config.go: Produce ConfigurationError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDataIntegrity marks a problem with one input row or carrier-day.
	ErrDataIntegrity = errors.New("data integrity")

	// ErrAggregationConflict marks an evaluator contract violation.
	ErrAggregationConflict = errors.New("aggregation conflict")

	// ErrConfiguration marks invalid engine or calendar configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrCarrierNotFound is returned when a referenced carrier doesn't exist.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrRunInProgress is returned when an evaluation is requested while
	// another one holds the store snapshot.
	ErrRunInProgress = errors.New("evaluation already in progress")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IntegrityKind classifies data-integrity findings.
type IntegrityKind string

const (
	IntegrityMissingStatus    IntegrityKind = "missing_status"
	IntegrityMalformedMoves   IntegrityKind = "malformed_moves"
	IntegrityMalformedHours   IntegrityKind = "malformed_hours"
	IntegritySuspectMove      IntegrityKind = "suspect_move"
	IntegrityNegativeOwnRoute IntegrityKind = "negative_own_route"
)

// DataIntegrityError describes a problem with one carrier-day of input.
// Excluded reports whether the carrier-day was dropped from evaluation or
// only flagged for review.
type DataIntegrityError struct {
	Kind      IntegrityKind
	CarrierID CarrierID
	Date      Date
	Message   string
	Excluded  bool
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s: %s on %s: %s", e.Kind, e.CarrierID, e.Date, e.Message)
}

func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// AggregationConflictError reports a (carrier, date, article) key that was
// emitted twice, emitted without being expected, or expected and never
// emitted.
type AggregationConflictError struct {
	CarrierID CarrierID
	Date      Date
	Article   string
	Reason    string // "duplicate", "unexpected" or "missing"
}

func (e *AggregationConflictError) Error() string {
	return fmt.Sprintf("aggregation conflict: %s record for %s on %s (%s)",
		e.Reason, e.CarrierID, e.Date, e.Article)
}

func (e *AggregationConflictError) Unwrap() error {
	return ErrAggregationConflict
}

// ConfigurationError reports an invalid configuration field.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true if the error must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAggregationConflict) || errors.Is(err, ErrConfiguration)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDataIntegrity)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCarrierNotFound)
}
