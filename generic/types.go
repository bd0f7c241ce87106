/*
Package generic provides the shared primitives of the overtime engine.

PURPOSE:
  This package contains the domain-neutral building blocks every other
  package relies on: calendar days, inclusive periods and service weeks,
  exact hour quantities, carrier identity, the article identifiers and the
  error taxonomy. Rule logic lives in the violations package.

KEY CONCEPTS IN THIS FILE (types.go):
  - CarrierID: Normalized carrier identity (names are matched loosely)
  - Hours: decimal.Decimal helpers for exact hour arithmetic
  - Remedy rounding: the one place the rounding policy lives

DESIGN PRINCIPLES:
  1. Precision: Hours use decimal.Decimal, never float64
  2. One rounding rule: remedies round half-up to hundredths, after exact math
  3. Loose identity: "  Smith,  J " and "smith, j" are the same carrier

SEE ALSO:
  - time.go: Date type
  - article.go: Article identifiers and evaluation order
  - period.go: Period and service weeks
  - errors.go: DataIntegrityError, AggregationConflictError, ConfigurationError
*/
package generic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// CarrierID identifies a carrier. Historical data keys carriers by name, so
// IDs are always stored normalized.
type CarrierID string

// Station identifies a delivery unit. Cross-carrier rules only join carriers
// of the same station.
type Station string

// NormalizeCarrierID lower-cases the name and collapses whitespace runs.
func NormalizeCarrierID(s string) CarrierID {
	return CarrierID(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}

func NormalizeStation(s string) Station {
	return Station(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}

// =============================================================================
// HOURS - Exact decimal hour quantities
// =============================================================================

// RemedyPlaces is the number of decimal places remedy hours are kept to.
const RemedyPlaces = 2

var (
	Eight  = decimal.NewFromInt(8)
	Ten    = decimal.NewFromInt(10)
	Twelve = decimal.NewFromInt(12)
	Sixty  = decimal.NewFromInt(60)
)

// Hours builds an hour quantity from a float literal (tests, defaults).
func Hours(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// ParseHours parses a clock-ring hour field. Blank and "none" mean zero.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid hours %q: %w", s, err)
	}
	return d, nil
}

// MustParseHours is ParseHours for literals; it panics on bad input.
func MustParseHours(s string) decimal.Decimal {
	d, err := ParseHours(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Excess returns max(0, v - threshold).
func Excess(v, threshold decimal.Decimal) decimal.Decimal {
	if v.GreaterThan(threshold) {
		return v.Sub(threshold)
	}
	return decimal.Zero
}

// RoundRemedy applies the remedy rounding policy: clamp at zero, then round
// half-up to hundredths. Inputs are non-negative after the clamp, so
// decimal's half-away-from-zero rounding is half-up.
func RoundRemedy(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v.Round(RemedyPlaces)
}

func MinHours(a, b decimal.Decimal) decimal.Decimal { return decimal.Min(a, b) }
