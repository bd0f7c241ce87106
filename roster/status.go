// Package roster holds the effective-dated carrier roster: list status, OTDL
// hour limit, bid route, station and non-scheduled day, each versioned by the
// date it took effect.
package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// LIST STATUS
// =============================================================================

type ListStatus string

const (
	StatusOTDL ListStatus = "otdl" // Overtime Desired List
	StatusWAL  ListStatus = "wal"  // Work Assignment List
	StatusNL   ListStatus = "nl"   // No List
	StatusPTF  ListStatus = "ptf"  // Part-Time Flexible
)

func ParseListStatus(s string) (ListStatus, error) {
	switch ListStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOTDL:
		return StatusOTDL, nil
	case StatusWAL:
		return StatusWAL, nil
	case StatusNL:
		return StatusNL, nil
	case StatusPTF:
		return StatusPTF, nil
	}
	return "", fmt.Errorf("unknown list status %q", s)
}

func (s ListStatus) IsOTDL() bool { return s == StatusOTDL }

// IsWALOrNL reports the regularly scheduled, non-OTDL classifications.
func (s ListStatus) IsWALOrNL() bool { return s == StatusWAL || s == StatusNL }

func (s ListStatus) String() string { return strings.ToUpper(string(s)) }

// =============================================================================
// NON-SCHEDULED DAY
// =============================================================================

// NSDay is a carrier's non-scheduled day code. Units publish it as a color;
// a plain weekday name is accepted as well. "none" (or blank) means the
// carrier has no fixed NS day.
type NSDay string

var nsColors = map[string]time.Weekday{
	"yellow": time.Saturday,
	"blue":   time.Monday,
	"green":  time.Tuesday,
	"brown":  time.Wednesday,
	"red":    time.Thursday,
	"black":  time.Friday,
}

// Weekday returns the weekday the code stands for.
func (n NSDay) Weekday() (time.Weekday, bool) {
	code := strings.ToLower(strings.TrimSpace(string(n)))
	if wd, ok := nsColors[code]; ok {
		return wd, true
	}
	return generic.ParseWeekday(code)
}

// Validate accepts known colors, weekday names and "none".
func (n NSDay) Validate() error {
	code := strings.ToLower(strings.TrimSpace(string(n)))
	if code == "" || code == "none" {
		return nil
	}
	if _, ok := n.Weekday(); !ok {
		return fmt.Errorf("unknown ns day code %q", string(n))
	}
	return nil
}

// =============================================================================
// STATUS RECORD
// =============================================================================

// StatusRecord is one version of a carrier's roster entry. It applies from
// EffectiveDate until the next record for the same carrier.
type StatusRecord struct {
	CarrierID     generic.CarrierID `json:"carrier_id"`
	EffectiveDate generic.Date      `json:"effective_date"`
	ListStatus    ListStatus        `json:"list_status"`

	// HourLimit is only meaningful for OTDL carriers (10, 11.5 or 12).
	HourLimit decimal.Decimal `json:"hour_limit"`

	Route   string          `json:"route"`
	Station generic.Station `json:"station"`
	NSDay   NSDay           `json:"ns_day"`
}

// Limit returns the OTDL hour limit, falling back to def when unset.
func (r StatusRecord) Limit(def decimal.Decimal) decimal.Decimal {
	if r.HourLimit.IsPositive() {
		return r.HourLimit
	}
	return def
}

// IsNonScheduled reports whether d falls on the record's NS day.
func (r StatusRecord) IsNonScheduled(d generic.Date) bool {
	wd, ok := r.NSDay.Weekday()
	return ok && d.Weekday() == wd
}

// IsOwnRoute reports whether a move route code is the carrier's bid route.
func (r StatusRecord) IsOwnRoute(route string) bool {
	return strings.EqualFold(strings.TrimSpace(route), strings.TrimSpace(r.Route))
}

// Normalized returns the record with carrier, station and list status in
// canonical form, validated.
func (r StatusRecord) Normalized() (StatusRecord, error) {
	r.CarrierID = generic.NormalizeCarrierID(string(r.CarrierID))
	r.Station = generic.NormalizeStation(string(r.Station))
	status, err := ParseListStatus(string(r.ListStatus))
	if err != nil {
		return StatusRecord{}, err
	}
	r.ListStatus = status
	if err := r.Validate(); err != nil {
		return StatusRecord{}, err
	}
	return r, nil
}

// Validate checks the fields a record must carry before it can be resolved.
func (r StatusRecord) Validate() error {
	if r.CarrierID == "" {
		return fmt.Errorf("status record: carrier is required")
	}
	if r.EffectiveDate.IsZero() {
		return fmt.Errorf("status record for %s: effective date is required", r.CarrierID)
	}
	if _, err := ParseListStatus(string(r.ListStatus)); err != nil {
		return fmt.Errorf("status record for %s: %w", r.CarrierID, err)
	}
	if r.HourLimit.IsNegative() {
		return fmt.Errorf("status record for %s: negative hour limit", r.CarrierID)
	}
	return r.NSDay.Validate()
}
