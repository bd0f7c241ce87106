/*
Package rings turns raw clock-ring rows into per-carrier-per-day facts.

PURPOSE:
  Clock rings arrive as loosely typed rows: hours as text, route moves as a
  free-form "start,end,route" list, day codes and leave types as labels.
  The preparer groups rows by (carrier, date), parses the hours and moves,
  resolves the carrier's effective-dated status and produces one Day per
  carrier per day. Every rule evaluator reads Days, never rows.

DATA INTEGRITY:
  A carrier-day with no resolvable status, malformed moves or malformed hours
  is excluded from evaluation and reported as a DataIntegrityError. A move
  segment longer than the sanity bound, or a negative own-route remainder, is
  kept (the latter clamped to zero) and flagged for review.

SEE ALSO:
  - moves.go: Move list parsing
  - display.go: Display indicators derived from code and leave type
  - prepare.go: Grouping and derivation
*/
package rings

import (
	"strings"

	"github.com/warp/overtime-engine/generic"
)

// Row is one raw clock-ring row as supplied by the source-of-record store.
type Row struct {
	Date      generic.Date      `json:"date"`
	CarrierID generic.CarrierID `json:"carrier_id"`
	Total     string            `json:"total"`
	Moves     string            `json:"moves"`
	Code      string            `json:"code"`
	LeaveType string            `json:"leave_type"`
	LeaveTime string            `json:"leave_time"`
	BeginTime string            `json:"begin_time"`
	EndTime   string            `json:"end_time"`
}

type dayKey struct {
	carrier generic.CarrierID
	date    generic.Date
}

// isBlank treats the placeholders used by the upstream store as empty.
func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "nan", "no moves":
		return true
	}
	return false
}

func normalizeLabel(s string) string {
	if isBlank(s) {
		return "none"
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
