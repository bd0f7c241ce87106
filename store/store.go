/*
Package store defines persistence for the evaluation inputs and outputs.

PURPOSE:
  The engine itself is pure: it takes a snapshot and returns a ledger. The
  store holds everything around it. Roster history, clock rings, excusal
  overrides, the exclusion calendar and maximized dates are inputs; the
  violation ledger and the run log are outputs.

KEY INTERFACES:
  Store: Every table the application service reads or writes

WRITE SEMANTICS:
  - Status records are versions: saving one with an existing
    (carrier, effective date) replaces it.
  - Ring imports replace every stored row of each carrier-day they touch,
    so re-importing a day's rings is idempotent.
  - Excusal entries append. Resolution picks the latest per source.
  - The exclusion calendar is replaced as a whole.
  - ReplaceLedger deletes every record dated inside the range and writes the
    new ones in one transaction. A reader never sees half a run.

IMPLEMENTATIONS:
  - store/sqlite: SQLite via mattn/go-sqlite3
  - store/memory: In-memory, for tests and the "memory" driver

SEE ALSO:
  - app/service.go: The only writer of ledger and runs
*/
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Roster
	SaveStatus(ctx context.Context, rec roster.StatusRecord) error
	Statuses(ctx context.Context) ([]roster.StatusRecord, error)

	// Clock rings
	ImportRings(ctx context.Context, rows []rings.Row) error
	Rings(ctx context.Context, p generic.Period) ([]rings.Row, error)

	// Excusal overrides and automatic entries
	AddExcusal(ctx context.Context, rec excusal.Record) error
	Excusals(ctx context.Context, p generic.Period) ([]excusal.Record, error)

	// Exclusion calendar
	ReplaceExclusions(ctx context.Context, periods []exclusion.Period) error
	Exclusions(ctx context.Context) ([]exclusion.Period, error)

	// OTDL maximized dates
	SetMaximized(ctx context.Context, date generic.Date, maximized bool) error
	MaximizedDates(ctx context.Context, p generic.Period) ([]generic.Date, error)

	// Ledger
	ReplaceLedger(ctx context.Context, rng generic.Period, records []violations.Record) error
	Violations(ctx context.Context, q violations.Query) ([]violations.Record, error)

	// Run log
	SaveRun(ctx context.Context, run Run) error
	Runs(ctx context.Context, limit int) ([]Run, error)

	Close() error
}

// =============================================================================
// RUN LOG
// =============================================================================

// Run is one line of the evaluation run log.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	Range      generic.Period  `json:"range"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
	Outcome    string          `json:"outcome"`
	Records    int             `json:"records"`
	Violations int             `json:"violations"`
	Remedy     decimal.Decimal `json:"remedy_hours"`
	Issues     int             `json:"issues"`
	Error      string          `json:"error,omitempty"`
}

// RunOf summarizes a finished engine run.
func RunOf(rng generic.Period, res *violations.Result) Run {
	return Run{
		ID:         res.RunID,
		Range:      rng,
		StartedAt:  res.StartedAt,
		Duration:   res.Duration,
		Outcome:    violations.OutcomeSuccess,
		Records:    res.Ledger.Totals.Records,
		Violations: res.Ledger.Totals.Violations,
		Remedy:     res.Ledger.Totals.Remedy,
		Issues:     len(res.Issues),
	}
}

// CarrierDay identifies the rings of one carrier on one date.
type CarrierDay struct {
	CarrierID generic.CarrierID
	Date      generic.Date
}

// RingDays lists the distinct carrier-days of rows in first-seen order,
// with carrier IDs normalized.
func RingDays(rows []rings.Row) []CarrierDay {
	seen := make(map[CarrierDay]bool)
	var out []CarrierDay
	for _, r := range rows {
		k := CarrierDay{CarrierID: generic.NormalizeCarrierID(string(r.CarrierID)), Date: r.Date}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
