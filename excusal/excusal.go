/*
Package excusal resolves whether an OTDL carrier was excused from
maximization on a given day.

PURPOSE:
  An OTDL carrier who was excused cannot be owed 8.5.G remedy for the day.
  Excusal state comes from two sources: manual overrides entered by a
  steward, and automatic excusals the engine derives from the rings
  themselves.

PRECEDENCE (highest first):
  1. Manual record for that exact date (latest entered wins)
  2. Automatic record (latest entered wins)
  3. Absent: not excused

  A manual "not excused" beats an automatic "excused". That is how a steward
  reverses an automatic excusal.

AUTOMATIC EXCUSALS:
  Derived for every OTDL carrier-day when any of these hold:
  - the carrier's hours met or exceeded their hour limit
  - the day carries a sick, NS protect, holiday, guaranteed or annual
    indicator
  - the day is a Sunday

SEE ALSO:
  - resolver.go: Table construction over prepared days
*/
package excusal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// RECORDS
// =============================================================================

type Source string

const (
	SourceManual    Source = "manual"
	SourceAutomatic Source = "automatic"
)

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceManual:
		return SourceManual, nil
	case SourceAutomatic:
		return SourceAutomatic, nil
	}
	return "", fmt.Errorf("unknown excusal source %q", s)
}

// Record is one excusal entry for a carrier-day. Several may exist for the
// same carrier-day.
type Record struct {
	CarrierID generic.CarrierID `json:"carrier_id"`
	Date      generic.Date      `json:"date"`
	Source    Source            `json:"source"`
	Excused   bool              `json:"excused"`
	EnteredAt time.Time         `json:"entered_at"`
}

// =============================================================================
// INDICATOR - Tagged excusal state
// =============================================================================

// Kind tags where an effective excusal came from.
type Kind int

const (
	KindAbsent Kind = iota
	KindAutomatic
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindAutomatic:
		return "automatic"
	}
	return "absent"
}

// Indicator is the resolved excusal state of one carrier-day.
type Indicator struct {
	Kind    Kind
	Excused bool
}

// Absent is the state of a carrier-day with no excusal records.
var Absent = Indicator{Kind: KindAbsent}

// Resolve applies the precedence rules to all records of one carrier-day.
// Within a source the record with the latest EnteredAt wins; records entered
// at the same instant resolve to the one that appears last.
func Resolve(records []Record) Indicator {
	var (
		manual, auto       *Record
		manualIdx, autoIdx int
	)
	later := func(cur *Record, curIdx int, cand *Record, candIdx int) bool {
		if cur == nil {
			return true
		}
		if !cand.EnteredAt.Equal(cur.EnteredAt) {
			return cand.EnteredAt.After(cur.EnteredAt)
		}
		return candIdx > curIdx
	}

	for i := range records {
		r := &records[i]
		switch r.Source {
		case SourceManual:
			if later(manual, manualIdx, r, i) {
				manual, manualIdx = r, i
			}
		case SourceAutomatic:
			if later(auto, autoIdx, r, i) {
				auto, autoIdx = r, i
			}
		}
	}

	switch {
	case manual != nil:
		return Indicator{Kind: KindManual, Excused: manual.Excused}
	case auto != nil:
		return Indicator{Kind: KindAutomatic, Excused: auto.Excused}
	}
	return Absent
}

// Effective is the resolved excusal of one OTDL carrier-day.
type Effective struct {
	CarrierID generic.CarrierID `json:"carrier_id"`
	Date      generic.Date      `json:"date"`
	Excused   bool              `json:"excused"`
	Source    string            `json:"source"`
}

// =============================================================================
// TABLE
// =============================================================================

type key struct {
	carrier generic.CarrierID
	date    generic.Date
}

// Table holds the effective excusal of every OTDL carrier-day of a run.
type Table struct {
	byDay map[key]Indicator
}

// Lookup returns the carrier-day's indicator. Unknown keys are Absent.
func (t *Table) Lookup(carrier generic.CarrierID, date generic.Date) Indicator {
	if t == nil {
		return Absent
	}
	if ind, ok := t.byDay[key{carrier, date}]; ok {
		return ind
	}
	return Absent
}

// Excused is shorthand for Lookup(...).Excused.
func (t *Table) Excused(carrier generic.CarrierID, date generic.Date) bool {
	return t.Lookup(carrier, date).Excused
}

// Entries returns one Effective per carrier-day, ordered by carrier then date.
func (t *Table) Entries() []Effective {
	if t == nil {
		return nil
	}
	out := make([]Effective, 0, len(t.byDay))
	for k, ind := range t.byDay {
		out = append(out, Effective{
			CarrierID: k.carrier,
			Date:      k.date,
			Excused:   ind.Excused,
			Source:    ind.Kind.String(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CarrierID != out[j].CarrierID {
			return out[i].CarrierID < out[j].CarrierID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byDay)
}
