package excusal

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
)

// Resolver builds excusal tables for prepared days.
type Resolver struct {
	// DefaultLimit applies to OTDL carriers whose status carries no limit.
	DefaultLimit decimal.Decimal
}

func NewResolver(defaultLimit decimal.Decimal) *Resolver {
	if !defaultLimit.IsPositive() {
		defaultLimit = generic.Twelve
	}
	return &Resolver{DefaultLimit: defaultLimit}
}

// AutoExcused reports whether the day itself excuses an OTDL carrier.
func (r *Resolver) AutoExcused(day rings.Day) bool {
	if day.TotalHours.GreaterThanOrEqual(day.Status.Limit(r.DefaultLimit)) {
		return true
	}
	if day.Indicator.ExcusesOTDL() {
		return true
	}
	return day.Date.IsSunday()
}

// Table resolves one Indicator per OTDL carrier-day in days. Records for
// carriers that are not OTDL on the date, or for days without rings, are
// ignored.
//
// Derived automatic excusals reflect the current rings, so they supersede
// any stored automatic record for the same day.
func (r *Resolver) Table(days []rings.Day, records []Record) *Table {
	stored := make(map[key][]Record)
	for _, rec := range records {
		k := key{generic.NormalizeCarrierID(string(rec.CarrierID)), rec.Date}
		stored[k] = append(stored[k], rec)
	}

	t := &Table{byDay: make(map[key]Indicator)}
	for _, day := range days {
		if !day.ListStatus().IsOTDL() {
			continue
		}
		k := key{day.CarrierID, day.Date}
		recs := stored[k]
		if r.AutoExcused(day) {
			recs = append(recs[:len(recs):len(recs)], Record{
				CarrierID: day.CarrierID,
				Date:      day.Date,
				Source:    SourceAutomatic,
				Excused:   true,
				EnteredAt: latestAutomatic(recs),
			})
		}
		t.byDay[k] = Resolve(recs)
	}
	return t
}

func latestAutomatic(recs []Record) time.Time {
	var latest time.Time
	for _, rec := range recs {
		if rec.Source == SourceAutomatic && rec.EnteredAt.After(latest) {
			latest = rec.EnteredAt
		}
	}
	return latest
}
