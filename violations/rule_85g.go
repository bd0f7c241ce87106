package violations

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
)

// Rule85G flags OTDL carriers who were not worked to their hour limit on a
// day when WAL/NL carriers at the same station were given overtime.
//
// Remedy: the hours the OTDL carrier had left under their limit, capped at
// the overtime the WAL/NL carriers actually worked. The trigger carrier is
// the WAL/NL carrier with the most overtime that day.
type Rule85G struct{}

func (Rule85G) Article() generic.Article { return generic.Article85G }

func (Rule85G) Applies(s roster.ListStatus) bool { return s.IsOTDL() }

func (r Rule85G) Evaluate(f *Facts) []Record {
	given := regularOvertime(f)

	var out []Record
	for _, d := range f.Days {
		if !f.inRange(d) || !r.Applies(d.ListStatus()) {
			continue
		}
		rec := newRecord(r.Article(), d)
		limit := d.Status.Limit(f.Config.DefaultOTDLLimit)
		ind := f.Excusals.Lookup(d.CarrierID, d.Date)
		ot := given[stationDayOf(d)]

		switch {
		case f.maximized(d.Date):
			rec.clear(ReasonOTDLMaximized)
		// A day at the limit is auto-excused too; report the more specific reason.
		case d.TotalHours.GreaterThanOrEqual(limit):
			rec.clear(ReasonReachedLimit)
		case ind.Excused && ind.Kind == excusal.KindManual:
			rec.clear(ReasonExcusedManual)
		case ind.Excused:
			rec.clear(ReasonExcusedAuto)
		case ot == nil || !ot.total.IsPositive():
			rec.clear(ReasonNoWALOvertime)
		default:
			rec.TriggerCarrierID = carrierRef(ot.top)
			rec.violate(generic.MinHours(limit.Sub(d.TotalHours), ot.total))
		}
		out = append(out, rec)
	}
	return out
}

type stationOvertime struct {
	total decimal.Decimal
	top   generic.CarrierID
}

// regularOvertime sums WAL/NL overtime per station-day and remembers the
// carrier who worked the most of it.
func regularOvertime(f *Facts) map[stationDay]*stationOvertime {
	type entry struct {
		carrier generic.CarrierID
		hours   decimal.Decimal
	}
	byStation := make(map[stationDay][]entry)
	for _, d := range f.Days {
		if !d.ListStatus().IsWALOrNL() {
			continue
		}
		ot := d.Overtime(f.Config.OvertimeThreshold)
		if !ot.IsPositive() {
			continue
		}
		k := stationDayOf(d)
		byStation[k] = append(byStation[k], entry{carrier: d.CarrierID, hours: ot})
	}

	out := make(map[stationDay]*stationOvertime, len(byStation))
	for k, entries := range byStation {
		sort.Slice(entries, func(i, j int) bool {
			if c := entries[i].hours.Cmp(entries[j].hours); c != 0 {
				return c > 0
			}
			return entries[i].carrier < entries[j].carrier
		})
		so := &stationOvertime{total: decimal.Zero, top: entries[0].carrier}
		for _, e := range entries {
			so.total = so.total.Add(e.hours)
		}
		out[k] = so
	}
	return out
}
