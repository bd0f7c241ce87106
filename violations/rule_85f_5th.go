package violations

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
)

// Rule85F5th flags the fifth and later overtime day of a service week.
//
// Only scheduled days count: an NS day neither takes an ordinal slot nor
// qualifies itself, and neither does Sunday. A day qualifies when its paid
// hours exceed 8. Days before the evaluated range but inside the same
// service week count toward the ordinal; days excluded for this article do
// not count at all.
//
// Remedy on a violating day: paid hours beyond 8.
type Rule85F5th struct{}

func (Rule85F5th) Article() generic.Article { return generic.Article85F5th }

func (Rule85F5th) Applies(s roster.ListStatus) bool { return regularOrPTF(s) }

func (r Rule85F5th) Evaluate(f *Facts) []Record {
	threshold := f.Config.OvertimeThreshold

	var out []Record
	for _, week := range serviceWeeks(f.Days, f.Config.WeekStart, r.Applies) {
		ordinal := 0
		for _, d := range week {
			qualifies := qualifiesFor5th(d, threshold)
			if qualifies {
				ordinal++
			}
			if !f.inRange(d) {
				continue
			}

			rec := newRecord(r.Article(), d)
			switch {
			case d.NonScheduled:
				rec.clear(ReasonNSDay)
			case d.Date.IsSunday():
				rec.clear(ReasonSunday)
			case !qualifies:
				rec.clear(ReasonNoOvertime)
			case ordinal < f.Config.FifthDayOrdinal:
				rec.Ordinal = ordinal
				rec.clear(ReasonBelowThreshold)
			default:
				rec.Ordinal = ordinal
				rec.violate(generic.Excess(d.PaidHours, threshold))
			}
			out = append(out, rec)
		}
	}
	return out
}

// qualifiesFor5th reports a scheduled, non-Sunday day with overtime.
func qualifiesFor5th(d rings.Day, threshold decimal.Decimal) bool {
	return !d.NonScheduled && !d.Date.IsSunday() && d.PaidHours.GreaterThan(threshold)
}
