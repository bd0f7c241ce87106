package violations

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
)

// Rule85D flags WAL/NL carriers who worked overtime off their bid
// assignment while an OTDL carrier at the same station was available to
// take it. The remedy is the off-route overtime: the lesser of off-route
// hours and hours beyond 8, or the whole day on the NS day.
//
// An OTDL carrier is available when at work with hours left under their
// limit. A day of sick, annual, holiday or guaranteed leave (or NS protect)
// takes the carrier out of the pool. A manual excusal does not: it releases
// the carrier from 8.5.G, it never takes away a WAL/NL carrier's 8.5.D claim.
type Rule85D struct{}

func (Rule85D) Article() generic.Article { return generic.Article85D }

func (Rule85D) Applies(s roster.ListStatus) bool { return s.IsWALOrNL() }

func (r Rule85D) Evaluate(f *Facts) []Record {
	pools := availableOTDL(f)

	var out []Record
	for _, d := range f.Days {
		if !f.inRange(d) || !r.Applies(d.ListStatus()) {
			continue
		}
		rec := newRecord(r.Article(), d)
		overtime := d.OffRouteOvertime(f.Config.OvertimeThreshold)

		switch pool := pools[stationDayOf(d)]; {
		case f.maximized(d.Date):
			rec.clear(ReasonOTDLMaximized)
		case !overtime.IsPositive():
			rec.clear(ReasonNoOvertime)
		case len(pool) == 0:
			rec.clear(ReasonNoAvailableOTDL)
		default:
			rec.TriggerCarrierID = carrierRef(pool[0].carrier)
			rec.violate(overtime)
		}
		out = append(out, rec)
	}
	return out
}

type otdlCandidate struct {
	carrier   generic.CarrierID
	remaining decimal.Decimal
}

// availableOTDL returns, per station-day, the OTDL carriers at work who
// still had hours left under their limit. Each pool is ordered
// by remaining capacity, most first, then by carrier.
func availableOTDL(f *Facts) map[stationDay][]otdlCandidate {
	pools := make(map[stationDay][]otdlCandidate)
	for _, d := range f.Days {
		if !d.ListStatus().IsOTDL() || d.Indicator.ExcusesOTDL() {
			continue
		}
		remaining := d.Status.Limit(f.Config.DefaultOTDLLimit).Sub(d.TotalHours)
		if !remaining.IsPositive() {
			continue
		}
		k := stationDayOf(d)
		pools[k] = append(pools[k], otdlCandidate{carrier: d.CarrierID, remaining: remaining})
	}
	for _, pool := range pools {
		sort.Slice(pool, func(i, j int) bool {
			if c := pool[i].remaining.Cmp(pool[j].remaining); c != 0 {
				return c > 0
			}
			return pool[i].carrier < pool[j].carrier
		})
	}
	return pools
}
