package violations

import (
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
)

// Rule85F flags more than 10 hours on the carrier's own route on a
// scheduled day. Remedy: own-route hours beyond 10.
type Rule85F struct{}

func (Rule85F) Article() generic.Article { return generic.Article85F }

func (Rule85F) Applies(s roster.ListStatus) bool { return regularOrPTF(s) }

func (r Rule85F) Evaluate(f *Facts) []Record {
	var out []Record
	for _, d := range f.Days {
		if !f.inRange(d) || !r.Applies(d.ListStatus()) {
			continue
		}
		rec := newRecord(r.Article(), d)
		if d.NonScheduled {
			rec.clear(ReasonNSDay)
		} else {
			rec.violate(generic.Excess(d.OwnRouteHours, f.Config.OwnRouteLimit))
		}
		out = append(out, rec)
	}
	return out
}

// Rule85FNS flags work beyond 8 hours on the carrier's non-scheduled day.
// Remedy: total hours beyond 8.
type Rule85FNS struct{}

func (Rule85FNS) Article() generic.Article { return generic.Article85FNS }

func (Rule85FNS) Applies(s roster.ListStatus) bool { return regularOrPTF(s) }

func (r Rule85FNS) Evaluate(f *Facts) []Record {
	var out []Record
	for _, d := range f.Days {
		if !f.inRange(d) || !r.Applies(d.ListStatus()) {
			continue
		}
		rec := newRecord(r.Article(), d)
		if !d.NonScheduled {
			rec.clear(ReasonNotNSDay)
		} else {
			rec.violate(generic.Excess(d.TotalHours, f.Config.OvertimeThreshold))
		}
		out = append(out, rec)
	}
	return out
}
