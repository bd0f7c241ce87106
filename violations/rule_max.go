package violations

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
)

// RuleMax12 flags more than 12 hours worked in a day by a carrier not on
// the OTDL. Remedy: total hours beyond 12.
type RuleMax12 struct{}

func (RuleMax12) Article() generic.Article { return generic.ArticleMax12 }

func (RuleMax12) Applies(s roster.ListStatus) bool { return regularOrPTF(s) }

func (r RuleMax12) Evaluate(f *Facts) []Record {
	var out []Record
	for _, d := range f.Days {
		if !f.inRange(d) || !r.Applies(d.ListStatus()) {
			continue
		}
		rec := newRecord(r.Article(), d)
		rec.violate(generic.Excess(d.TotalHours, f.Config.DailyMax))
		out = append(out, rec)
	}
	return out
}

// RuleMax60 flags paid hours beyond 60 in a service week by a carrier not on
// the OTDL.
//
// The weekly excess is attributed to the days that cross and follow the 60
// hour mark: each day's remedy is the part of its hours that lies above 60,
// so the remedies of one week sum to week_total - 60.
type RuleMax60 struct{}

func (RuleMax60) Article() generic.Article { return generic.ArticleMax60 }

func (RuleMax60) Applies(s roster.ListStatus) bool { return regularOrPTF(s) }

func (r RuleMax60) Evaluate(f *Facts) []Record {
	limit := f.Config.WeeklyMax

	var out []Record
	for _, week := range serviceWeeks(f.Days, f.Config.WeekStart, r.Applies) {
		cumulative := decimal.Zero
		for _, d := range week {
			before := cumulative
			cumulative = cumulative.Add(d.PaidHours)
			if !f.inRange(d) {
				continue
			}
			rec := newRecord(r.Article(), d)
			rec.WeekToDate = cumulative
			rec.violate(generic.Excess(cumulative, limit).Sub(generic.Excess(before, limit)))
			out = append(out, rec)
		}
	}
	return out
}
