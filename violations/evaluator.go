package violations

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
)

// =============================================================================
// CONFIG - Contract thresholds
// =============================================================================

// Config holds the thresholds the evaluators apply. Defaults follow the
// National Agreement.
type Config struct {
	OvertimeThreshold decimal.Decimal // daily hours before overtime (8)
	OwnRouteLimit     decimal.Decimal // 8.5.F own-route hours (10)
	DailyMax          decimal.Decimal // MAX12
	WeeklyMax         decimal.Decimal // MAX60
	FifthDayOrdinal   int             // first violating overtime day of the week (5)
	DefaultOTDLLimit  decimal.Decimal // OTDL hour limit when the roster has none (12)
	MoveSanity        decimal.Decimal // longest unflagged move segment (4.25)
	WeekStart         time.Weekday    // service week start (Saturday)
}

func DefaultConfig() Config {
	return Config{
		OvertimeThreshold: generic.Eight,
		OwnRouteLimit:     generic.Ten,
		DailyMax:          generic.Twelve,
		WeeklyMax:         generic.Sixty,
		FifthDayOrdinal:   5,
		DefaultOTDLLimit:  generic.Twelve,
		MoveSanity:        rings.DefaultMoveSanity,
		WeekStart:         time.Saturday,
	}
}

// Validate rejects thresholds that would make the rules meaningless.
func (c Config) Validate() error {
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"overtime_threshold", c.OvertimeThreshold},
		{"own_route_limit", c.OwnRouteLimit},
		{"daily_max", c.DailyMax},
		{"weekly_max", c.WeeklyMax},
		{"default_otdl_limit", c.DefaultOTDLLimit},
		{"move_sanity", c.MoveSanity},
	} {
		if !f.value.IsPositive() {
			return &generic.ConfigurationError{Field: f.name, Message: "must be positive"}
		}
	}
	if c.OwnRouteLimit.LessThan(c.OvertimeThreshold) {
		return &generic.ConfigurationError{Field: "own_route_limit", Message: "must not be below overtime_threshold"}
	}
	if c.FifthDayOrdinal < 1 || c.FifthDayOrdinal > 7 {
		return &generic.ConfigurationError{Field: "fifth_day_ordinal", Message: fmt.Sprintf("%d is outside 1..7", c.FifthDayOrdinal)}
	}
	if c.WeekStart < time.Sunday || c.WeekStart > time.Saturday {
		return &generic.ConfigurationError{Field: "week_start", Message: "not a weekday"}
	}
	return nil
}

// =============================================================================
// FACTS - What an evaluator reads
// =============================================================================

// Facts is the read-only input of one evaluator. Days holds every prepared
// day of the covering service weeks that is not excluded for the
// evaluator's article; records are emitted only for days inside Range.
type Facts struct {
	Range     generic.Period
	Days      []rings.Day
	Excusals  *excusal.Table
	Maximized map[generic.Date]bool
	Config    Config
}

func (f *Facts) inRange(d rings.Day) bool { return f.Range.Contains(d.Date) }

func (f *Facts) maximized(date generic.Date) bool { return f.Maximized[date] }

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator applies one article. Evaluate must return exactly one record per
// in-range day whose status Applies, and nothing else.
type Evaluator interface {
	Article() generic.Article
	Applies(status roster.ListStatus) bool
	Evaluate(f *Facts) []Record
}

// DefaultEvaluators returns the seven articles in evaluation order.
func DefaultEvaluators() []Evaluator {
	return []Evaluator{
		Rule85D{},
		Rule85F{},
		Rule85FNS{},
		Rule85F5th{},
		Rule85G{},
		RuleMax12{},
		RuleMax60{},
	}
}

// Expected lists the keys ev must emit for f.
func Expected(ev Evaluator, f *Facts) []Key {
	var keys []Key
	for _, d := range f.Days {
		if f.inRange(d) && ev.Applies(d.ListStatus()) {
			keys = append(keys, Key{CarrierID: d.CarrierID, Date: d.Date, Article: ev.Article()})
		}
	}
	return keys
}

// regularOrPTF covers every non-OTDL classification.
func regularOrPTF(s roster.ListStatus) bool {
	return s == roster.StatusWAL || s == roster.StatusNL || s == roster.StatusPTF
}

// =============================================================================
// JOINS - Cross-carrier groupings
// =============================================================================

type stationDay struct {
	station generic.Station
	date    generic.Date
}

func stationDayOf(d rings.Day) stationDay {
	return stationDay{station: d.Station(), date: d.Date}
}

// weekKey groups one carrier's days of one service week.
type weekKey struct {
	carrier generic.CarrierID
	start   generic.Date
}

// serviceWeeks groups the applicable days by carrier and service week, each
// group ordered by date. Groups come back in a stable order.
func serviceWeeks(days []rings.Day, start time.Weekday, applies func(roster.ListStatus) bool) [][]rings.Day {
	groups := make(map[weekKey][]rings.Day)
	var keys []weekKey
	for _, d := range days {
		if !applies(d.ListStatus()) {
			continue
		}
		k := weekKey{carrier: d.CarrierID, start: generic.ServiceWeek(d.Date, start).Start}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], d)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].carrier != keys[j].carrier {
			return keys[i].carrier < keys[j].carrier
		}
		return keys[i].start.Before(keys[j].start)
	})
	out := make([][]rings.Day, 0, len(keys))
	for _, k := range keys {
		week := groups[k]
		sort.SliceStable(week, func(i, j int) bool { return week[i].Date.Before(week[j].Date) })
		out = append(out, week)
	}
	return out
}
