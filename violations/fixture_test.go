package violations_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Service week of 2025-03-15 (Saturday) through 2025-03-21 (Friday).
var (
	sat  = generic.MustParseDate("2025-03-15")
	sun  = sat.AddDays(1)
	mon  = sat.AddDays(2)
	tue  = sat.AddDays(3)
	wed  = sat.AddDays(4)
	thu  = sat.AddDays(5)
	fri  = sat.AddDays(6)
	week = generic.Period{Start: sat, End: fri}
)

func regular(id string, status roster.ListStatus, nsDay string) roster.StatusRecord {
	return roster.StatusRecord{
		CarrierID:     generic.CarrierID(id),
		EffectiveDate: generic.MustParseDate("2025-01-01"),
		ListStatus:    status,
		Route:         "0101",
		Station:       "main",
		NSDay:         roster.NSDay(nsDay),
	}
}

func wal(id, nsDay string) roster.StatusRecord { return regular(id, roster.StatusWAL, nsDay) }

func otdl(id string, limit float64) roster.StatusRecord {
	r := regular(id, roster.StatusOTDL, "red")
	r.HourLimit = generic.Hours(limit)
	return r
}

type fixture struct {
	statuses   []roster.StatusRecord
	rows       []rings.Row
	excusals   []excusal.Record
	exclusions []exclusion.Period
	maximized  []generic.Date
	rng        generic.Period
}

func newFixture(statuses ...roster.StatusRecord) *fixture {
	return &fixture{statuses: statuses, rng: week}
}

func (f *fixture) ring(carrier string, date generic.Date, total, moves string) *fixture {
	f.rows = append(f.rows, rings.Row{Date: date, CarrierID: generic.CarrierID(carrier), Total: total, Moves: moves})
	return f
}

func (f *fixture) leave(carrier string, date generic.Date, total, leaveType, leaveTime string) *fixture {
	f.rows = append(f.rows, rings.Row{
		Date: date, CarrierID: generic.CarrierID(carrier), Total: total, LeaveType: leaveType, LeaveTime: leaveTime,
	})
	return f
}

func (f *fixture) input(t *testing.T) violations.Input {
	t.Helper()
	r, err := roster.New(f.statuses)
	require.NoError(t, err)
	cal, err := exclusion.NewCalendar(f.exclusions)
	require.NoError(t, err)
	return violations.Input{
		Range:          f.rng,
		Roster:         r,
		Rings:          f.rows,
		Excusals:       f.excusals,
		Exclusions:     cal,
		MaximizedDates: f.maximized,
	}
}

func (f *fixture) run(t *testing.T, opts ...violations.Option) *violations.Result {
	t.Helper()
	eng, err := violations.NewEngine(violations.DefaultConfig(), opts...)
	require.NoError(t, err)
	res, err := eng.Run(context.Background(), f.input(t))
	require.NoError(t, err)
	return res
}

// recordFor returns the single record for the key, failing if absent.
func recordFor(t *testing.T, res *violations.Result, carrier string, date generic.Date, a generic.Article) violations.Record {
	t.Helper()
	recs := res.Ledger.Select(violations.Query{CarrierID: generic.CarrierID(carrier), Article: a, From: date, To: date})
	require.Len(t, recs, 1, "%s %s %s", carrier, date, a)
	return recs[0]
}

func hasRecord(res *violations.Result, carrier string, date generic.Date, a generic.Article) bool {
	recs := res.Ledger.Select(violations.Query{CarrierID: generic.CarrierID(carrier), Article: a, From: date, To: date})
	return len(recs) > 0
}

func assertRemedy(t *testing.T, rec violations.Record, want string) {
	t.Helper()
	assert.True(t, rec.RemedyHours.Equal(decimal.RequireFromString(want)),
		"%s %s: remedy %s, want %s", rec.Article, rec.Date, rec.RemedyHours, want)
}

func assertViolated(t *testing.T, rec violations.Record, remedy string) {
	t.Helper()
	assert.True(t, rec.Violated, "%s %s should be violated (reason %q)", rec.Article, rec.Date, rec.Reason)
	assertRemedy(t, rec, remedy)
}

func assertClean(t *testing.T, rec violations.Record, reason violations.Reason) {
	t.Helper()
	assert.False(t, rec.Violated, "%s %s should not be violated", rec.Article, rec.Date)
	assert.True(t, rec.RemedyHours.IsZero())
	assert.Equal(t, reason, rec.Reason)
}
