// Package storetest checks a store.Store implementation against the write
// semantics every backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

// Run exercises a fresh store from newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := map[string]func(t *testing.T, s store.Store){
		"statuses are versioned":           testStatuses,
		"invalid status rejected":          testInvalidStatus,
		"ring import replaces carrier-day": testRingImport,
		"excusals keep entry order":        testExcusals,
		"exclusions replaced as a whole":   testExclusions,
		"maximized dates toggle":           testMaximized,
		"ledger replaced by range":         testLedger,
		"ledger query filters":             testLedgerQuery,
		"runs newest first":                testRuns,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

var (
	d1 = generic.MustParseDate("2025-03-15")
	d2 = generic.MustParseDate("2025-03-16")
	d3 = generic.MustParseDate("2025-03-17")
)

func period(from, to generic.Date) generic.Period {
	return generic.Period{Start: from, End: to}
}

func testStatuses(t *testing.T, s store.Store) {
	ctx := context.Background()

	// GIVEN: Two versions for one carrier and a replacement of the first
	base := roster.StatusRecord{CarrierID: "Smith", EffectiveDate: d1, ListStatus: "wal", Route: "0101", Station: "Main", NSDay: "red"}
	require.NoError(t, s.SaveStatus(ctx, base))
	later := base
	later.EffectiveDate = d3
	later.ListStatus = "otdl"
	later.HourLimit = decimal.RequireFromString("11.5")
	require.NoError(t, s.SaveStatus(ctx, later))
	base.Route = "0102"
	require.NoError(t, s.SaveStatus(ctx, base))

	// WHEN: Loading
	got, err := s.Statuses(ctx)
	require.NoError(t, err)

	// THEN: Two normalized versions in effective order
	require.Len(t, got, 2)
	assert.Equal(t, generic.CarrierID("smith"), got[0].CarrierID)
	assert.Equal(t, roster.StatusWAL, got[0].ListStatus)
	assert.Equal(t, "0102", got[0].Route)
	assert.Equal(t, generic.Station("main"), got[0].Station)
	assert.Equal(t, roster.StatusOTDL, got[1].ListStatus)
	assert.True(t, got[1].HourLimit.Equal(decimal.RequireFromString("11.5")))

	r, err := roster.New(got)
	require.NoError(t, err)
	st, ok := r.ResolveAt("smith", d2)
	require.True(t, ok)
	assert.Equal(t, roster.StatusWAL, st.ListStatus)
}

func testInvalidStatus(t *testing.T, s store.Store) {
	err := s.SaveStatus(context.Background(), roster.StatusRecord{CarrierID: "x", EffectiveDate: d1, ListStatus: "boss"})
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func testRingImport(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.ImportRings(ctx, []rings.Row{
		{Date: d1, CarrierID: "Smith", Total: "6.00"},
		{Date: d1, CarrierID: "smith", Total: "3.00", Moves: "15.00,16.00,0912"},
		{Date: d2, CarrierID: "jones", Total: "8.00"},
	}))

	// WHEN: Re-importing one carrier-day
	require.NoError(t, s.ImportRings(ctx, []rings.Row{
		{Date: d1, CarrierID: "SMITH", Total: "10.00", LeaveType: "annual", LeaveTime: "0"},
	}))

	// THEN: Only that day's rows were replaced
	got, err := s.Rings(ctx, period(d1, d3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.CarrierID("smith"), got[0].CarrierID)
	assert.Equal(t, "10.00", got[0].Total)
	assert.Equal(t, "annual", got[0].LeaveType)
	assert.Equal(t, generic.CarrierID("jones"), got[1].CarrierID)

	only, err := s.Rings(ctx, period(d2, d2))
	require.NoError(t, err)
	assert.Len(t, only, 1)
}

func testExcusals(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2025, 3, 18, 9, 30, 0, 123456789, time.UTC)

	require.NoError(t, s.AddExcusal(ctx, excusal.Record{CarrierID: "Otis", Date: d1, Source: excusal.SourceManual, Excused: true, EnteredAt: at}))
	require.NoError(t, s.AddExcusal(ctx, excusal.Record{CarrierID: "otis", Date: d1, Source: excusal.SourceManual, Excused: false, EnteredAt: at.Add(time.Minute)}))
	require.NoError(t, s.AddExcusal(ctx, excusal.Record{CarrierID: "otis", Date: d3, Source: excusal.SourceAutomatic, Excused: true, EnteredAt: at}))

	got, err := s.Excusals(ctx, period(d1, d2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.CarrierID("otis"), got[0].CarrierID)
	assert.True(t, got[0].Excused)
	assert.False(t, got[1].Excused)
	assert.True(t, got[0].EnteredAt.Equal(at), "timestamps survive exactly")

	// Latest manual entry wins when resolved.
	assert.False(t, excusal.Resolve(got).Excused)
}

func testExclusions(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := []exclusion.Period{
		{Name: "a", Start: d1, End: d1, Articles: []generic.Article{generic.Article85F}},
		{Name: "b", Start: d2, End: d3, Articles: []generic.Article{generic.ArticleMax12, generic.ArticleMax60}},
	}
	require.NoError(t, s.ReplaceExclusions(ctx, first))
	require.NoError(t, s.ReplaceExclusions(ctx, first[1:]))

	got, err := s.Exclusions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, first[1].Articles, got[0].Articles)
	assert.True(t, got[0].End.Equal(d3))
}

func testMaximized(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SetMaximized(ctx, d3, true))
	require.NoError(t, s.SetMaximized(ctx, d1, true))
	require.NoError(t, s.SetMaximized(ctx, d1, true))
	require.NoError(t, s.SetMaximized(ctx, d2, true))
	require.NoError(t, s.SetMaximized(ctx, d2, false))

	got, err := s.MaximizedDates(ctx, period(d1, d3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(d1))
	assert.True(t, got[1].Equal(d3))
}

func record(carrier string, d generic.Date, a generic.Article, remedy string) violations.Record {
	r := violations.Record{
		CarrierID:     generic.CarrierID(carrier),
		Date:          d,
		Article:       a,
		RemedyHours:   decimal.RequireFromString(remedy),
		ListStatus:    roster.StatusWAL,
		Station:       "main",
		TotalHours:    decimal.RequireFromString("10.5"),
		OwnRouteHours: decimal.RequireFromString("8.5"),
		OffRouteHours: decimal.RequireFromString("2"),
		WeekToDate:    decimal.Zero,
	}
	if r.RemedyHours.IsPositive() {
		r.Violated = true
	} else {
		r.Reason = violations.ReasonNoOvertime
	}
	return r
}

func testLedger(t *testing.T, s store.Store) {
	ctx := context.Background()

	// GIVEN: A ledger over d1..d3
	require.NoError(t, s.ReplaceLedger(ctx, period(d1, d3), []violations.Record{
		record("smith", d1, generic.Article85F, "0.5"),
		record("smith", d2, generic.Article85F, "1"),
		record("smith", d3, generic.Article85F, "0"),
	}))

	// WHEN: Re-running only d2
	trigger := generic.CarrierID("otis")
	rerun := record("smith", d2, generic.Article85D, "2")
	rerun.TriggerCarrierID = &trigger
	rerun.DisplayIndicator = rings.IndicatorNSDay
	require.NoError(t, s.ReplaceLedger(ctx, period(d2, d2), []violations.Record{rerun}))

	// THEN: d2 holds only the new record, the rest is untouched
	got, err := s.Violations(ctx, violations.Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Equal(d1))
	assert.Equal(t, generic.Article85D, got[1].Article)
	require.NotNil(t, got[1].TriggerCarrierID)
	assert.Equal(t, trigger, *got[1].TriggerCarrierID)
	assert.Equal(t, rings.IndicatorNSDay, got[1].DisplayIndicator)
	assert.True(t, got[1].RemedyHours.Equal(decimal.NewFromInt(2)))
	assert.True(t, got[1].TotalHours.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, violations.ReasonNoOvertime, got[2].Reason)
	assert.Nil(t, got[2].TriggerCarrierID)
}

func testLedgerQuery(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ReplaceLedger(ctx, period(d1, d3), []violations.Record{
		record("jones", d1, generic.ArticleMax12, "1"),
		record("smith", d1, generic.ArticleMax12, "0"),
		record("smith", d1, generic.Article85F, "0.5"),
		record("smith", d2, generic.Article85F, "1"),
	}))

	all, err := s.Violations(ctx, violations.Query{CarrierID: "smith"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, generic.Article85F, all[0].Article, "article order within a day")

	violated, err := s.Violations(ctx, violations.Query{Article: generic.Article85F, ViolatedOnly: true, From: d2, To: d3})
	require.NoError(t, err)
	require.Len(t, violated, 1)
	assert.True(t, violated[0].Date.Equal(d2))
}

func testRuns(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveRun(ctx, store.Run{
			ID:         uuid.New(),
			Range:      period(d1, d3),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			Duration:   150 * time.Millisecond,
			Outcome:    violations.OutcomeSuccess,
			Records:    10 + i,
			Violations: i,
			Remedy:     decimal.RequireFromString("2.25"),
		}))
	}

	got, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].Records)
	assert.Equal(t, 11, got[1].Records)
	assert.Equal(t, 150*time.Millisecond, got[0].Duration)
	assert.True(t, got[0].Remedy.Equal(decimal.RequireFromString("2.25")))
	assert.True(t, got[0].Range.End.Equal(d3))

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
