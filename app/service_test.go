package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	sat = generic.MustParseDate("2025-03-15")
	mon = generic.MustParseDate("2025-03-17")
	fri = generic.MustParseDate("2025-03-21")
)

func newTestService(t *testing.T) (*Service, *memory.Memory) {
	t.Helper()
	st := memory.New()
	eng, err := violations.NewEngine(violations.DefaultConfig(), violations.WithLogger(logger.NopLogger{}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.SaveStatus(ctx, roster.StatusRecord{
		CarrierID: "smith", EffectiveDate: generic.MustParseDate("2025-01-01"),
		ListStatus: roster.StatusWAL, Route: "0101", Station: "main", NSDay: "yellow",
	}))
	return NewService(st, eng, logger.NopLogger{}), st
}

// =============================================================================
// EVALUATE
// =============================================================================

func TestEvaluate_StoresLedgerAndRun(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	// GIVEN: 10.5 hours on the carrier's own route on Monday
	require.NoError(t, st.ImportRings(ctx, []rings.Row{{Date: mon, CarrierID: "smith", Total: "10.50"}}))
	rng := generic.Period{Start: mon, End: mon}

	// WHEN: Evaluating Monday
	res, err := svc.Evaluate(ctx, rng)
	require.NoError(t, err)

	// THEN: 8.5.F owes 0.5 and the ledger and run log are stored
	stored, err := st.Violations(ctx, violations.Query{ViolatedOnly: true})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, generic.Article85F, stored[0].Article)
	assert.True(t, stored[0].RemedyHours.Equal(generic.Hours(0.5)))

	runs, err := st.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, violations.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, res.Ledger.Totals.Records, runs[0].Records)
	assert.Equal(t, 1, runs[0].Violations)
}

func TestEvaluate_RerunReplacesLedger(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	rng := generic.Period{Start: mon, End: mon}

	require.NoError(t, st.ImportRings(ctx, []rings.Row{{Date: mon, CarrierID: "smith", Total: "10.50"}}))
	_, err := svc.Evaluate(ctx, rng)
	require.NoError(t, err)

	// WHEN: The rings are corrected and the day re-run
	require.NoError(t, st.ImportRings(ctx, []rings.Row{{Date: mon, CarrierID: "smith", Total: "9.00"}}))
	_, err = svc.Evaluate(ctx, rng)
	require.NoError(t, err)

	// THEN: No stale violation survives and record count is unchanged
	violated, err := st.Violations(ctx, violations.Query{ViolatedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, violated)
	all, err := st.Violations(ctx, violations.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 6, "every article but 8.5.G applies to a WAL carrier")
}

func TestSnapshot_WidensToServiceWeeks(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.ImportRings(ctx, []rings.Row{
		{Date: sat, CarrierID: "smith", Total: "8"},
		{Date: fri, CarrierID: "smith", Total: "8"},
		{Date: fri.AddDays(1), CarrierID: "smith", Total: "8"},
	}))
	require.NoError(t, st.SetMaximized(ctx, sat, true))

	// WHEN: Snapshotting a range that starts mid-week
	in, err := svc.Snapshot(ctx, generic.Period{Start: mon, End: mon})
	require.NoError(t, err)

	// THEN: Saturday..Friday is loaded, the next week is not
	assert.Len(t, in.Rings, 2)
	assert.Len(t, in.MaximizedDates, 1)
	assert.NotNil(t, in.Roster)
	assert.True(t, in.Range.Start.Equal(mon))
}

func TestEvaluate_RejectsConcurrentRun(t *testing.T) {
	svc, _ := newTestService(t)

	// GIVEN: Another evaluation holds the lock
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Evaluate(context.Background(), generic.Period{Start: mon, End: mon})
	assert.ErrorIs(t, err, generic.ErrRunInProgress)
}

func TestEvaluate_CancelledRunIsLogged(t *testing.T) {
	svc, st := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Evaluate(ctx, generic.Period{Start: mon, End: mon})
	require.ErrorIs(t, err, context.Canceled)

	runs, err := st.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, violations.OutcomeCancelled, runs[0].Outcome)
	assert.NotEmpty(t, runs[0].Error)
}

func TestEvaluate_InvalidRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Evaluate(context.Background(), generic.Period{Start: fri, End: mon})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

// =============================================================================
// EXCLUSIONS
// =============================================================================

func TestReplaceExclusions_ValidatesCalendar(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.ReplaceExclusions(ctx, []exclusion.Period{
		{Name: "a", Start: sat, End: fri, Articles: []generic.Article{generic.Article85F}},
		{Name: "b", Start: mon, End: mon, Articles: []generic.Article{generic.ArticleMax12}},
	})
	require.ErrorIs(t, err, generic.ErrConfiguration)

	stored, err := st.Exclusions(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing written on rejection")
}

func TestEvaluate_HonorsStoredExclusions(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.ImportRings(ctx, []rings.Row{{Date: mon, CarrierID: "smith", Total: "10.50"}}))
	_, err := svc.ReplaceExclusions(ctx, []exclusion.Period{
		{Name: "hold", Start: mon, End: mon, Articles: []generic.Article{generic.Article85F}},
	})
	require.NoError(t, err)

	res, err := svc.Evaluate(ctx, generic.Period{Start: mon, End: mon})
	require.NoError(t, err)

	assert.Zero(t, res.Ledger.Totals.Violations)
	assert.Empty(t, res.Ledger.Select(violations.Query{Article: generic.Article85F}))
}

func TestSeedExclusions_OnlyWhenEmpty(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	cal, err := exclusion.NewCalendar([]exclusion.Period{
		{Name: "december", Start: generic.MustParseDate("2024-12-01"), End: generic.MustParseDate("2024-12-31"),
			Articles: []generic.Article{generic.Article85F}},
	})
	require.NoError(t, err)

	seeded, err := svc.SeedExclusions(ctx, cal)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svc.SeedExclusions(ctx, exclusion.Empty())
	require.NoError(t, err)
	assert.False(t, seeded)

	require.NoError(t, st.ReplaceExclusions(ctx, []exclusion.Period{
		{Name: "other", Start: sat, End: sat, Articles: []generic.Article{generic.ArticleMax12}},
	}))
	seeded, err = svc.SeedExclusions(ctx, cal)
	require.NoError(t, err)
	assert.False(t, seeded, "an existing calendar is never overwritten")
}
