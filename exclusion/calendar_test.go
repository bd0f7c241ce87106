package exclusion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
)

func december(year string, articles ...generic.Article) exclusion.Period {
	return exclusion.Period{
		Name:     "december " + year,
		Start:    generic.MustParseDate(year + "-12-01"),
		End:      generic.MustParseDate(year + "-12-31"),
		Articles: articles,
	}
}

func TestCalendar_ExcludesOnlyScopedArticles(t *testing.T) {
	// GIVEN: December suspends 8.5.F and 8.5.D, not MAX12
	cal, err := exclusion.NewCalendar([]exclusion.Period{
		december("2024", generic.Article85F, generic.Article85D),
	})
	require.NoError(t, err)

	d := generic.MustParseDate("2024-12-10")

	// THEN: Scoped articles are excluded, others are not
	assert.True(t, cal.Excludes(d, generic.Article85F))
	assert.True(t, cal.Excludes(d, generic.Article85D))
	assert.False(t, cal.Excludes(d, generic.ArticleMax12))
}

func TestCalendar_BoundariesInclusive(t *testing.T) {
	cal, err := exclusion.NewCalendar([]exclusion.Period{december("2024", generic.Article85F)})
	require.NoError(t, err)

	assert.False(t, cal.Excludes(generic.MustParseDate("2024-11-30"), generic.Article85F))
	assert.True(t, cal.Excludes(generic.MustParseDate("2024-12-01"), generic.Article85F))
	assert.True(t, cal.Excludes(generic.MustParseDate("2024-12-31"), generic.Article85F))
	assert.False(t, cal.Excludes(generic.MustParseDate("2025-01-01"), generic.Article85F))
}

func TestCalendar_OverlapRejected(t *testing.T) {
	// GIVEN: Two periods sharing Dec 15-31
	late := exclusion.Period{
		Name:     "holiday peak",
		Start:    generic.MustParseDate("2024-12-15"),
		End:      generic.MustParseDate("2025-01-05"),
		Articles: []generic.Article{generic.ArticleMax12},
	}

	_, err := exclusion.NewCalendar([]exclusion.Period{late, december("2024", generic.Article85F)})

	// THEN: Configuration error, regardless of input order
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestCalendar_AdjacentPeriodsAllowed(t *testing.T) {
	jan := exclusion.Period{
		Name:     "january",
		Start:    generic.MustParseDate("2025-01-01"),
		End:      generic.MustParseDate("2025-01-31"),
		Articles: []generic.Article{generic.Article85F},
	}

	cal, err := exclusion.NewCalendar([]exclusion.Period{jan, december("2024", generic.Article85F)})
	require.NoError(t, err)

	periods := cal.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "december 2024", periods[0].Name)
}

func TestCalendar_InvalidPeriods(t *testing.T) {
	tests := []struct {
		name   string
		period exclusion.Period
	}{
		{"end before start", exclusion.Period{
			Start:    generic.MustParseDate("2024-12-31"),
			End:      generic.MustParseDate("2024-12-01"),
			Articles: []generic.Article{generic.Article85F},
		}},
		{"empty scope", december("2024")},
		{"unknown article", december("2024", generic.Article("8.5.Z"))},
		{"missing dates", exclusion.Period{Articles: []generic.Article{generic.Article85F}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exclusion.NewCalendar([]exclusion.Period{tt.period})
			assert.ErrorIs(t, err, generic.ErrConfiguration)
		})
	}
}

func TestCalendar_Filter(t *testing.T) {
	cal, err := exclusion.NewCalendar([]exclusion.Period{december("2024", generic.Article85F)})
	require.NoError(t, err)

	days := []rings.Day{
		{CarrierID: "smith", Date: generic.MustParseDate("2024-11-30")},
		{CarrierID: "smith", Date: generic.MustParseDate("2024-12-02")},
	}

	kept := cal.Filter(days, generic.Article85F)
	require.Len(t, kept, 1)
	assert.Equal(t, "2024-11-30", kept[0].Date.String())

	assert.Len(t, cal.Filter(days, generic.ArticleMax12), 2)
	assert.Len(t, days, 2, "input untouched")
}

func TestCalendar_NilExcludesNothing(t *testing.T) {
	var cal *exclusion.Calendar
	assert.False(t, cal.Excludes(generic.MustParseDate("2024-12-10"), generic.Article85F))
	assert.Empty(t, exclusion.Empty().Periods())
}
