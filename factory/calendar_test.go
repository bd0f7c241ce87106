package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
)

func TestParseCalendar_NativeYAML(t *testing.T) {
	// GIVEN: A YAML calendar with one scoped and one default-scoped period
	doc := `
periods:
  - name: december 2024
    start: 2024-12-01
    end: 2024-12-31
  - name: audit hold
    start: 2025-02-03
    end: 2025-02-07
    articles: ["8.5.D", "85G"]
`
	// WHEN: Parsing it
	cal, err := factory.ParseCalendar([]byte(doc))
	require.NoError(t, err)

	// THEN: Both periods load with their scopes
	require.Len(t, cal.Periods(), 2)
	dec := generic.MustParseDate("2024-12-10")
	assert.True(t, cal.Excludes(dec, generic.Article85F))
	assert.True(t, cal.Excludes(dec, generic.ArticleMax60))
	assert.False(t, cal.Excludes(dec, generic.Article85D))
	assert.False(t, cal.Excludes(dec, generic.Article85G))

	feb := generic.MustParseDate("2025-02-05")
	assert.True(t, cal.Excludes(feb, generic.Article85D))
	assert.True(t, cal.Excludes(feb, generic.Article85G))
	assert.False(t, cal.Excludes(feb, generic.Article85F))
}

func TestParseCalendar_NativeJSON(t *testing.T) {
	doc := `{"periods":[{"name":"x","start":"2024-12-01","end":"2024-12-31","articles":["MAX12"]}]}`

	cal, err := factory.ParseCalendar([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cal.Periods(), 1)
	assert.Equal(t, []generic.Article{generic.ArticleMax12}, cal.Periods()[0].Articles)
}

func TestParseCalendar_LegacyFormat(t *testing.T) {
	// GIVEN: The per-year december_exclusion document
	doc := `{
		"2025": {"december_exclusion": {"start": "2025-11-29", "end": "2025-12-31"}},
		"2024": {"december_exclusion": {"start": "2024-12-01", "end": "2024-12-31"}}
	}`

	cal, err := factory.ParseCalendar([]byte(doc))
	require.NoError(t, err)

	// THEN: One period per year, penalty articles only
	periods := cal.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "december exclusion 2024", periods[0].Name)
	assert.Equal(t, factory.PenaltyArticles, periods[1].Articles)

	assert.True(t, cal.Excludes(generic.MustParseDate("2025-11-29"), generic.Article85F5th))
	assert.False(t, cal.Excludes(generic.MustParseDate("2025-11-29"), generic.Article85D))
	assert.False(t, cal.Excludes(generic.MustParseDate("2025-11-28"), generic.Article85F))
}

func TestParseCalendar_Empty(t *testing.T) {
	cal, err := factory.ParseCalendar([]byte(""))
	require.NoError(t, err)
	assert.Zero(t, cal.Len())
}

func TestParseCalendar_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad date":        `{"periods":[{"start":"2024-13-01","end":"2024-12-31"}]}`,
		"inverted":        `{"periods":[{"start":"2024-12-31","end":"2024-12-01"}]}`,
		"unknown article": `{"periods":[{"start":"2024-12-01","end":"2024-12-31","articles":["8.5.Z"]}]}`,
		"overlap": `{"periods":[
			{"start":"2024-12-01","end":"2024-12-31"},
			{"start":"2024-12-20","end":"2025-01-05"}]}`,
		"not a document": `[1, 2`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParseCalendar([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrConfiguration)
		})
	}
}

func TestDocumentOf_RoundTrips(t *testing.T) {
	doc := `{"periods":[{"name":"x","start":"2024-12-01","end":"2024-12-31","articles":["85F","MAX60"]}]}`
	cal, err := factory.ParseCalendar([]byte(doc))
	require.NoError(t, err)

	out := factory.DocumentOf(cal)

	require.Len(t, out.Periods, 1)
	assert.Equal(t, factory.PeriodDocument{
		Name: "x", Start: "2024-12-01", End: "2024-12-31", Articles: []string{"85F", "MAX60"},
	}, out.Periods[0])
}

func TestLoadCalendarFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusion_periods.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"2024":{"december_exclusion":{"start":"2024-12-01","end":"2024-12-31"}}}`), 0o600))

	cal, err := factory.LoadCalendarFile(path)
	require.NoError(t, err)
	assert.Len(t, cal.Periods(), 1)

	_, err = factory.LoadCalendarFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
