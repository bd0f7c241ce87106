package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
)

func TestServiceWeek_SaturdayToFriday(t *testing.T) {
	// 2025-03-18 is a Tuesday
	w := generic.ServiceWeek(generic.MustParseDate("2025-03-18"), time.Saturday)
	assert.Equal(t, "2025-03-15", w.Start.String())
	assert.Equal(t, "2025-03-21", w.End.String())
	assert.Equal(t, 7, w.Len())

	// A Saturday starts its own week
	w = generic.ServiceWeek(generic.MustParseDate("2025-03-15"), time.Saturday)
	assert.Equal(t, "2025-03-15", w.Start.String())
}

func TestCoveringServiceWeeks(t *testing.T) {
	p := generic.Period{Start: generic.MustParseDate("2025-03-18"), End: generic.MustParseDate("2025-03-24")}
	w := generic.CoveringServiceWeeks(p, time.Saturday)
	assert.Equal(t, "2025-03-15", w.Start.String())
	assert.Equal(t, "2025-03-28", w.End.String())
	assert.Len(t, w.Days(), 14)
}

func TestNewPeriod_Rejects(t *testing.T) {
	mon := generic.MustParseDate("2025-03-17")

	_, err := generic.NewPeriod(mon, mon.AddDays(-1))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	_, err = generic.NewPeriod(generic.Date{}, mon)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	p, err := generic.NewPeriod(mon, mon)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
}

func TestPeriod_ContainsAndOverlaps(t *testing.T) {
	dec := generic.Period{Start: generic.MustParseDate("2024-12-01"), End: generic.MustParseDate("2024-12-31")}

	assert.True(t, dec.Contains(generic.MustParseDate("2024-12-01")))
	assert.True(t, dec.Contains(generic.MustParseDate("2024-12-31")))
	assert.False(t, dec.Contains(generic.MustParseDate("2025-01-01")))

	jan := generic.Period{Start: generic.MustParseDate("2025-01-01"), End: generic.MustParseDate("2025-01-31")}
	assert.False(t, dec.Overlaps(jan))
	assert.True(t, dec.Overlaps(generic.Period{Start: generic.MustParseDate("2024-12-31"), End: jan.End}))
}

func TestParseDate_AcceptsTimestamps(t *testing.T) {
	d, err := generic.ParseDate("2025-03-17 07:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-17", d.String())

	_, err = generic.ParseDate("17/03/2025")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var p generic.Period
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-03-15","end":"2025-03-21"}`), &p))
	assert.Equal(t, 7, p.Len())

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2025-03-15","end":"2025-03-21"}`, string(b))
}

func TestParseWeekday(t *testing.T) {
	wd, ok := generic.ParseWeekday("Sat")
	assert.True(t, ok)
	assert.Equal(t, time.Saturday, wd)

	_, ok = generic.ParseWeekday("someday")
	assert.False(t, ok)
}

func TestRoundRemedy_HalfUp(t *testing.T) {
	assert.Equal(t, "0.13", generic.RoundRemedy(generic.MustParseHours("0.125")).String())
	assert.True(t, generic.RoundRemedy(generic.Hours(-1)).IsZero())
}

func TestMustParseHours(t *testing.T) {
	assert.Equal(t, "8.5", generic.MustParseHours("8.50").String())
	assert.True(t, generic.MustParseHours("none").IsZero())
	assert.Panics(t, func() { generic.MustParseHours("eight") })
}
