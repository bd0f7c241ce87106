/*
Package exclusion models calendar-driven contractual suspensions.

PURPOSE:
  Some rules are suspended for fixed windows of the year, the usual case
  being the December exclusionary period. A Calendar holds those windows,
  each scoped to the articles it suspends, and answers one question: is
  this date excluded for this article?

INVARIANTS:
  - Periods never overlap (checked when the calendar is built)
  - Every period has a non-empty scope of known articles
  - Exclusion is per article: a day excluded for 8.5.F still evaluates
    for MAX12 unless MAX12 is in scope too

SEE ALSO:
  - factory/calendar.go: Loading calendars from documents
*/
package exclusion

import (
	"fmt"
	"sort"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
)

// Period is one exclusion window.
type Period struct {
	Name     string            `json:"name" yaml:"name"`
	Start    generic.Date      `json:"start" yaml:"start"`
	End      generic.Date      `json:"end" yaml:"end"`
	Articles []generic.Article `json:"articles" yaml:"articles"`
}

func (p Period) Range() generic.Period {
	return generic.Period{Start: p.Start, End: p.End}
}

// Suspends reports whether the period's scope contains the article.
func (p Period) Suspends(a generic.Article) bool {
	for _, scoped := range p.Articles {
		if scoped == a {
			return true
		}
	}
	return false
}

// Calendar is a validated, date-ordered set of exclusion periods.
type Calendar struct {
	periods []Period
}

// NewCalendar validates the periods and returns a calendar ordered by start
// date. Any problem is a ConfigurationError.
func NewCalendar(periods []Period) (*Calendar, error) {
	sorted := make([]Period, len(periods))
	copy(sorted, periods)

	for i, p := range sorted {
		field := fmt.Sprintf("exclusions[%d]", i)
		if p.Name != "" {
			field = fmt.Sprintf("exclusions[%s]", p.Name)
		}
		if err := p.Range().Validate(); err != nil {
			return nil, &generic.ConfigurationError{Field: field, Message: err.Error()}
		}
		if len(p.Articles) == 0 {
			return nil, &generic.ConfigurationError{Field: field, Message: "scope must name at least one article"}
		}
		for _, a := range p.Articles {
			if !a.Valid() {
				return nil, &generic.ConfigurationError{Field: field, Message: fmt.Sprintf("unknown article %q", a)}
			}
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Range().Overlaps(cur.Range()) {
			return nil, &generic.ConfigurationError{
				Field:   "exclusions",
				Message: fmt.Sprintf("period %s %s overlaps %s %s", prev.Name, prev.Range(), cur.Name, cur.Range()),
			}
		}
	}
	return &Calendar{periods: sorted}, nil
}

// Empty returns a calendar with no periods.
func Empty() *Calendar { return &Calendar{} }

// Len returns the number of periods. A nil calendar has none.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.periods)
}

// Periods returns the calendar's periods ordered by start date.
func (c *Calendar) Periods() []Period {
	if c == nil {
		return nil
	}
	out := make([]Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Excludes reports whether date lies in a period whose scope contains the
// article. A nil calendar excludes nothing.
func (c *Calendar) Excludes(date generic.Date, a generic.Article) bool {
	if c == nil {
		return false
	}
	for _, p := range c.periods {
		if p.Start.After(date) {
			break
		}
		if p.Range().Contains(date) && p.Suspends(a) {
			return true
		}
	}
	return false
}

// Filter returns the days that remain evaluable for the article. The input
// slice is not modified.
func (c *Calendar) Filter(days []rings.Day, a generic.Article) []rings.Day {
	out := make([]rings.Day, 0, len(days))
	for _, d := range days {
		if !c.Excludes(d.Date, a) {
			out = append(out, d)
		}
	}
	return out
}
