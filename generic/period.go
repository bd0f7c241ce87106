package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] range of days.
//
// Examples:
//   - Evaluation range requested by the report layer
//   - End-of-year exclusionary period: Dec 1 - Dec 31
//   - Service week: Saturday - Friday
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate rejects zero dates and ranges that end before they start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidPeriod
	}
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int { return DaysBetween(p.Start, p.End) + 1 }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SERVICE WEEK - Fixed 7-day scheduling window
// =============================================================================

// ServiceWeek returns the 7-day window containing d that starts on the given
// weekday. USPS service weeks run Saturday through Friday.
func ServiceWeek(d Date, start time.Weekday) Period {
	offset := (int(d.Weekday()) - int(start) + 7) % 7
	first := d.AddDays(-offset)
	return Period{Start: first, End: first.AddDays(6)}
}

// CoveringServiceWeeks widens p to whole service weeks.
func CoveringServiceWeeks(p Period, start time.Weekday) Period {
	return Period{
		Start: ServiceWeek(p.Start, start).Start,
		End:   ServiceWeek(p.End, start).End,
	}
}
