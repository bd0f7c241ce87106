package rings

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
)

// DefaultMoveSanity is the longest single move segment, in hours, accepted
// without a review flag.
var DefaultMoveSanity = decimal.RequireFromString("4.25")

// =============================================================================
// DAY - Prepared carrier-day facts
// =============================================================================

// Day is the prepared view of one carrier's clock rings for one date.
type Day struct {
	CarrierID generic.CarrierID   `json:"carrier_id"`
	Date      generic.Date        `json:"date"`
	Status    roster.StatusRecord `json:"status"`

	TotalHours    decimal.Decimal `json:"total_hours"`
	OffRouteHours decimal.Decimal `json:"off_route_hours"`
	OwnRouteHours decimal.Decimal `json:"own_route_hours"`
	MoveHours     decimal.Decimal `json:"move_hours"`
	LeaveHours    decimal.Decimal `json:"leave_hours"`

	// PaidHours combines worked and leave hours the way the weekly rules
	// count them.
	PaidHours decimal.Decimal `json:"paid_hours"`

	Code         string        `json:"code"`
	LeaveType    string        `json:"leave_type"`
	NonScheduled bool          `json:"non_scheduled"`
	Indicator    Indicator     `json:"display_indicator"`
	Moves        []MoveSegment `json:"moves,omitempty"`

	// Flags lists review findings that did not exclude the day.
	Flags []generic.IntegrityKind `json:"flags,omitempty"`
}

func (d Day) ListStatus() roster.ListStatus { return d.Status.ListStatus }
func (d Day) Station() generic.Station      { return d.Status.Station }

// Overtime returns the day's overtime hours. Every hour worked on a
// non-scheduled day is overtime.
func (d Day) Overtime(threshold decimal.Decimal) decimal.Decimal {
	if d.NonScheduled {
		return d.TotalHours
	}
	return generic.Excess(d.TotalHours, threshold)
}

// OffRouteOvertime returns the overtime hours worked off the bid route:
// the lesser of off-route hours and overtime on a scheduled day, the whole
// day on a non-scheduled day.
func (d Day) OffRouteOvertime(threshold decimal.Decimal) decimal.Decimal {
	if d.NonScheduled {
		return d.TotalHours
	}
	return generic.MinHours(d.OffRouteHours, generic.Excess(d.TotalHours, threshold))
}

// HasFlag reports whether the day carries the given review flag.
func (d Day) HasFlag(kind generic.IntegrityKind) bool {
	for _, f := range d.Flags {
		if f == kind {
			return true
		}
	}
	return false
}

// =============================================================================
// PREPARER
// =============================================================================

// Result is the output of one preparation pass.
type Result struct {
	Days   []Day
	Issues []*generic.DataIntegrityError
}

// Preparer groups and derives carrier-day facts.
type Preparer struct {
	MoveSanity decimal.Decimal
}

func NewPreparer(moveSanity decimal.Decimal) *Preparer {
	if !moveSanity.IsPositive() {
		moveSanity = DefaultMoveSanity
	}
	return &Preparer{MoveSanity: moveSanity}
}

// Prepare groups rows by (carrier, date) and derives one Day per group.
// Days come back ordered by carrier, then date.
func (p *Preparer) Prepare(rows []Row, r *roster.Roster) Result {
	groups := make(map[dayKey][]Row)
	for _, row := range rows {
		k := dayKey{carrier: generic.NormalizeCarrierID(string(row.CarrierID)), date: row.Date}
		groups[k] = append(groups[k], row)
	}

	keys := make([]dayKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].carrier != keys[j].carrier {
			return keys[i].carrier < keys[j].carrier
		}
		return keys[i].date.Before(keys[j].date)
	})

	var res Result
	for _, k := range keys {
		day, issues, ok := p.prepareDay(k, groups[k], r)
		res.Issues = append(res.Issues, issues...)
		if ok {
			res.Days = append(res.Days, day)
		}
	}
	return res
}

func (p *Preparer) prepareDay(k dayKey, rows []Row, r *roster.Roster) (Day, []*generic.DataIntegrityError, bool) {
	fail := func(kind generic.IntegrityKind, format string, args ...any) (Day, []*generic.DataIntegrityError, bool) {
		return Day{}, []*generic.DataIntegrityError{{
			Kind:      kind,
			CarrierID: k.carrier,
			Date:      k.date,
			Message:   fmt.Sprintf(format, args...),
			Excluded:  true,
		}}, false
	}

	status, ok := r.ResolveAt(k.carrier, k.date)
	if !ok {
		return fail(generic.IntegrityMissingStatus, "clock rings present but no status record effective on this date")
	}

	total, leave := decimal.Zero, decimal.Zero
	code, leaveType := "none", "none"
	var moveLists []string
	for _, row := range rows {
		t, err := generic.ParseHours(row.Total)
		if err != nil {
			return fail(generic.IntegrityMalformedHours, "total: %v", err)
		}
		l, err := generic.ParseHours(row.LeaveTime)
		if err != nil {
			return fail(generic.IntegrityMalformedHours, "leave time: %v", err)
		}
		total = total.Add(t)
		leave = leave.Add(l)
		moveLists = append(moveLists, row.Moves)
		if c := normalizeLabel(row.Code); code == "none" {
			code = c
		}
		if lt := normalizeLabel(row.LeaveType); leaveType == "none" {
			leaveType = lt
		}
	}
	if total.IsNegative() || leave.IsNegative() {
		return fail(generic.IntegrityMalformedHours, "negative hours (total %s, leave %s)", total, leave)
	}

	moves, err := ParseMoves(joinMoves(moveLists))
	if err != nil {
		return fail(generic.IntegrityMalformedMoves, "%v", err)
	}

	day := Day{
		CarrierID:  k.carrier,
		Date:       k.date,
		Status:     status,
		TotalHours: total,
		LeaveHours: leave,
		Code:       code,
		LeaveType:  leaveType,
		Moves:      moves,
		Indicator:  indicatorFor(code, leaveType),
	}
	day.NonScheduled = status.IsNonScheduled(k.date) || code == "ns day"
	day.PaidHours = paidHours(total, leave, leaveType)

	var issues []*generic.DataIntegrityError
	flag := func(kind generic.IntegrityKind, format string, args ...any) {
		day.Flags = append(day.Flags, kind)
		issues = append(issues, &generic.DataIntegrityError{
			Kind:      kind,
			CarrierID: k.carrier,
			Date:      k.date,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	moveHours, offRoute := decimal.Zero, decimal.Zero
	suspect := 0
	for _, m := range moves {
		h := m.Hours()
		moveHours = moveHours.Add(h)
		if h.GreaterThan(p.MoveSanity) {
			suspect++
		}
		if !status.IsOwnRoute(m.Route) {
			offRoute = offRoute.Add(h)
		}
	}
	day.MoveHours = moveHours
	if suspect > 0 {
		flag(generic.IntegritySuspectMove, "%d move segment(s) longer than %s hours", suspect, p.MoveSanity)
	}

	// OTDL and PTF carriers have no bid assignment to be moved off of.
	if status.ListStatus == roster.StatusOTDL || status.ListStatus == roster.StatusPTF {
		offRoute = decimal.Zero
	}
	day.OffRouteHours = offRoute
	day.OwnRouteHours = total.Sub(offRoute)
	if day.OwnRouteHours.IsNegative() {
		flag(generic.IntegrityNegativeOwnRoute, "off-route hours %s exceed total %s; own route clamped to 0", offRoute, total)
		day.OwnRouteHours = decimal.Zero
	}

	return day, issues, true
}

// paidHours folds leave into the day's hours: an 8-hour holiday does not add
// to hours worked, leave that fits inside the worked hours is already
// counted, anything else is added on top.
func paidHours(total, leave decimal.Decimal, leaveType string) decimal.Decimal {
	if leaveType == "holiday" && leave.Equal(generic.Eight) {
		return total
	}
	if leave.LessThanOrEqual(total) {
		return total
	}
	return total.Add(leave)
}
