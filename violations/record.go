/*
Package violations evaluates the contract overtime articles over prepared
carrier-days and aggregates the results into a remedy ledger.

PURPOSE:
  This is the heart of the engine. Seven evaluators, one per article, each
  read the prepared days (already filtered by the exclusion calendar for
  their article) and emit exactly one Record per applicable carrier-day in
  the evaluated range, violated or not. The aggregator merges the seven
  outputs into a Ledger and checks the one-record-per-key contract.

KEY CONCEPTS:
  - Record: The outcome of one article on one carrier-day
  - Facts: What an evaluator reads (days, excusals, maximized dates, config)
  - Evaluator: One article's rule, statically listed in DefaultEvaluators
  - Ledger: All records of a run plus remedy totals
  - Engine: The dispatcher that runs the whole pipeline

ARTICLES:
  | Article   | Applies to   | Violated when                                  |
  |-----------|--------------|------------------------------------------------|
  | 8.5.D     | WAL, NL      | off-route overtime while an OTDL was available |
  | 8.5.F     | WAL, NL, PTF | own route > 10 on a scheduled day              |
  | 8.5.F NS  | WAL, NL, PTF | more than 8 hours on the NS day                |
  | 8.5.F 5th | WAL, NL, PTF | 5th+ overtime day of the service week          |
  | 8.5.G     | OTDL         | not maximized while WAL/NL worked overtime     |
  | MAX12     | WAL, NL, PTF | more than 12 hours in a day                    |
  | MAX60     | WAL, NL, PTF | more than 60 hours in the service week         |

SEE ALSO:
  - evaluator.go: Evaluator interface and shared joins
  - ledger.go: Aggregation and totals
  - engine.go: The dispatcher
*/
package violations

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
)

// =============================================================================
// REASONS - Why a record came out the way it did
// =============================================================================

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonExcusedManual   Reason = "excused_manual"
	ReasonExcusedAuto     Reason = "excused_auto"
	ReasonReachedLimit    Reason = "reached_limit"
	ReasonNoOvertime      Reason = "no_overtime"
	ReasonNoAvailableOTDL Reason = "no_available_otdl"
	ReasonNoWALOvertime   Reason = "no_wal_overtime"
	ReasonOTDLMaximized   Reason = "otdl_maximized"
	ReasonNSDay           Reason = "ns_day"
	ReasonNotNSDay        Reason = "not_ns_day"
	ReasonSunday          Reason = "sunday"
	ReasonBelowThreshold  Reason = "below_threshold"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is the outcome of one article for one carrier-day. Records are
// created fresh on every run and never mutated after aggregation.
type Record struct {
	CarrierID        generic.CarrierID  `json:"carrier_id"`
	Date             generic.Date       `json:"date"`
	Article          generic.Article    `json:"article"`
	Violated         bool               `json:"violated"`
	RemedyHours      decimal.Decimal    `json:"remedy_hours"`
	TriggerCarrierID *generic.CarrierID `json:"trigger_carrier_id"`
	DisplayIndicator rings.Indicator    `json:"display_indicator"`

	// Informational
	ListStatus    roster.ListStatus `json:"list_status"`
	Station       generic.Station   `json:"station"`
	TotalHours    decimal.Decimal   `json:"total_hours"`
	OwnRouteHours decimal.Decimal   `json:"own_route_hours"`
	OffRouteHours decimal.Decimal   `json:"off_route_hours"`
	WeekToDate    decimal.Decimal   `json:"week_to_date"`
	Ordinal       int               `json:"ordinal,omitempty"`
	Reason        Reason            `json:"reason,omitempty"`
}

// Key identifies a record in the ledger.
type Key struct {
	CarrierID generic.CarrierID
	Date      generic.Date
	Article   generic.Article
}

func (r Record) Key() Key {
	return Key{CarrierID: r.CarrierID, Date: r.Date, Article: r.Article}
}

// newRecord starts a not-violated record for the day.
func newRecord(a generic.Article, d rings.Day) Record {
	return Record{
		CarrierID:        d.CarrierID,
		Date:             d.Date,
		Article:          a,
		RemedyHours:      decimal.Zero,
		DisplayIndicator: d.Indicator,
		ListStatus:       d.ListStatus(),
		Station:          d.Station(),
		TotalHours:       d.TotalHours,
		OwnRouteHours:    d.OwnRouteHours,
		OffRouteHours:    d.OffRouteHours,
		WeekToDate:       decimal.Zero,
	}
}

// violate marks the record violated with the rounded remedy. A remedy that
// rounds to zero leaves the record not violated.
func (r *Record) violate(remedy decimal.Decimal) {
	remedy = generic.RoundRemedy(remedy)
	if !remedy.IsPositive() {
		r.Reason = ReasonBelowThreshold
		return
	}
	r.Violated = true
	r.RemedyHours = remedy
	r.Reason = ReasonNone
}

func (r *Record) clear(reason Reason) {
	r.Violated = false
	r.RemedyHours = decimal.Zero
	r.Reason = reason
}

func carrierRef(id generic.CarrierID) *generic.CarrierID {
	return &id
}
