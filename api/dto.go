/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Most domain types already carry JSON tags and are returned as-is
  (roster.StatusRecord, rings.Row, violations.Record, violations.Totals).
  The types here cover request bodies and the few responses that reshape
  domain data.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/calendar.go: CalendarDocument, the exclusions body
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ExcusalRequest records a steward's excusal decision for an OTDL
// carrier-day. Source defaults to manual.
type ExcusalRequest struct {
	CarrierID generic.CarrierID `json:"carrier_id"`
	Date      generic.Date      `json:"date"`
	Excused   bool              `json:"excused"`
	Source    string            `json:"source,omitempty"`
}

type MaximizedRequest struct {
	Maximized bool `json:"maximized"`
}

// EvaluateRequest asks for a full re-run over [From, To].
type EvaluateRequest struct {
	From generic.Date `json:"from"`
	To   generic.Date `json:"to"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ImportDTO struct {
	Rows        int `json:"rows"`
	CarrierDays int `json:"carrier_days"`
}

// IssueDTO is one data-integrity finding of a run.
type IssueDTO struct {
	Kind      generic.IntegrityKind `json:"kind"`
	CarrierID generic.CarrierID     `json:"carrier_id"`
	Date      generic.Date          `json:"date"`
	Message   string                `json:"message"`
	Excluded  bool                  `json:"excluded"`
}

// EvaluationDTO summarizes a finished run. The records themselves are
// served by /api/violations.
type EvaluationDTO struct {
	RunID      string              `json:"run_id"`
	Range      generic.Period      `json:"range"`
	StartedAt  string              `json:"started_at"`
	DurationMS int64               `json:"duration_ms"`
	Totals     violations.Totals   `json:"totals"`
	Issues     []IssueDTO          `json:"issues"`
	Excusals   []excusal.Effective `json:"excusals"`
}

type RunDTO struct {
	ID         string          `json:"id"`
	Range      generic.Period  `json:"range"`
	StartedAt  string          `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Outcome    string          `json:"outcome"`
	Records    int             `json:"records"`
	Violations int             `json:"violations"`
	Remedy     decimal.Decimal `json:"remedy_hours"`
	Issues     int             `json:"issues"`
	Error      string          `json:"error,omitempty"`
}

type ArticleDTO struct {
	ID    generic.Article `json:"id"`
	Label string          `json:"label"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEvaluationDTO(res *violations.Result) EvaluationDTO {
	issues := make([]IssueDTO, len(res.Issues))
	for i, is := range res.Issues {
		issues[i] = IssueDTO{
			Kind:      is.Kind,
			CarrierID: is.CarrierID,
			Date:      is.Date,
			Message:   is.Message,
			Excluded:  is.Excluded,
		}
	}
	excusals := res.Excusals
	if excusals == nil {
		excusals = []excusal.Effective{}
	}
	return EvaluationDTO{
		RunID:      res.RunID.String(),
		Range:      res.Ledger.Range,
		StartedAt:  res.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: res.Duration.Milliseconds(),
		Totals:     res.Ledger.Totals,
		Issues:     issues,
		Excusals:   excusals,
	}
}

func toRunDTO(r store.Run) RunDTO {
	return RunDTO{
		ID:         r.ID.String(),
		Range:      r.Range,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: r.Duration.Milliseconds(),
		Outcome:    r.Outcome,
		Records:    r.Records,
		Violations: r.Violations,
		Remedy:     r.Remedy,
		Issues:     r.Issues,
		Error:      r.Error,
	}
}
