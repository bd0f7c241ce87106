/*
handlers.go - HTTP API handlers for the overtime violation engine

PURPOSE:
  Exposes the store-backed inputs and the evaluation service via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  the store and app.Service.

ENDPOINTS:
  Roster:
    GET    /api/carriers                 List status records
    POST   /api/carriers                 Add a status version
    GET    /api/carriers/{id}            Status history of one carrier

  Clock rings:
    POST   /api/rings                    Bulk import (replaces touched carrier-days)
    GET    /api/rings?from&to            Rows in a date range

  Excusals:
    GET    /api/excusals?from&to         Entries in a date range
    POST   /api/excusals                 Record a steward override

  Exclusion calendar:
    GET    /api/exclusions               Current calendar
    PUT    /api/exclusions               Replace (native or legacy document)

  Maximized dates:
    GET    /api/maximized?from&to        Dates declared maximized
    PUT    /api/maximized/{date}         Set or clear one date

  Evaluation:
    POST   /api/evaluations              Full re-run over {from, to}
    GET    /api/violations               Ledger query (from, to, carrier, article, violated)
    GET    /api/remedies                 Totals over the same filters
    GET    /api/runs?limit               Run log, newest first
    GET    /api/articles                 Article identifiers and labels

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, configuration errors
  - 404: Resource not found
  - 409: Evaluation already running, aggregation conflict
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

// maxBody bounds request bodies; a season of rings for a large station fits.
const maxBody = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.Store
	Service *app.Service

	log logger.Logger
	now func() time.Time
}

// NewHandler creates a new handler over the store and service.
func NewHandler(st store.Store, svc *app.Service, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{Store: st, Service: svc, log: log, now: time.Now}
}

// =============================================================================
// ROSTER ENDPOINTS
// =============================================================================

// ListCarriers returns every status record.
// GET /api/carriers
func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.Statuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list carriers", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetCarrier returns one carrier's status history.
// GET /api/carriers/{id}
func (h *Handler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	id := generic.NormalizeCarrierID(chi.URLParam(r, "id"))

	recs, err := h.Store.Statuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get carrier", err)
		return
	}
	history := []roster.StatusRecord{}
	for _, rec := range recs {
		if rec.CarrierID == id {
			history = append(history, rec)
		}
	}
	if len(history) == 0 {
		writeDomainError(w, "Carrier not found", generic.ErrCarrierNotFound)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// AddStatus stores a status version.
// POST /api/carriers
func (h *Handler) AddStatus(w http.ResponseWriter, r *http.Request) {
	var rec roster.StatusRecord
	if err := decode(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	norm, err := rec.Normalized()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status record", err)
		return
	}
	if err := h.Store.SaveStatus(r.Context(), norm); err != nil {
		writeDomainError(w, "Failed to save status", err)
		return
	}
	writeJSON(w, http.StatusCreated, norm)
}

// =============================================================================
// RING ENDPOINTS
// =============================================================================

// ImportRings bulk-loads clock rings. Rows must carry a carrier and a date;
// their hour fields are validated at evaluation time and reported as
// integrity issues.
// POST /api/rings
func (h *Handler) ImportRings(w http.ResponseWriter, r *http.Request) {
	var rows []rings.Row
	if err := decode(r, &rows); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for i, row := range rows {
		if strings.TrimSpace(string(row.CarrierID)) == "" || row.Date.IsZero() {
			writeError(w, http.StatusBadRequest, "Every row needs carrier_id and date", fmt.Errorf("row %d", i))
			return
		}
	}
	if err := h.Store.ImportRings(r.Context(), rows); err != nil {
		h.log.Errorf("ring import of %d rows failed: %v", len(rows), err)
		writeError(w, http.StatusInternalServerError, "Failed to import rings", err)
		return
	}
	h.log.Infof("imported %d ring rows", len(rows))
	writeJSON(w, http.StatusCreated, ImportDTO{Rows: len(rows), CarrierDays: len(store.RingDays(rows))})
}

// ListRings returns rows in a date range.
// GET /api/rings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListRings(w http.ResponseWriter, r *http.Request) {
	rng, err := requiredRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}
	rows, err := h.Store.Rings(r.Context(), rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rings", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// EXCUSAL ENDPOINTS
// =============================================================================

// ListExcusals returns stored excusal entries in a date range.
// GET /api/excusals?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListExcusals(w http.ResponseWriter, r *http.Request) {
	rng, err := requiredRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}
	recs, err := h.Store.Excusals(r.Context(), rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list excusals", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// SetExcusal appends an excusal entry stamped with the current time.
// POST /api/excusals
func (h *Handler) SetExcusal(w http.ResponseWriter, r *http.Request) {
	var req ExcusalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(string(req.CarrierID)) == "" || req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "carrier_id and date are required", nil)
		return
	}
	source := excusal.SourceManual
	if req.Source != "" {
		s, err := excusal.ParseSource(req.Source)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid source", err)
			return
		}
		source = s
	}

	rec := excusal.Record{
		CarrierID: generic.NormalizeCarrierID(string(req.CarrierID)),
		Date:      req.Date,
		Source:    source,
		Excused:   req.Excused,
		EnteredAt: h.now().UTC(),
	}
	if err := h.Store.AddExcusal(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save excusal", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// =============================================================================
// EXCLUSION ENDPOINTS
// =============================================================================

// GetExclusions returns the calendar as a native document.
// GET /api/exclusions
func (h *Handler) GetExclusions(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.Exclusions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load exclusions", err)
		return
	}
	cal, err := exclusion.NewCalendar(periods)
	if err != nil {
		writeDomainError(w, "Stored exclusions are invalid", err)
		return
	}
	doc := factory.DocumentOf(cal)
	writeJSON(w, http.StatusOK, doc)
}

// ReplaceExclusions validates and stores a whole calendar. The body may be
// a native document or the legacy per-year format.
// PUT /api/exclusions
func (h *Handler) ReplaceExclusions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	cal, err := factory.ParseCalendar(body)
	if err != nil {
		writeDomainError(w, "Invalid exclusion calendar", err)
		return
	}
	stored, err := h.Service.ReplaceExclusions(r.Context(), cal.Periods())
	if err != nil {
		writeDomainError(w, "Failed to store exclusions", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.DocumentOf(stored))
}

// =============================================================================
// MAXIMIZED DATE ENDPOINTS
// =============================================================================

// ListMaximized returns maximized dates in a range.
// GET /api/maximized?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListMaximized(w http.ResponseWriter, r *http.Request) {
	rng, err := requiredRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}
	dates, err := h.Store.MaximizedDates(r.Context(), rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list maximized dates", err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

// SetMaximized sets or clears the OTDL-maximized flag of one date.
// PUT /api/maximized/{date}
func (h *Handler) SetMaximized(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	var req MaximizedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.SetMaximized(r.Context(), date, req.Maximized); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set maximized date", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "maximized": req.Maximized})
}

// =============================================================================
// EVALUATION ENDPOINTS
// =============================================================================

// Evaluate runs the engine over a range and stores the ledger.
// POST /api/evaluations
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rng, err := generic.NewPeriod(req.From, req.To)
	if err != nil {
		writeDomainError(w, "Invalid range", err)
		return
	}

	res, err := h.Service.Evaluate(r.Context(), rng)
	if err != nil {
		writeDomainError(w, "Evaluation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationDTO(res))
}

// ListViolations queries the stored ledger.
// GET /api/violations?from&to&carrier&article&violated=true
func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	recs, err := h.Store.Violations(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query violations", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetRemedies totals the stored ledger over the query.
// GET /api/remedies?from&to&carrier&article
func (h *Handler) GetRemedies(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	recs, err := h.Store.Violations(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query violations", err)
		return
	}
	writeJSON(w, http.StatusOK, violations.Summarize(recs))
}

// ListRuns returns the run log, newest first.
// GET /api/runs?limit=20
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	runs, err := h.Store.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListArticles returns the articles in evaluation order.
// GET /api/articles
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ArticleDTO, len(generic.Articles))
	for i, a := range generic.Articles {
		dtos[i] = ArticleDTO{ID: a, Label: a.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
}

func requiredRange(r *http.Request) (generic.Period, error) {
	from, err := generic.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return generic.Period{}, err
	}
	to, err := generic.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return generic.Period{}, err
	}
	return generic.NewPeriod(from, to)
}

func parseQuery(r *http.Request) (violations.Query, error) {
	v := r.URL.Query()
	q := violations.Query{}
	if s := v.Get("carrier"); s != "" {
		q.CarrierID = generic.NormalizeCarrierID(s)
	}
	if s := v.Get("article"); s != "" {
		a, err := generic.ParseArticle(s)
		if err != nil {
			return q, err
		}
		q.Article = a
	}
	var err error
	if s := v.Get("from"); s != "" {
		if q.From, err = generic.ParseDate(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("to"); s != "" {
		if q.To, err = generic.ParseDate(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("violated"); s != "" {
		if q.ViolatedOnly, err = strconv.ParseBool(s); err != nil {
			return q, err
		}
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's sentinel.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case generic.IsNotFound(err):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, generic.ErrRunInProgress):
		status, resp.Code = http.StatusConflict, "run_in_progress"
	case errors.Is(err, generic.ErrAggregationConflict):
		status, resp.Code = http.StatusConflict, "aggregation_conflict"
	case errors.Is(err, generic.ErrConfiguration):
		status, resp.Code = http.StatusBadRequest, "configuration"
	case generic.IsClientError(err):
		status, resp.Code = http.StatusBadRequest, "invalid"
	}
	writeJSON(w, status, resp)
}
