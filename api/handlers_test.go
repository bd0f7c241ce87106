/*
handlers_test.go - HTTP tests for the API handlers

Tests run the full router over the in-memory store so routing, JSON
decoding and error mapping are exercised together.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	store  *memory.Memory
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.New()
	eng, err := violations.NewEngine(violations.DefaultConfig())
	require.NoError(t, err)

	svc := app.NewService(st, eng, logger.NopLogger{})
	h := NewHandler(st, svc, logger.NopLogger{})
	h.now = func() time.Time { return time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC) }

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	return &testServer{store: st, router: NewRouter(h, RouterOptions{Metrics: metrics})}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedSmith adds a WAL carrier whose non-scheduled day is Saturday.
func (ts *testServer) seedSmith(t *testing.T) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/carriers", map[string]any{
		"carrier_id":     " Smith ",
		"effective_date": "2025-01-01",
		"list_status":    "wal",
		"route":          "0101",
		"station":        "Main",
		"ns_day":         "yellow",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// ROSTER
// =============================================================================

func TestAddStatus_NormalizesAndLists(t *testing.T) {
	ts := newTestServer(t)

	// WHEN: Adding a status with loose formatting
	ts.seedSmith(t)

	// THEN: The stored record is normalized
	rec := ts.do(t, http.MethodGet, "/api/carriers/SMITH", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]roster.StatusRecord](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, generic.CarrierID("smith"), history[0].CarrierID)
	assert.Equal(t, roster.StatusWAL, history[0].ListStatus)

	rec = ts.do(t, http.MethodGet, "/api/carriers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]roster.StatusRecord](t, rec), 1)
}

func TestAddStatus_RejectsInvalidStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/carriers", map[string]any{
		"carrier_id":     "smith",
		"effective_date": "2025-01-01",
		"list_status":    "casual",
		"station":        "main",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCarrier_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/carriers/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Code)
}

// =============================================================================
// RINGS
// =============================================================================

func TestImportRings_CountsCarrierDays(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rings", []map[string]string{
		{"date": "2025-03-17", "carrier_id": "smith", "total": "6.00"},
		{"date": "2025-03-17", "carrier_id": "smith", "total": "3.00"},
		{"date": "2025-03-18", "carrier_id": "smith", "total": "8.00"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ImportDTO{Rows: 3, CarrierDays: 2}, decodeBody[ImportDTO](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/rings?from=2025-03-17&to=2025-03-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)
}

func TestImportRings_RejectsRowWithoutCarrier(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rings", []map[string]string{
		{"date": "2025-03-17", "total": "6.00"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRings_RequiresRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/rings?from=2025-03-17", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EXCUSALS AND MAXIMIZED DATES
// =============================================================================

func TestSetExcusal_StampsEntry(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/excusals", map[string]any{
		"carrier_id": "Otis", "date": "2025-03-17", "excused": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored := decodeBody[excusal.Record](t, rec)
	assert.Equal(t, generic.CarrierID("otis"), stored.CarrierID)
	assert.Equal(t, excusal.SourceManual, stored.Source)
	assert.True(t, stored.EnteredAt.Equal(time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC)))

	rec = ts.do(t, http.MethodGet, "/api/excusals?from=2025-03-17&to=2025-03-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]excusal.Record](t, rec), 1)
}

func TestSetExcusal_RejectsUnknownSource(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/excusals", map[string]any{
		"carrier_id": "otis", "date": "2025-03-17", "excused": true, "source": "rumor",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetMaximized(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/maximized/2025-03-17", MaximizedRequest{Maximized: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/maximized?from=2025-03-15&to=2025-03-21", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dates := decodeBody[[]generic.Date](t, rec)
	require.Len(t, dates, 1)
	assert.Equal(t, "2025-03-17", dates[0].String())

	rec = ts.do(t, http.MethodPut, "/api/maximized/17-03-2025", MaximizedRequest{Maximized: true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EXCLUSIONS
// =============================================================================

func TestReplaceExclusions_AcceptsLegacyDocument(t *testing.T) {
	ts := newTestServer(t)

	// WHEN: Uploading the legacy per-year format
	rec := ts.do(t, http.MethodPut, "/api/exclusions", `{"2024": {"december_exclusion": {"start": "2024-12-01", "end": "2024-12-31"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: It reads back as a native document scoped to the penalty articles
	rec = ts.do(t, http.MethodGet, "/api/exclusions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody[factory.CalendarDocument](t, rec)
	require.Len(t, doc.Periods, 1)
	assert.Equal(t, "2024-12-01", doc.Periods[0].Start)
	assert.Len(t, doc.Periods[0].Articles, len(factory.PenaltyArticles))
}

func TestReplaceExclusions_RejectsOverlap(t *testing.T) {
	ts := newTestServer(t)

	body := `{"periods": [
		{"name": "a", "start": "2024-12-01", "end": "2024-12-20"},
		{"name": "b", "start": "2024-12-15", "end": "2024-12-31"}
	]}`
	rec := ts.do(t, http.MethodPut, "/api/exclusions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "configuration", decodeBody[ErrorResponse](t, rec).Code)

	// THEN: Nothing was stored
	periods, err := ts.store.Exclusions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, periods)
}

// =============================================================================
// EVALUATION
// =============================================================================

func TestEvaluate_ThenQueryLedger(t *testing.T) {
	ts := newTestServer(t)
	ts.seedSmith(t)

	// GIVEN: 10.5 hours on Monday and 13 hours on Tuesday
	rec := ts.do(t, http.MethodPost, "/api/rings", []map[string]string{
		{"date": "2025-03-17", "carrier_id": "smith", "total": "10.50"},
		{"date": "2025-03-18", "carrier_id": "smith", "total": "13.00"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: Evaluating both days
	rec = ts.do(t, http.MethodPost, "/api/evaluations", map[string]string{"from": "2025-03-17", "to": "2025-03-18"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	eval := decodeBody[EvaluationDTO](t, rec)
	assert.NotEmpty(t, eval.RunID)
	assert.Positive(t, eval.Totals.Violations)

	// THEN: The MAX12 violation can be queried on its own
	rec = ts.do(t, http.MethodGet, "/api/violations?article=MAX12&violated=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recs := decodeBody[[]violations.Record](t, rec)
	require.Len(t, recs, 1)
	assert.Equal(t, "2025-03-18", recs[0].Date.String())
	assert.True(t, recs[0].RemedyHours.Equal(generic.Hours(1)))

	rec = ts.do(t, http.MethodGet, "/api/remedies?carrier=SMITH", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decodeBody[violations.Totals](t, rec)
	assert.True(t, totals.Remedy.Equal(eval.Totals.Remedy))

	rec = ts.do(t, http.MethodGet, "/api/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decodeBody[[]RunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, eval.RunID, runs[0].ID)
	assert.Equal(t, violations.OutcomeSuccess, runs[0].Outcome)
}

func TestEvaluate_RejectsInvertedRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/evaluations", map[string]string{"from": "2025-03-18", "to": "2025-03-17"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListViolations_RejectsUnknownArticle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/violations?article=9.9", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRuns_RejectsBadLimit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// MISC
// =============================================================================

func TestListArticles_InEvaluationOrder(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/articles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	arts := decodeBody[[]ArticleDTO](t, rec)
	require.Len(t, arts, len(generic.Articles))
	assert.Equal(t, generic.Articles[0], arts[0].ID)
	assert.NotEmpty(t, arts[0].Label)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# metrics"))
}
