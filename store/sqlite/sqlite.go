/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the evaluation inputs (roster history, clock rings, excusals,
  exclusion calendar, maximized dates) and outputs (violation ledger, run
  log) in a single SQLite file.

KEY TABLES:
  carriers:          Effective-dated status records, one row per version
  rings:             Raw clock-ring rows, text columns as imported
  excusals:          Manual and automatic excusal entries (append-only)
  exclusion_periods: The exclusion calendar
  maximized_dates:   Dates on which the OTDL was declared maximized
  violations:        The ledger, one row per (carrier, date, article)
  evaluation_runs:   Run log

INDEXES:
  - idx_rings_date_carrier: Snapshot loads by date range
  - idx_excusals_date: Snapshot loads by date range
  - idx_violations_date: Ledger replacement and range queries

LEDGER REPLACEMENT:
  ReplaceLedger deletes the range and inserts the new records inside one
  transaction. Either the whole run lands or nothing changes.

ENCODING:
  Dates are TEXT "2006-01-02", so range filters compare as strings. Hours
  are decimal strings. Timestamps are INTEGER unix nanoseconds so ordering
  and excusal precedence survive a round trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so ":memory:"
  databases are shared by every query.

USAGE:
  st, err := sqlite.New("./overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface and write semantics
  - store/memory: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS carriers (
		carrier_id TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		list_status TEXT NOT NULL,
		hour_limit TEXT NOT NULL DEFAULT '0',
		route TEXT NOT NULL DEFAULT '',
		station TEXT NOT NULL DEFAULT '',
		ns_day TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (carrier_id, effective_date)
	);

	CREATE TABLE IF NOT EXISTS rings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		carrier_id TEXT NOT NULL,
		date TEXT NOT NULL,
		total TEXT NOT NULL DEFAULT '',
		moves TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		leave_type TEXT NOT NULL DEFAULT '',
		leave_time TEXT NOT NULL DEFAULT '',
		begin_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_rings_date_carrier
		ON rings(date, carrier_id);

	CREATE TABLE IF NOT EXISTS excusals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		carrier_id TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		excused BOOLEAN NOT NULL,
		entered_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_excusals_date
		ON excusals(date, carrier_id);

	CREATE TABLE IF NOT EXISTS exclusion_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		articles_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS maximized_dates (
		date TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS violations (
		carrier_id TEXT NOT NULL,
		date TEXT NOT NULL,
		article TEXT NOT NULL,
		violated BOOLEAN NOT NULL,
		remedy_hours TEXT NOT NULL,
		trigger_carrier_id TEXT,
		display_indicator TEXT NOT NULL DEFAULT '',
		list_status TEXT NOT NULL,
		station TEXT NOT NULL DEFAULT '',
		total_hours TEXT NOT NULL,
		own_route_hours TEXT NOT NULL,
		off_route_hours TEXT NOT NULL,
		week_to_date TEXT NOT NULL,
		ordinal INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (carrier_id, date, article)
	);

	CREATE INDEX IF NOT EXISTS idx_violations_date
		ON violations(date);

	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id TEXT PRIMARY KEY,
		range_start TEXT NOT NULL,
		range_end TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		records INTEGER NOT NULL DEFAULT 0,
		violations INTEGER NOT NULL DEFAULT 0,
		remedy_hours TEXT NOT NULL DEFAULT '0',
		issues INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_evaluation_runs_started
		ON evaluation_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// ROSTER
// =============================================================================

// SaveStatus inserts a status version, replacing one with the same carrier
// and effective date.
func (s *Store) SaveStatus(ctx context.Context, rec roster.StatusRecord) error {
	rec, err := rec.Normalized()
	if err != nil {
		return &generic.ConfigurationError{Field: "status", Message: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO carriers
		(carrier_id, effective_date, list_status, hour_limit, route, station, ns_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.CarrierID,
		rec.EffectiveDate.String(),
		rec.ListStatus,
		rec.HourLimit.String(),
		rec.Route,
		rec.Station,
		rec.NSDay,
	)
	if err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

// Statuses returns every status record ordered by carrier, then effective
// date.
func (s *Store) Statuses(ctx context.Context) ([]roster.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT carrier_id, effective_date, list_status, hour_limit, route, station, ns_day
		FROM carriers
		ORDER BY carrier_id ASC, effective_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	out := []roster.StatusRecord{}
	for rows.Next() {
		var (
			rec                  roster.StatusRecord
			effective, hourLimit string
			carrier, status, ns  string
			route, station       string
		)
		if err := rows.Scan(&carrier, &effective, &status, &hourLimit, &route, &station, &ns); err != nil {
			return nil, err
		}
		if rec.EffectiveDate, err = generic.ParseDate(effective); err != nil {
			return nil, err
		}
		if rec.HourLimit, err = decimal.NewFromString(hourLimit); err != nil {
			return nil, fmt.Errorf("carrier %s: hour limit: %w", carrier, err)
		}
		rec.CarrierID = generic.CarrierID(carrier)
		rec.ListStatus = roster.ListStatus(status)
		rec.Route = route
		rec.Station = generic.Station(station)
		rec.NSDay = roster.NSDay(ns)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// CLOCK RINGS
// =============================================================================

// ImportRings replaces the stored rows of every carrier-day in rows.
func (s *Store) ImportRings(ctx context.Context, rows []rings.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, day := range store.RingDays(rows) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM rings WHERE carrier_id = ? AND date = ?`,
				day.CarrierID, day.Date.String()); err != nil {
				return fmt.Errorf("failed to clear rings: %w", err)
			}
		}
		for _, r := range rows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO rings
				(carrier_id, date, total, moves, code, leave_type, leave_time, begin_time, end_time)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				generic.NormalizeCarrierID(string(r.CarrierID)),
				r.Date.String(),
				r.Total, r.Moves, r.Code, r.LeaveType, r.LeaveTime, r.BeginTime, r.EndTime,
			)
			if err != nil {
				return fmt.Errorf("failed to insert ring: %w", err)
			}
		}
		return nil
	})
}

// Rings returns the rows dated inside p, ordered by date, then carrier,
// then import order.
func (s *Store) Rings(ctx context.Context, p generic.Period) ([]rings.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT carrier_id, date, total, moves, code, leave_type, leave_time, begin_time, end_time
		FROM rings
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, carrier_id ASC, id ASC
	`, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query rings: %w", err)
	}
	defer rows.Close()

	out := []rings.Row{}
	for rows.Next() {
		var r rings.Row
		var carrier, date string
		if err := rows.Scan(&carrier, &date, &r.Total, &r.Moves, &r.Code, &r.LeaveType, &r.LeaveTime, &r.BeginTime, &r.EndTime); err != nil {
			return nil, err
		}
		if r.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		r.CarrierID = generic.CarrierID(carrier)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// EXCUSALS
// =============================================================================

func (s *Store) AddExcusal(ctx context.Context, rec excusal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO excusals (carrier_id, date, source, excused, entered_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		generic.NormalizeCarrierID(string(rec.CarrierID)),
		rec.Date.String(),
		rec.Source,
		rec.Excused,
		rec.EnteredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to add excusal: %w", err)
	}
	return nil
}

// Excusals returns entries dated inside p in insertion order.
func (s *Store) Excusals(ctx context.Context, p generic.Period) ([]excusal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT carrier_id, date, source, excused, entered_at
		FROM excusals
		WHERE date >= ? AND date <= ?
		ORDER BY id ASC
	`, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query excusals: %w", err)
	}
	defer rows.Close()

	out := []excusal.Record{}
	for rows.Next() {
		var (
			rec                   excusal.Record
			carrier, date, source string
			entered               int64
		)
		if err := rows.Scan(&carrier, &date, &source, &rec.Excused, &entered); err != nil {
			return nil, err
		}
		if rec.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if rec.Source, err = excusal.ParseSource(source); err != nil {
			return nil, err
		}
		rec.CarrierID = generic.CarrierID(carrier)
		rec.EnteredAt = time.Unix(0, entered).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// EXCLUSION CALENDAR
// =============================================================================

func (s *Store) ReplaceExclusions(ctx context.Context, periods []exclusion.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exclusion_periods`); err != nil {
			return fmt.Errorf("failed to clear exclusion periods: %w", err)
		}
		for _, p := range periods {
			articles, err := json.Marshal(p.Articles)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO exclusion_periods (name, start_date, end_date, articles_json)
				VALUES (?, ?, ?, ?)
			`, p.Name, p.Start.String(), p.End.String(), string(articles)); err != nil {
				return fmt.Errorf("failed to insert exclusion period: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Exclusions(ctx context.Context) ([]exclusion.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, start_date, end_date, articles_json
		FROM exclusion_periods
		ORDER BY start_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusion periods: %w", err)
	}
	defer rows.Close()

	out := []exclusion.Period{}
	for rows.Next() {
		var p exclusion.Period
		var start, end, articles string
		if err := rows.Scan(&p.Name, &start, &end, &articles); err != nil {
			return nil, err
		}
		if p.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if p.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(articles), &p.Articles); err != nil {
			return nil, fmt.Errorf("exclusion period %s: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// MAXIMIZED DATES
// =============================================================================

func (s *Store) SetMaximized(ctx context.Context, date generic.Date, maximized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `DELETE FROM maximized_dates WHERE date = ?`
	if maximized {
		query = `INSERT OR IGNORE INTO maximized_dates (date) VALUES (?)`
	}
	if _, err := s.db.ExecContext(ctx, query, date.String()); err != nil {
		return fmt.Errorf("failed to set maximized date: %w", err)
	}
	return nil
}

func (s *Store) MaximizedDates(ctx context.Context, p generic.Period) ([]generic.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date FROM maximized_dates
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query maximized dates: %w", err)
	}
	defer rows.Close()

	out := []generic.Date{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		d, err := generic.ParseDate(v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// =============================================================================
// LEDGER
// =============================================================================

// ReplaceLedger swaps the stored ledger of rng for records atomically.
func (s *Store) ReplaceLedger(ctx context.Context, rng generic.Period, records []violations.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM violations WHERE date >= ? AND date <= ?`,
			rng.Start.String(), rng.End.String()); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}
		for _, r := range records {
			if err := insertRecord(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRecord(ctx context.Context, db execer, r violations.Record) error {
	var trigger sql.NullString
	if r.TriggerCarrierID != nil {
		trigger = nullString(string(*r.TriggerCarrierID))
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO violations
		(carrier_id, date, article, violated, remedy_hours, trigger_carrier_id, display_indicator,
		 list_status, station, total_hours, own_route_hours, off_route_hours, week_to_date, ordinal, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.CarrierID,
		r.Date.String(),
		r.Article,
		r.Violated,
		r.RemedyHours.String(),
		trigger,
		r.DisplayIndicator,
		r.ListStatus,
		r.Station,
		r.TotalHours.String(),
		r.OwnRouteHours.String(),
		r.OffRouteHours.String(),
		r.WeekToDate.String(),
		r.Ordinal,
		r.Reason,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.AggregationConflictError{
				CarrierID: r.CarrierID, Date: r.Date, Article: string(r.Article), Reason: "duplicate",
			}
		}
		return fmt.Errorf("failed to insert violation: %w", err)
	}
	return nil
}

// Violations returns the stored records matching q, in ledger order.
func (s *Store) Violations(ctx context.Context, q violations.Query) ([]violations.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if q.CarrierID != "" {
		where = append(where, "carrier_id = ?")
		args = append(args, generic.NormalizeCarrierID(string(q.CarrierID)))
	}
	if q.Article != "" {
		where = append(where, "article = ?")
		args = append(args, q.Article)
	}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, q.To.String())
	}
	if q.ViolatedOnly {
		where = append(where, "violated = 1")
	}

	query := `
		SELECT carrier_id, date, article, violated, remedy_hours, trigger_carrier_id, display_indicator,
		       list_status, station, total_hours, own_route_hours, off_route_hours, week_to_date, ordinal, reason
		FROM violations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	out := []violations.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	violations.SortRecords(out)
	return out, nil
}

func scanRecord(rows *sql.Rows) (violations.Record, error) {
	var (
		r                                   violations.Record
		carrier, date, article, indicator   string
		status, station, reason             string
		remedy, total, own, off, weekToDate string
		trigger                             sql.NullString
	)
	err := rows.Scan(&carrier, &date, &article, &r.Violated, &remedy, &trigger, &indicator,
		&status, &station, &total, &own, &off, &weekToDate, &r.Ordinal, &reason)
	if err != nil {
		return r, err
	}
	if r.Date, err = generic.ParseDate(date); err != nil {
		return r, err
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&r.RemedyHours, remedy},
		{&r.TotalHours, total},
		{&r.OwnRouteHours, own},
		{&r.OffRouteHours, off},
		{&r.WeekToDate, weekToDate},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return r, fmt.Errorf("violation %s %s %s: %w", carrier, date, article, err)
		}
	}
	r.CarrierID = generic.CarrierID(carrier)
	r.Article = generic.Article(article)
	r.DisplayIndicator = rings.Indicator(indicator)
	r.ListStatus = roster.ListStatus(status)
	r.Station = generic.Station(station)
	r.Reason = violations.Reason(reason)
	if trigger.Valid {
		id := generic.CarrierID(trigger.String)
		r.TriggerCarrierID = &id
	}
	return r, nil
}

// =============================================================================
// RUN LOG
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluation_runs
		(id, range_start, range_end, started_at, duration_ns, outcome, records, violations, remedy_hours, issues, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID.String(),
		run.Range.Start.String(),
		run.Range.End.String(),
		run.StartedAt.UnixNano(),
		int64(run.Duration),
		run.Outcome,
		run.Records,
		run.Violations,
		run.Remedy.String(),
		run.Issues,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, range_start, range_end, started_at, duration_ns, outcome,
		       records, violations, remedy_hours, issues, error
		FROM evaluation_runs
		ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	out := []store.Run{}
	for rows.Next() {
		var (
			run                 store.Run
			id, start, end, rem string
			started, duration   int64
			errText             sql.NullString
		)
		if err := rows.Scan(&id, &start, &end, &started, &duration, &run.Outcome,
			&run.Records, &run.Violations, &rem, &run.Issues, &errText); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if run.Range.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if run.Range.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		if run.Remedy, err = decimal.NewFromString(rem); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, started).UTC()
		run.Duration = time.Duration(duration)
		run.Error = errText.String
		out = append(out, run)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"carriers", "rings", "excusals", "exclusion_periods", "maximized_dates", "violations", "evaluation_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a transaction. The caller holds s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ store.Store = (*Store)(nil)
