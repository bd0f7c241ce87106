// Package memory provides an in-memory store.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	statuses   map[statusKey]roster.StatusRecord
	rings      map[store.CarrierDay][]rings.Row
	excusals   []excusal.Record
	exclusions []exclusion.Period
	maximized  map[generic.Date]bool
	ledger     []violations.Record // kept in ledger order
	runs       []store.Run
}

type statusKey struct {
	carrier generic.CarrierID
	date    generic.Date
}

func New() *Memory {
	return &Memory{
		statuses:  make(map[statusKey]roster.StatusRecord),
		rings:     make(map[store.CarrierDay][]rings.Row),
		maximized: make(map[generic.Date]bool),
	}
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// INPUTS
// =============================================================================

func (m *Memory) SaveStatus(_ context.Context, rec roster.StatusRecord) error {
	rec, err := rec.Normalized()
	if err != nil {
		return &generic.ConfigurationError{Field: "status", Message: err.Error()}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[statusKey{carrier: rec.CarrierID, date: rec.EffectiveDate}] = rec
	return nil
}

// Statuses returns every status record ordered by carrier, then effective
// date.
func (m *Memory) Statuses(_ context.Context) ([]roster.StatusRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]roster.StatusRecord, 0, len(m.statuses))
	for _, rec := range m.statuses {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CarrierID != out[j].CarrierID {
			return out[i].CarrierID < out[j].CarrierID
		}
		return out[i].EffectiveDate.Before(out[j].EffectiveDate)
	})
	return out, nil
}

// ImportRings replaces the stored rows of every carrier-day in rows.
func (m *Memory) ImportRings(_ context.Context, rows []rings.Row) error {
	fresh := make(map[store.CarrierDay][]rings.Row)
	for _, r := range rows {
		k := store.CarrierDay{CarrierID: generic.NormalizeCarrierID(string(r.CarrierID)), Date: r.Date}
		r.CarrierID = k.CarrierID
		fresh[k] = append(fresh[k], r)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rs := range fresh {
		m.rings[k] = rs
	}
	return nil
}

// Rings returns the rows dated inside p, ordered by date, then carrier.
func (m *Memory) Rings(_ context.Context, p generic.Period) ([]rings.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]store.CarrierDay, 0)
	for k := range m.rings {
		if p.Contains(k.Date) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Date.Equal(keys[j].Date) {
			return keys[i].Date.Before(keys[j].Date)
		}
		return keys[i].CarrierID < keys[j].CarrierID
	})

	out := []rings.Row{}
	for _, k := range keys {
		out = append(out, m.rings[k]...)
	}
	return out, nil
}

func (m *Memory) AddExcusal(_ context.Context, rec excusal.Record) error {
	rec.CarrierID = generic.NormalizeCarrierID(string(rec.CarrierID))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excusals = append(m.excusals, rec)
	return nil
}

// Excusals returns entries dated inside p in insertion order.
func (m *Memory) Excusals(_ context.Context, p generic.Period) ([]excusal.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []excusal.Record{}
	for _, rec := range m.excusals {
		if p.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) ReplaceExclusions(_ context.Context, periods []exclusion.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exclusions = append([]exclusion.Period(nil), periods...)
	return nil
}

func (m *Memory) Exclusions(_ context.Context) ([]exclusion.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]exclusion.Period{}, m.exclusions...), nil
}

func (m *Memory) SetMaximized(_ context.Context, date generic.Date, maximized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maximized {
		m.maximized[date] = true
	} else {
		delete(m.maximized, date)
	}
	return nil
}

func (m *Memory) MaximizedDates(_ context.Context, p generic.Period) ([]generic.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []generic.Date{}
	for d := range m.maximized {
		if p.Contains(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// =============================================================================
// OUTPUTS
// =============================================================================

// ReplaceLedger drops every record dated inside rng and merges records in,
// keeping ledger order.
func (m *Memory) ReplaceLedger(_ context.Context, rng generic.Period, records []violations.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]violations.Record, 0, len(m.ledger)+len(records))
	for _, r := range m.ledger {
		if !rng.Contains(r.Date) {
			kept = append(kept, r)
		}
	}
	kept = append(kept, records...)
	violations.SortRecords(kept)
	m.ledger = kept
	return nil
}

func (m *Memory) Violations(_ context.Context, q violations.Query) ([]violations.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []violations.Record{}
	for _, r := range m.ledger {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) SaveRun(_ context.Context, run store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Runs stay ordered newest first.
	i := sort.Search(len(m.runs), func(i int) bool {
		return m.runs[i].StartedAt.Before(run.StartedAt)
	})
	m.runs = append(m.runs, store.Run{})
	copy(m.runs[i+1:], m.runs[i:])
	m.runs[i] = run
	return nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means all.
func (m *Memory) Runs(_ context.Context, limit int) ([]store.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]store.Run{}, m.runs[:n]...), nil
}

var _ store.Store = (*Memory)(nil)
