/*
Package app runs evaluations against the store.

PURPOSE:
  The engine is a pure function of its Input. Service is the glue: it loads
  a consistent snapshot from the store, widened to whole service weeks,
  runs the engine, replaces the stored ledger of the range and appends a
  line to the run log.

SERIALIZATION:
  One evaluation at a time. A second request while a run holds the lock
  fails fast with generic.ErrRunInProgress instead of queueing, so two runs
  over overlapping ranges can never interleave their ledger writes.

SEE ALSO:
  - violations/engine.go: The pipeline itself
  - store/store.go: Snapshot sources and ledger replacement
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/violations"
)

type Service struct {
	store  store.Store
	engine *violations.Engine
	log    logger.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewService(st store.Store, eng *violations.Engine, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{store: st, engine: eng, log: log, now: time.Now}
}

// Engine exposes the configured engine (thresholds, evaluation window).
func (s *Service) Engine() *violations.Engine { return s.engine }

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot loads the engine input for rng. Rings, excusals and maximized
// dates cover the whole service weeks around rng so that weekly rules see
// the days before the range starts.
func (s *Service) Snapshot(ctx context.Context, rng generic.Period) (violations.Input, error) {
	if err := rng.Validate(); err != nil {
		return violations.Input{}, fmt.Errorf("evaluation range %s: %w", rng, err)
	}
	window := s.engine.EvaluationWindow(rng)

	statuses, err := s.store.Statuses(ctx)
	if err != nil {
		return violations.Input{}, fmt.Errorf("load roster: %w", err)
	}
	r, err := roster.New(statuses)
	if err != nil {
		return violations.Input{}, &generic.ConfigurationError{Field: "roster", Message: err.Error()}
	}

	rows, err := s.store.Rings(ctx, window)
	if err != nil {
		return violations.Input{}, fmt.Errorf("load rings: %w", err)
	}
	excusals, err := s.store.Excusals(ctx, window)
	if err != nil {
		return violations.Input{}, fmt.Errorf("load excusals: %w", err)
	}
	periods, err := s.store.Exclusions(ctx)
	if err != nil {
		return violations.Input{}, fmt.Errorf("load exclusions: %w", err)
	}
	cal, err := exclusion.NewCalendar(periods)
	if err != nil {
		return violations.Input{}, err
	}
	maximized, err := s.store.MaximizedDates(ctx, window)
	if err != nil {
		return violations.Input{}, fmt.Errorf("load maximized dates: %w", err)
	}

	return violations.Input{
		Range:          rng,
		Roster:         r,
		Rings:          rows,
		Excusals:       excusals,
		Exclusions:     cal,
		MaximizedDates: maximized,
	}, nil
}

// =============================================================================
// EVALUATE
// =============================================================================

// Evaluate runs the engine over rng and, on success, replaces the stored
// ledger of rng with the result. Every attempt that reaches the engine is
// logged in the run log, failed ones included.
func (s *Service) Evaluate(ctx context.Context, rng generic.Period) (*violations.Result, error) {
	if !s.mu.TryLock() {
		return nil, generic.ErrRunInProgress
	}
	defer s.mu.Unlock()

	in, err := s.Snapshot(ctx, rng)
	if err != nil {
		return nil, err
	}

	started := s.now()
	res, err := s.engine.Run(ctx, in)
	if err != nil {
		s.log.Errorf("evaluation %s failed: %v", rng, err)
		s.saveFailedRun(rng, started, err)
		return nil, err
	}

	if err := s.store.ReplaceLedger(ctx, rng, res.Ledger.Records); err != nil {
		return nil, fmt.Errorf("store ledger: %w", err)
	}
	if err := s.store.SaveRun(ctx, store.RunOf(rng, res)); err != nil {
		s.log.Warnf("run %s: save run log: %v", res.RunID, err)
	}
	return res, nil
}

// saveFailedRun logs a run that produced no ledger. It uses a fresh context
// since ctx may be the reason the run failed.
func (s *Service) saveFailedRun(rng generic.Period, started time.Time, runErr error) {
	run := store.Run{
		ID:        uuid.New(),
		Range:     rng,
		StartedAt: started,
		Duration:  s.now().Sub(started),
		Outcome:   outcomeOf(runErr),
		Error:     runErr.Error(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveRun(ctx, run); err != nil {
		s.log.Warnf("save failed run: %v", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return violations.OutcomeCancelled
	case errors.Is(err, generic.ErrAggregationConflict):
		return violations.OutcomeConflict
	}
	return violations.OutcomeInvalid
}

// =============================================================================
// EXCLUSIONS
// =============================================================================

// ReplaceExclusions validates periods as a calendar and stores them.
func (s *Service) ReplaceExclusions(ctx context.Context, periods []exclusion.Period) (*exclusion.Calendar, error) {
	cal, err := exclusion.NewCalendar(periods)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceExclusions(ctx, cal.Periods()); err != nil {
		return nil, err
	}
	return cal, nil
}

// SeedExclusions stores cal when the store holds no calendar yet. It
// reports whether anything was written.
func (s *Service) SeedExclusions(ctx context.Context, cal *exclusion.Calendar) (bool, error) {
	if cal.Len() == 0 {
		return false, nil
	}
	existing, err := s.store.Exclusions(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := s.store.ReplaceExclusions(ctx, cal.Periods()); err != nil {
		return false, err
	}
	s.log.Infof("seeded %d exclusion period(s) from configuration", cal.Len())
	return true, nil
}
