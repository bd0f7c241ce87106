package violations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/excusal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/rings"
	"github.com/warp/overtime-engine/roster"
)

// =============================================================================
// ENGINE - The dispatcher
// =============================================================================

// Input is the snapshot one run evaluates. The engine never mutates it.
type Input struct {
	Range      generic.Period
	Roster     *roster.Roster
	Rings      []rings.Row
	Excusals   []excusal.Record
	Exclusions *exclusion.Calendar

	// MaximizedDates are dates on which management declared the OTDL
	// maximized; 8.5.D and 8.5.G are never violated on them.
	MaximizedDates []generic.Date
}

// Result is a finished run.
type Result struct {
	RunID     uuid.UUID                     `json:"run_id"`
	StartedAt time.Time                     `json:"started_at"`
	Duration  time.Duration                 `json:"duration"`
	Ledger    *Ledger                       `json:"ledger"`
	Issues    []*generic.DataIntegrityError `json:"-"`
	Excusals  []excusal.Effective           `json:"excusals"`
}

// Stage names a pipeline step for progress reporting.
type Stage string

const (
	StagePrepare   Stage = "prepare"
	StageExcusals  Stage = "excusals"
	StageEvaluate  Stage = "evaluate"
	StageAggregate Stage = "aggregate"
)

// Progress is reported after every stage, and after each evaluator.
type Progress struct {
	Stage   Stage
	Article generic.Article
	Done    int
	Total   int
}

type ProgressFunc func(Progress)

// Recorder receives run telemetry. metrics.PromRecorder implements it.
type Recorder interface {
	RecordRun(outcome string, d time.Duration)
	RecordLedger(l *Ledger)
	RecordIssues(issues []*generic.DataIntegrityError)
}

// Run outcomes reported to the Recorder.
const (
	OutcomeSuccess   = "success"
	OutcomeCancelled = "cancelled"
	OutcomeConflict  = "conflict"
	OutcomeInvalid   = "invalid"
)

// Engine runs the full pipeline. It holds no state between runs and is safe
// for concurrent use.
type Engine struct {
	cfg        Config
	evaluators []Evaluator
	preparer   *rings.Preparer
	resolver   *excusal.Resolver
	log        logger.Logger
	recorder   Recorder
	progress   ProgressFunc
	now        func() time.Time
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = l } }

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

func WithProgress(fn ProgressFunc) Option { return func(e *Engine) { e.progress = fn } }

// WithEvaluators replaces the default article list.
func WithEvaluators(evs ...Evaluator) Option { return func(e *Engine) { e.evaluators = evs } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		evaluators: DefaultEvaluators(),
		preparer:   rings.NewPreparer(cfg.MoveSanity),
		resolver:   excusal.NewResolver(cfg.DefaultOTDLLimit),
		log:        logger.NopLogger{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// EvaluationWindow returns the days a run over rng needs as input: whole
// service weeks around the range.
func (e *Engine) EvaluationWindow(rng generic.Period) generic.Period {
	return generic.CoveringServiceWeeks(rng, e.cfg.WeekStart)
}

// Run evaluates every article over in.Range and returns the ledger.
//
// Cancellation is checked between stages and between evaluators; a
// cancelled run returns ctx.Err() and no ledger. An AggregationConflictError
// aborts the run the same way. Data-integrity problems never abort: the
// affected carrier-days are dropped or flagged and listed in Result.Issues.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	started := e.now()
	res, outcome, err := e.run(ctx, in, started)
	if e.recorder != nil {
		e.recorder.RecordRun(outcome, e.now().Sub(started))
		if err == nil {
			e.recorder.RecordLedger(res.Ledger)
			e.recorder.RecordIssues(res.Issues)
		}
	}
	return res, err
}

func (e *Engine) run(ctx context.Context, in Input, started time.Time) (*Result, string, error) {
	if err := in.Range.Validate(); err != nil {
		return nil, OutcomeInvalid, fmt.Errorf("evaluation range %s: %w", in.Range, err)
	}
	if in.Roster == nil {
		return nil, OutcomeInvalid, &generic.ConfigurationError{Field: "roster", Message: "no roster snapshot supplied"}
	}

	runID := uuid.New()
	window := e.EvaluationWindow(in.Range)
	e.log.Infof("run %s: evaluating %s (window %s, %d ring rows)", runID, in.Range, window, len(in.Rings))

	if err := ctx.Err(); err != nil {
		return nil, OutcomeCancelled, err
	}

	// 1. Prepare
	rows := make([]rings.Row, 0, len(in.Rings))
	for _, r := range in.Rings {
		if window.Contains(r.Date) {
			rows = append(rows, r)
		}
	}
	prepared := e.preparer.Prepare(rows, in.Roster)
	// Days outside the range only feed weekly context; their issues belong
	// to the run that evaluates them.
	issues := make([]*generic.DataIntegrityError, 0, len(prepared.Issues))
	for _, issue := range prepared.Issues {
		if !in.Range.Contains(issue.Date) {
			continue
		}
		e.log.Warnf("run %s: %v", runID, issue)
		issues = append(issues, issue)
	}
	e.report(Progress{Stage: StagePrepare, Done: len(prepared.Days), Total: len(prepared.Days)})

	// 2. Excusals
	table := e.resolver.Table(prepared.Days, in.Excusals)
	e.report(Progress{Stage: StageExcusals, Done: table.Len(), Total: table.Len()})

	maximized := make(map[generic.Date]bool, len(in.MaximizedDates))
	for _, d := range in.MaximizedDates {
		maximized[d] = true
	}

	// 3. Evaluate
	batches := make([]Batch, 0, len(e.evaluators))
	for i, ev := range e.evaluators {
		if err := ctx.Err(); err != nil {
			e.log.Warnf("run %s: cancelled before %s", runID, ev.Article().Label())
			return nil, OutcomeCancelled, err
		}
		facts := &Facts{
			Range:     in.Range,
			Days:      in.Exclusions.Filter(prepared.Days, ev.Article()),
			Excusals:  table,
			Maximized: maximized,
			Config:    e.cfg,
		}
		records := ev.Evaluate(facts)
		batches = append(batches, Batch{Article: ev.Article(), Records: records, Expected: Expected(ev, facts)})
		e.log.Debugw("article evaluated", map[string]any{
			"run_id":  runID.String(),
			"article": string(ev.Article()),
			"records": len(records),
		})
		e.report(Progress{Stage: StageEvaluate, Article: ev.Article(), Done: i + 1, Total: len(e.evaluators)})
	}

	if err := ctx.Err(); err != nil {
		return nil, OutcomeCancelled, err
	}

	// 4. Aggregate
	ledger, err := Aggregate(in.Range, batches)
	if err != nil {
		e.log.Errorf("run %s: %v", runID, err)
		return nil, OutcomeConflict, err
	}
	e.report(Progress{Stage: StageAggregate, Done: len(ledger.Records), Total: len(ledger.Records)})

	res := &Result{
		RunID:     runID,
		StartedAt: started,
		Duration:  e.now().Sub(started),
		Ledger:    ledger,
		Issues:    issues,
		Excusals:  table.Entries(),
	}
	e.log.Infof("run %s: %d records, %d violations, %s remedy hours, %d issues",
		runID, ledger.Totals.Records, ledger.Totals.Violations, ledger.Totals.Remedy, len(res.Issues))
	return res, OutcomeSuccess, nil
}

func (e *Engine) report(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}
