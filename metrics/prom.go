// Package metrics exports evaluation-run telemetry to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/violations"
)

// PromRecorder implements violations.Recorder.
//
// Ledger figures are gauges: every run replaces the ledger of its range, so
// they describe the latest run rather than accumulate.
type PromRecorder struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	violations *prometheus.GaugeVec
	remedy     *prometheus.GaugeVec
	issues     *prometheus.CounterVec
}

// NewPromRecorder registers the run metrics on reg. A nil reg means the
// default registerer; collectors that are already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overtime_evaluation_runs_total",
			Help: "Evaluation runs by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "overtime_evaluation_duration_seconds",
			Help:    "Wall time of one evaluation run",
			Buckets: prometheus.DefBuckets,
		}),
		violations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overtime_violations",
			Help: "Violated records in the latest ledger, by article",
		}, []string{"article"}),
		remedy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overtime_remedy_hours",
			Help: "Remedy hours in the latest ledger, by article",
		}, []string{"article"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overtime_integrity_issues_total",
			Help: "Data integrity issues found while preparing clock rings, by kind",
		}, []string{"kind", "excluded"}),
	}

	var err error
	if r.runs, err = register(reg, r.runs); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.violations, err = register(reg, r.violations); err != nil {
		return nil, err
	}
	if r.remedy, err = register(reg, r.remedy); err != nil {
		return nil, err
	}
	if r.issues, err = register(reg, r.issues); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) RecordRun(outcome string, d time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.duration.Observe(d.Seconds())
}

func (r *PromRecorder) RecordLedger(l *violations.Ledger) {
	for _, a := range generic.Articles {
		t := l.Totals.ByArticle[a]
		r.violations.WithLabelValues(string(a)).Set(float64(t.Violations))
		r.remedy.WithLabelValues(string(a)).Set(t.Remedy.InexactFloat64())
	}
}

func (r *PromRecorder) RecordIssues(issues []*generic.DataIntegrityError) {
	for _, is := range issues {
		excluded := "false"
		if is.Excluded {
			excluded = "true"
		}
		r.issues.WithLabelValues(string(is.Kind), excluded).Inc()
	}
}

var _ violations.Recorder = (*PromRecorder)(nil)
