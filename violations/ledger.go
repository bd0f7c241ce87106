package violations

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// BATCH - One evaluator's output
// =============================================================================

// Batch is what one evaluator produced, alongside the keys it owed.
type Batch struct {
	Article  generic.Article
	Records  []Record
	Expected []Key
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the complete result of one run over Range. It replaces any
// earlier ledger for the same range wholesale.
type Ledger struct {
	Range   generic.Period `json:"range"`
	Records []Record       `json:"records"`
	Totals  Totals         `json:"totals"`
}

// Totals aggregates remedy hours and violation counts.
type Totals struct {
	Remedy     decimal.Decimal                    `json:"remedy_hours"`
	Violations int                                `json:"violations"`
	Records    int                                `json:"records"`
	ByArticle  map[generic.Article]ArticleTotal   `json:"by_article"`
	ByCarrier  map[generic.CarrierID]CarrierTotal `json:"by_carrier"`
}

type ArticleTotal struct {
	Remedy     decimal.Decimal `json:"remedy_hours"`
	Violations int             `json:"violations"`
	Records    int             `json:"records"`
}

type CarrierTotal struct {
	Remedy     decimal.Decimal                     `json:"remedy_hours"`
	Violations int                                 `json:"violations"`
	ByArticle  map[generic.Article]decimal.Decimal `json:"by_article"`
}

// Aggregate merges the batches into a ledger. It fails with an
// AggregationConflictError when a key is emitted twice, when a record has
// no matching expected key, or when an expected key never arrives.
func Aggregate(rng generic.Period, batches []Batch) (*Ledger, error) {
	seen := make(map[Key]struct{})
	var records []Record

	for _, b := range batches {
		expected := make(map[Key]struct{}, len(b.Expected))
		for _, k := range b.Expected {
			expected[k] = struct{}{}
		}
		for _, r := range b.Records {
			k := r.Key()
			if _, dup := seen[k]; dup {
				return nil, conflict(k, "duplicate")
			}
			if _, ok := expected[k]; !ok || r.Article != b.Article {
				return nil, conflict(k, "unexpected")
			}
			seen[k] = struct{}{}
			records = append(records, r)
		}
		for _, k := range b.Expected {
			if _, ok := seen[k]; !ok {
				return nil, conflict(k, "missing")
			}
		}
	}

	SortRecords(records)
	if records == nil {
		records = []Record{}
	}
	return &Ledger{Range: rng, Records: records, Totals: Summarize(records)}, nil
}

func conflict(k Key, reason string) error {
	return &generic.AggregationConflictError{
		CarrierID: k.CarrierID,
		Date:      k.Date,
		Article:   string(k.Article),
		Reason:    reason,
	}
}

// SortRecords orders records by carrier, date, then article order.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CarrierID != b.CarrierID {
			return a.CarrierID < b.CarrierID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Article.Rank() < b.Article.Rank()
	})
}

// Summarize computes totals over records.
func Summarize(records []Record) Totals {
	t := Totals{
		Remedy:    decimal.Zero,
		ByArticle: make(map[generic.Article]ArticleTotal),
		ByCarrier: make(map[generic.CarrierID]CarrierTotal),
	}
	for _, a := range generic.Articles {
		t.ByArticle[a] = ArticleTotal{Remedy: decimal.Zero}
	}

	for _, r := range records {
		t.Records++
		at := t.ByArticle[r.Article]
		at.Records++

		ct, ok := t.ByCarrier[r.CarrierID]
		if !ok {
			ct = CarrierTotal{Remedy: decimal.Zero, ByArticle: make(map[generic.Article]decimal.Decimal)}
		}
		if r.Violated {
			t.Violations++
			t.Remedy = t.Remedy.Add(r.RemedyHours)
			at.Violations++
			at.Remedy = at.Remedy.Add(r.RemedyHours)
			ct.Violations++
			ct.Remedy = ct.Remedy.Add(r.RemedyHours)
			ct.ByArticle[r.Article] = ct.ByArticle[r.Article].Add(r.RemedyHours)
		}
		t.ByArticle[r.Article] = at
		t.ByCarrier[r.CarrierID] = ct
	}
	return t
}

// =============================================================================
// QUERIES
// =============================================================================

// Query narrows ledger records. Zero fields match everything.
type Query struct {
	CarrierID    generic.CarrierID
	Article      generic.Article
	From, To     generic.Date
	ViolatedOnly bool
}

func (q Query) Matches(r Record) bool {
	if q.CarrierID != "" && r.CarrierID != q.CarrierID {
		return false
	}
	if q.Article != "" && r.Article != q.Article {
		return false
	}
	if !q.From.IsZero() && r.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && r.Date.After(q.To) {
		return false
	}
	return !q.ViolatedOnly || r.Violated
}

// Select returns the records matching q, in ledger order.
func (l *Ledger) Select(q Query) []Record {
	out := []Record{}
	for _, r := range l.Records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Violations returns the violated records.
func (l *Ledger) Violations() []Record {
	return l.Select(Query{ViolatedOnly: true})
}
