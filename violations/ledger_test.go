package violations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/violations"
)

func rec(carrier string, date generic.Date, a generic.Article, remedy float64) violations.Record {
	r := violations.Record{
		CarrierID:   generic.CarrierID(carrier),
		Date:        date,
		Article:     a,
		RemedyHours: generic.Hours(remedy),
	}
	r.Violated = remedy > 0
	return r
}

func batchOf(a generic.Article, recs ...violations.Record) violations.Batch {
	b := violations.Batch{Article: a, Records: recs}
	for _, r := range recs {
		b.Expected = append(b.Expected, r.Key())
	}
	return b
}

func TestAggregate_TotalsAndOrder(t *testing.T) {
	// GIVEN: Two articles' worth of records, out of order
	f := batchOf(generic.Article85F,
		rec("bob", mon, generic.Article85F, 1.5),
		rec("alice", tue, generic.Article85F, 0),
		rec("alice", mon, generic.Article85F, 0.25),
	)
	d := batchOf(generic.Article85D, rec("alice", mon, generic.Article85D, 2))

	// WHEN: Aggregating
	l, err := violations.Aggregate(week, []violations.Batch{f, d})
	require.NoError(t, err)

	// THEN: Sorted by carrier, date, article order
	require.Len(t, l.Records, 4)
	assert.Equal(t, generic.Article85D, l.Records[0].Article)
	assert.Equal(t, generic.Article85F, l.Records[1].Article)
	assert.Equal(t, tue, l.Records[2].Date)
	assert.Equal(t, generic.CarrierID("bob"), l.Records[3].CarrierID)

	// AND: Totals only count violated records' remedy
	assert.Equal(t, 4, l.Totals.Records)
	assert.Equal(t, 3, l.Totals.Violations)
	assert.True(t, l.Totals.Remedy.Equal(generic.Hours(3.75)))
	assert.True(t, l.Totals.ByArticle[generic.Article85F].Remedy.Equal(generic.Hours(1.75)))
	assert.Equal(t, 3, l.Totals.ByArticle[generic.Article85F].Records)
	assert.True(t, l.Totals.ByCarrier["alice"].Remedy.Equal(generic.Hours(2.25)))
	assert.True(t, l.Totals.ByCarrier["alice"].ByArticle[generic.Article85D].Equal(generic.Hours(2)))
	assert.Equal(t, 0, l.Totals.ByArticle[generic.ArticleMax60].Records)
}

func TestAggregate_Duplicate(t *testing.T) {
	r := rec("alice", mon, generic.Article85F, 1)
	b := violations.Batch{Article: generic.Article85F, Records: []violations.Record{r, r}, Expected: []violations.Key{r.Key()}}

	_, err := violations.Aggregate(week, []violations.Batch{b})

	var ace *generic.AggregationConflictError
	require.ErrorAs(t, err, &ace)
	assert.Equal(t, "duplicate", ace.Reason)
	assert.Equal(t, generic.CarrierID("alice"), ace.CarrierID)
}

func TestAggregate_Missing(t *testing.T) {
	b := batchOf(generic.Article85F, rec("alice", mon, generic.Article85F, 1))
	b.Expected = append(b.Expected, violations.Key{CarrierID: "alice", Date: tue, Article: generic.Article85F})

	_, err := violations.Aggregate(week, []violations.Batch{b})

	var ace *generic.AggregationConflictError
	require.ErrorAs(t, err, &ace)
	assert.Equal(t, "missing", ace.Reason)
	assert.Equal(t, tue, ace.Date)
}

func TestAggregate_RecordFromAnotherArticle(t *testing.T) {
	stray := rec("alice", mon, generic.ArticleMax12, 1)
	b := violations.Batch{Article: generic.Article85F, Records: []violations.Record{stray}, Expected: []violations.Key{stray.Key()}}

	_, err := violations.Aggregate(week, []violations.Batch{b})

	assert.ErrorIs(t, err, generic.ErrAggregationConflict)
}

func TestAggregate_Empty(t *testing.T) {
	l, err := violations.Aggregate(week, nil)
	require.NoError(t, err)
	assert.NotNil(t, l.Records)
	assert.True(t, l.Totals.Remedy.IsZero())
}

func TestLedger_Select(t *testing.T) {
	l, err := violations.Aggregate(week, []violations.Batch{
		batchOf(generic.Article85F,
			rec("alice", mon, generic.Article85F, 1),
			rec("alice", tue, generic.Article85F, 0),
			rec("bob", mon, generic.Article85F, 2),
		),
	})
	require.NoError(t, err)

	assert.Len(t, l.Select(violations.Query{CarrierID: "alice"}), 2)
	assert.Len(t, l.Select(violations.Query{From: tue}), 1)
	assert.Len(t, l.Select(violations.Query{To: mon}), 2)
	assert.Len(t, l.Violations(), 2)
	assert.Empty(t, l.Select(violations.Query{Article: generic.Article85D}))
}
