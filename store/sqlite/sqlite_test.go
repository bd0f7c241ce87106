package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/roster"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/store/sqlite"
	"github.com/warp/overtime-engine/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "overtime.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveStatus(ctx, roster.StatusRecord{
		CarrierID: "smith", EffectiveDate: generic.MustParseDate("2025-01-01"), ListStatus: roster.StatusNL,
	}))
	require.NoError(t, s.Close())

	// WHEN: Reopening the same file (migration is idempotent)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Statuses(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, roster.StatusNL, got[0].ListStatus)
}

func TestSQLiteStore_Reset(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetMaximized(ctx, generic.MustParseDate("2025-03-15"), true))
	require.NoError(t, s.Reset(ctx))

	got, err := s.MaximizedDates(ctx, generic.Period{
		Start: generic.MustParseDate("2025-01-01"), End: generic.MustParseDate("2025-12-31"),
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
