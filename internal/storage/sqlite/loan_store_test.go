package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/domain"
)

func TestLoanStore_InsertBulkAndGet(t *testing.T) {
	store := NewLoanStore(setupTestDB(t))
	ctx := context.Background()

	loans := []domain.LoanRecord{
		{Vintage: 2020, OrigUPB: 200_000, Net: 8_000.5, Defaulted: domain.DefaultFlagPaid},
		{Vintage: 2021, OrigUPB: 150_000, Net: -40_000, Defaulted: domain.DefaultFlagDefaulted},
		{Vintage: 2022, OrigUPB: 90_000, Net: 0, Defaulted: domain.DefaultFlagUnknown},
	}
	require.NoError(t, store.InsertBulk(ctx, loans))

	all, err := store.GetByVintages(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, loans, all)

	some, err := store.GetByVintages(ctx, []int{2020, 2022})
	require.NoError(t, err)
	assert.Equal(t, []domain.LoanRecord{loans[0], loans[2]}, some)

	none, err := store.GetByVintages(ctx, []int{1999})
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := store.CountByVintage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2020: 1, 2021: 1, 2022: 1}, counts)
}

func TestLoanStore_InsertBulkAppends(t *testing.T) {
	store := NewLoanStore(setupTestDB(t))
	ctx := context.Background()

	batch := []domain.LoanRecord{{Vintage: 2020, OrigUPB: 1, Net: 1, Defaulted: domain.DefaultFlagPaid}}
	require.NoError(t, store.InsertBulk(ctx, batch))
	require.NoError(t, store.InsertBulk(ctx, batch))
	require.NoError(t, store.InsertBulk(ctx, nil))

	counts, err := store.CountByVintage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[2020])
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stresslab.db")

	store, err := Open(config.DatabaseConfig{SQLitePath: path, MaxOpenConns: 2, MaxIdleConns: 1})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.DB().Ping())
	assert.FileExists(t, path)
}
