package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/config"
)

// setupTestDB opens an in-memory database with all migrations applied.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	store, err := Open(config.DatabaseConfig{SQLitePath: MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	migrationsDir := filepath.Join(findProjectRoot(t), "internal", "storage", "migrations", "sqlite")
	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, file))
		require.NoError(t, err)
		_, err = store.DB().ExecContext(context.Background(), string(sql))
		require.NoError(t, err, "failed to apply migration %s", file)
	}

	return store
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func ptr[T any](v T) *T {
	return &v
}
