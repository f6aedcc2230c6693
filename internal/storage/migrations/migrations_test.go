package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/storage/sqlite"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

  -- indented comment
CREATE TABLE b (y String)
ENGINE = Memory;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String)\nENGINE = Memory", stmts[1])
}

func TestSplitStatements_Empty(t *testing.T) {
	assert.Empty(t, splitStatements("-- only a comment\n\n"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a''b'; SELECT 1;`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b';`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:pw@localhost:9000/stresslab")
	require.NoError(t, err)
	assert.Equal(t, "stresslab", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreSafeToSplit(t *testing.T) {
	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		data, err := ClickhouseFS.ReadFile("clickhouse/" + file)
		require.NoError(t, err)
		assert.NoError(t, validateNoSemicolonInStrings(string(data)), file)
		assert.NotEmpty(t, splitStatements(string(data)), file)
	}
}

func TestEmbeddedMigrationsOrdered(t *testing.T) {
	for _, dir := range []struct {
		name  string
		files []string
	}{
		{"postgres", []string{"001_loans.sql", "002_scenario_runs.sql"}},
		{"sqlite", []string{"001_loans.sql", "002_scenario_runs.sql"}},
	} {
		fsys := PostgresFS
		if dir.name == "sqlite" {
			fsys = SqliteFS
		}
		files, err := sqlFiles(fsys, dir.name)
		require.NoError(t, err)
		assert.Equal(t, dir.files, files)
	}
}

func TestRunSqliteMigrations_Idempotent(t *testing.T) {
	store, err := sqlite.Open(config.DatabaseConfig{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, RunSqliteMigrations(ctx, store))
	require.NoError(t, RunSqliteMigrations(ctx, store))

	var count int
	err = store.DB().QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('loans', 'scenario_runs')`,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
