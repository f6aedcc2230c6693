// Package migrations embeds the schema files of every storage backend and applies them.
package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// SqliteFS embeds all SQLite migration files.
//
//go:embed sqlite/*.sql
var SqliteFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
