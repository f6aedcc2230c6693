package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/storage"
	chstore "mortgage-stress-lab/internal/storage/clickhouse"
	"mortgage-stress-lab/internal/storage/memory"
	"mortgage-stress-lab/internal/storage/migrations"
	pgstore "mortgage-stress-lab/internal/storage/postgres"
	"mortgage-stress-lab/internal/storage/sqlite"
)

// connections opens each database at most once and migrates it on first use.
type connections struct {
	cfg    config.DatabaseConfig
	logger *zap.Logger

	pg   *pgstore.Pool
	lite *sqlite.Store
	ch   *chstore.Conn
}

func newConnections(cfg config.DatabaseConfig, logger *zap.Logger) *connections {
	return &connections{cfg: cfg, logger: logger}
}

func (c *connections) postgres(ctx context.Context) (*pgstore.Pool, error) {
	if c.pg != nil {
		return c.pg, nil
	}
	pool, err := pgstore.NewPool(ctx, c.cfg.PostgresDSN, c.cfg.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	c.logger.Info("connected to postgres")
	c.pg = pool
	return pool, nil
}

func (c *connections) sqlite(ctx context.Context) (*sqlite.Store, error) {
	if c.lite != nil {
		return c.lite, nil
	}
	store, err := sqlite.Open(c.cfg)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunSqliteMigrations(ctx, store); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	c.logger.Info("opened sqlite database", zap.String("path", c.cfg.SQLitePath))
	c.lite = store
	return store, nil
}

func (c *connections) clickhouse(ctx context.Context) (*chstore.Conn, error) {
	if c.ch != nil {
		return c.ch, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, c.cfg.ClickHouseDSN)
	if err != nil {
		return nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	c.logger.Info("connected to clickhouse")
	c.ch = conn
	return conn, nil
}

// loanStore returns the SQL loan table named by source.
func (c *connections) loanStore(ctx context.Context, source string) (storage.LoanStore, error) {
	switch source {
	case config.SourcePostgres:
		pool, err := c.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewLoanStore(pool), nil
	case config.SourceSQLite:
		store, err := c.sqlite(ctx)
		if err != nil {
			return nil, err
		}
		return sqlite.NewLoanStore(store), nil
	default:
		return nil, fmt.Errorf("no loan store for %q", source)
	}
}

// runStore returns the scenario run store selected by database.driver.
func (c *connections) runStore(ctx context.Context) (storage.ScenarioRunStore, error) {
	switch c.cfg.Driver {
	case config.DriverPostgres:
		pool, err := c.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewScenarioRunStore(pool), nil
	case config.DriverSQLite:
		store, err := c.sqlite(ctx)
		if err != nil {
			return nil, err
		}
		return sqlite.NewScenarioRunStore(store), nil
	case config.DriverClickHouse:
		conn, err := c.clickhouse(ctx)
		if err != nil {
			return nil, err
		}
		return chstore.NewScenarioRunStore(conn), nil
	default:
		return memory.NewScenarioRunStore(), nil
	}
}

// trialStore returns the ClickHouse trial store, or nil when trials are not stored.
func (c *connections) trialStore(ctx context.Context) (storage.TrialStore, error) {
	if !c.cfg.StoreTrials {
		return nil, nil
	}
	conn, err := c.clickhouse(ctx)
	if err != nil {
		return nil, err
	}
	return chstore.NewTrialStore(conn), nil
}

// Close closes every opened connection.
func (c *connections) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.lite != nil {
		_ = c.lite.Close()
	}
	if c.pg != nil {
		c.pg.Close()
	}
}
