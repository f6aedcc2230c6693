package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Run store drivers.
const (
	DriverMemory     = "memory"
	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DriverClickHouse = "clickhouse"
)

// Config aggregates every setting the CLI and server need.
type Config struct {
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Output     OutputConfig     `mapstructure:"output"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DatasetConfig locates the per-year loan tables.
type DatasetConfig struct {
	Source  string `mapstructure:"source"`
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
	Years   []int  `mapstructure:"years"`
}

// SimulationConfig holds scenario and resampler parameters.
// A nil default rate falls back to the dataset's empirical default rate.
type SimulationConfig struct {
	NormalDefaultRate   *float64 `mapstructure:"normal_default_rate"`
	StressedDefaultRate *float64 `mapstructure:"stressed_default_rate"`
	PortfolioSize       int      `mapstructure:"portfolio_size"`
	TrialCount          int      `mapstructure:"trial_count"`
	Alpha               float64  `mapstructure:"alpha"`
	ReturnType          string   `mapstructure:"return_type"`
	Seed                *uint64  `mapstructure:"seed"`
	Workers             int      `mapstructure:"workers"`
	ChunkSize           int      `mapstructure:"chunk_size"`
	HistogramBins       int      `mapstructure:"histogram_bins"`
}

// DatabaseConfig selects where loans, runs and trials are stored.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	ClickHouseDSN   string        `mapstructure:"clickhouse_dsn"`
	StoreTrials     bool          `mapstructure:"store_trials"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ImportBatchSize int           `mapstructure:"import_batch_size"`
}

// OutputConfig controls report files.
type OutputConfig struct {
	Dir          string `mapstructure:"dir"`
	WriteTrials  bool   `mapstructure:"write_trials"`
	Distribution bool   `mapstructure:"distribution"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxTrialCount   int           `mapstructure:"max_trial_count"`
}

// LoggingConfig controls zap output.
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate checks every section and reports all violations at once.
func (c *Config) Validate() error {
	var err error

	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Dir == "" {
			err = multierr.Append(err, errors.New("dataset.dir must not be empty"))
		}
		if c.Dataset.Pattern == "" {
			err = multierr.Append(err, errors.New("dataset.pattern must not be empty"))
		}
		if len(c.Dataset.Years) == 0 {
			err = multierr.Append(err, errors.New("dataset.years must list at least one year"))
		}
	case SourcePostgres:
		if c.Database.PostgresDSN == "" {
			err = multierr.Append(err, errors.New("database.postgres_dsn is required for dataset.source=postgres"))
		}
	case SourceSQLite:
		if c.Database.SQLitePath == "" {
			err = multierr.Append(err, errors.New("database.sqlite_path is required for dataset.source=sqlite"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("dataset.source %q must be csv, postgres or sqlite", c.Dataset.Source))
	}

	err = multierr.Append(err, validateRate("simulation.normal_default_rate", c.Simulation.NormalDefaultRate))
	err = multierr.Append(err, validateRate("simulation.stressed_default_rate", c.Simulation.StressedDefaultRate))
	if c.Simulation.PortfolioSize <= 0 {
		err = multierr.Append(err, errors.New("simulation.portfolio_size must be > 0"))
	}
	if c.Simulation.TrialCount <= 0 {
		err = multierr.Append(err, errors.New("simulation.trial_count must be > 0"))
	}
	if c.Simulation.Alpha <= 0 || c.Simulation.Alpha >= 1 {
		err = multierr.Append(err, errors.New("simulation.alpha must be in (0,1)"))
	}
	if c.Simulation.ReturnType != "net" && c.Simulation.ReturnType != "percentage" {
		err = multierr.Append(err, fmt.Errorf("simulation.return_type %q must be net or percentage", c.Simulation.ReturnType))
	}
	if c.Simulation.Workers < 0 {
		err = multierr.Append(err, errors.New("simulation.workers must not be negative"))
	}
	if c.Simulation.ChunkSize < 0 {
		err = multierr.Append(err, errors.New("simulation.chunk_size must not be negative"))
	}
	if c.Simulation.HistogramBins < 0 {
		err = multierr.Append(err, errors.New("simulation.histogram_bins must not be negative"))
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			err = multierr.Append(err, errors.New("database.postgres_dsn is required for driver postgres"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			err = multierr.Append(err, errors.New("database.sqlite_path is required for driver sqlite"))
		}
	case DriverClickHouse:
		if c.Database.ClickHouseDSN == "" {
			err = multierr.Append(err, errors.New("database.clickhouse_dsn is required for driver clickhouse"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.StoreTrials && c.Database.ClickHouseDSN == "" {
		err = multierr.Append(err, errors.New("database.store_trials requires database.clickhouse_dsn"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns must be > 0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns must not be negative"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime must not be negative"))
	}
	if c.Database.ImportBatchSize <= 0 {
		err = multierr.Append(err, errors.New("database.import_batch_size must be > 0"))
	}

	if c.Output.Dir == "" {
		err = multierr.Append(err, errors.New("output.dir must not be empty"))
	}

	if c.Server.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr must not be empty"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout must be > 0"))
	}
	if c.Server.MaxTrialCount <= 0 {
		err = multierr.Append(err, errors.New("server.max_trial_count must be > 0"))
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level must not be empty"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding must not be empty"))
	}

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func validateRate(key string, rate *float64) error {
	if rate == nil {
		return nil
	}
	if math.IsNaN(*rate) || *rate < 0 || *rate > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", key, *rate)
	}
	return nil
}
