// Package config loads settings from a YAML file overlaid by STRESSLAB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "stresslab"
)

// Load reads the config file, applies environment overrides and validates the result.
// A missing file at the default path is not an error: defaults and env vars apply.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	// No default, but still overridable from the environment
	_ = v.BindEnv("simulation.seed")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("config file %q not found: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv exports variables from an optional dotenv file without
// overriding variables already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.source", SourceCSV)
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("dataset.pattern", "%d.csv")
	v.SetDefault("dataset.years", []int{2020, 2021, 2022, 2023, 2024})

	v.SetDefault("simulation.normal_default_rate", 0.02)
	v.SetDefault("simulation.stressed_default_rate", 0.10)
	v.SetDefault("simulation.portfolio_size", 1000)
	v.SetDefault("simulation.trial_count", 10_000)
	v.SetDefault("simulation.alpha", 0.05)
	v.SetDefault("simulation.return_type", "net")
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.chunk_size", 1024)
	v.SetDefault("simulation.histogram_bins", 64)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.postgres_dsn", "")
	v.SetDefault("database.sqlite_path", "data/stresslab.db")
	v.SetDefault("database.clickhouse_dsn", "")
	v.SetDefault("database.store_trials", false)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.import_batch_size", 50_000)

	v.SetDefault("output.dir", "reports")
	v.SetDefault("output.write_trials", false)
	v.SetDefault("output.distribution", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_trial_count", 200_000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
		dc.WeaklyTypedInput = true
	}
}
