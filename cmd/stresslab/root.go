package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/config"
	applog "mortgage-stress-lab/internal/log"
)

// app holds state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stresslab",
		Short: "Monte Carlo stress testing of mortgage loan portfolios",
		Long: "stresslab resamples portfolios from paid and defaulted loan cohorts at a\n" +
			"normal and a stressed default rate and compares VaR, ES, volatility,\n" +
			"skewness and kurtosis of the simulated returns.",
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default configs/config.yaml)")

	root.AddCommand(
		newSimulateCmd(a),
		newImportCmd(a),
		newReportCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := applog.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
