package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/dataset"
	"mortgage-stress-lab/internal/observability"
)

func newImportCmd(a *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the per-year CSV loan tables into a SQL loan store",
		Long: "import reads dataset.dir/dataset.pattern for every year in dataset.years,\n" +
			"checks that every row can be assigned to a cohort, and appends the loans\n" +
			"to the postgres or sqlite loans table. Set dataset.source to that store to\n" +
			"simulate from it afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != config.SourcePostgres && target != config.SourceSQLite {
				return fmt.Errorf("--target must be %s or %s, got %q", config.SourcePostgres, config.SourceSQLite, target)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := a.cfg
			paths := dataset.YearPaths(cfg.Dataset.Dir, cfg.Dataset.Pattern, cfg.Dataset.Years)
			d, err := dataset.LoadFiles(ctx, paths)
			if err != nil {
				return err
			}
			if _, err := d.Split(); err != nil {
				return err
			}

			conns := newConnections(cfg.Database, a.logger)
			defer conns.Close()

			store, err := conns.loanStore(ctx, target)
			if err != nil {
				return err
			}

			written, err := dataset.Import(ctx, store, d, cfg.Database.ImportBatchSize)
			observability.RecordLoansImported(written)
			if err != nil {
				return err
			}

			a.logger.Info("loans imported",
				zap.String("target", target),
				zap.Int("loans", written),
				zap.Ints("vintages", d.Vintages()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d loans into %s\n", written, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", config.SourceSQLite, "loan store to import into: postgres or sqlite")
	return cmd
}
