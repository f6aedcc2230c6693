package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/reporting"
)

func newReportCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "report <comparison-id>",
		Short: "Rebuild the report of a stored comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conns := newConnections(a.cfg.Database, a.logger)
			defer conns.Close()

			runs, err := conns.runStore(ctx)
			if err != nil {
				return err
			}

			report, err := reporting.NewGenerator(runs).Generate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))

			if outputDir == "" {
				outputDir = a.cfg.Output.Dir
			}
			paths, err := reporting.WriteFiles(outputDir, report, nil, reporting.WriteOptions{})
			if err != nil {
				return err
			}
			a.logger.Info("report written", zap.Strings("files", paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "report directory (default from config)")
	return cmd
}
