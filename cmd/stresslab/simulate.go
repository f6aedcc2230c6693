package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/reporting"
	"mortgage-stress-lab/internal/stress"
)

type simulateFlags struct {
	normalRate      float64
	stressedRate    float64
	empiricalNormal bool
	portfolioSize   int
	trials          int
	alpha           float64
	returnType      string
	seed            uint64
	outputDir       string
	noWrite         bool
	writeTrials     bool
}

func newSimulateCmd(a *app) *cobra.Command {
	f := &simulateFlags{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the normal and stressed scenarios and print the comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, a, f)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&f.normalRate, "normal-rate", 0, "default rate of the normal scenario (default from config)")
	flags.Float64Var(&f.stressedRate, "stressed-rate", 0, "default rate of the stressed scenario (default from config)")
	flags.BoolVar(&f.empiricalNormal, "empirical-normal", false, "use the dataset's empirical default rate for the normal scenario")
	flags.IntVar(&f.portfolioSize, "portfolio-size", 0, "loans per simulated portfolio (default from config)")
	flags.IntVar(&f.trials, "trials", 0, "number of simulated portfolios (default from config)")
	flags.Float64Var(&f.alpha, "alpha", 0, "tail probability for VaR and ES (default from config)")
	flags.StringVar(&f.returnType, "return-type", "", "net or percentage (default from config)")
	flags.Uint64Var(&f.seed, "seed", 0, "RNG seed for reproducible runs")
	flags.StringVar(&f.outputDir, "output-dir", "", "report directory (default from config)")
	flags.BoolVar(&f.noWrite, "no-write", false, "print the report without writing files")
	flags.BoolVar(&f.writeTrials, "write-trials", false, "also write per-trial CSVs")

	return cmd
}

// apply overlays explicitly set flags on the loaded config.
func (f *simulateFlags) apply(cmd *cobra.Command, a *app) {
	sim := &a.cfg.Simulation
	flags := cmd.Flags()

	if flags.Changed("normal-rate") {
		sim.NormalDefaultRate = &f.normalRate
	}
	if f.empiricalNormal {
		sim.NormalDefaultRate = nil
	}
	if flags.Changed("stressed-rate") {
		sim.StressedDefaultRate = &f.stressedRate
	}
	if flags.Changed("portfolio-size") {
		sim.PortfolioSize = f.portfolioSize
	}
	if flags.Changed("trials") {
		sim.TrialCount = f.trials
	}
	if flags.Changed("alpha") {
		sim.Alpha = f.alpha
	}
	if flags.Changed("return-type") {
		sim.ReturnType = f.returnType
	}
	if flags.Changed("seed") {
		sim.Seed = &f.seed
	}
	if flags.Changed("output-dir") {
		a.cfg.Output.Dir = f.outputDir
	}
	if f.writeTrials {
		a.cfg.Output.WriteTrials = true
	}
}

func runSimulate(cmd *cobra.Command, a *app, f *simulateFlags) error {
	f.apply(cmd, a)
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns := newConnections(a.cfg.Database, a.logger)
	defer conns.Close()

	cohorts, summary, err := loadDataset(ctx, a.cfg, conns, a.logger)
	if err != nil {
		return err
	}

	engine, runs, _, err := newEngine(ctx, a.cfg, cohorts, conns, a.logger)
	if err != nil {
		return err
	}

	req := stress.RequestFromConfig(a.cfg.Simulation)
	if !stress.IsPresetPortfolioSize(req.PortfolioSize) {
		a.logger.Warn("portfolio size is not a preset",
			zap.Int("portfolio_size", req.PortfolioSize),
			zap.Ints("presets", domain.PortfolioSizePresets),
		)
	}

	cmp, err := engine.Run(ctx, req)
	if err != nil {
		return err
	}

	report := reporting.NewGenerator(runs).FromComparison(cmp, summary)
	fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))

	if f.noWrite {
		return nil
	}
	paths, err := reporting.WriteFiles(a.cfg.Output.Dir, report, cmp, reporting.WriteOptions{
		Distribution: a.cfg.Output.Distribution,
		Trials:       a.cfg.Output.WriteTrials,
	})
	if err != nil {
		return err
	}
	a.logger.Info("report written",
		zap.String("comparison_id", cmp.ComparisonID),
		zap.Strings("files", paths),
	)
	return nil
}
