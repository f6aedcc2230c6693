package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/dataset"
	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/observability"
	"mortgage-stress-lab/internal/simulation"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/stress"
)

// loadDataset reads the configured loan source and partitions it into cohorts.
func loadDataset(ctx context.Context, cfg *config.Config, conns *connections, logger *zap.Logger) (*domain.Cohorts, *dataset.Summary, error) {
	start := time.Now()

	var (
		d   *dataset.Dataset
		err error
	)
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		d, err = dataset.LoadFiles(ctx, dataset.YearPaths(cfg.Dataset.Dir, cfg.Dataset.Pattern, cfg.Dataset.Years))
	default:
		var store storage.LoanStore
		store, err = conns.loanStore(ctx, cfg.Dataset.Source)
		if err != nil {
			return nil, nil, err
		}
		d, err = dataset.LoadStore(ctx, store, cfg.Dataset.Years)
	}
	if err != nil {
		return nil, nil, err
	}

	cohorts, err := d.Split()
	if err != nil {
		return nil, nil, err
	}

	elapsed := time.Since(start)
	observability.RecordLoansLoaded(cohorts.Paid.Len(), cohorts.Defaulted.Len(), elapsed.Seconds())

	summary := dataset.Summarize(d, cohorts)
	logger.Info("dataset loaded",
		zap.String("source", cfg.Dataset.Source),
		zap.Int("loans", summary.Loans),
		zap.Int("paid", summary.PaidLoans),
		zap.Int("defaulted", summary.DefaultedLoans),
		zap.Float64("empirical_default_rate", summary.DefaultRate),
		zap.Ints("vintages", summary.Vintages),
		zap.Duration("elapsed", elapsed),
	)
	return cohorts, &summary, nil
}

// newEngine wires the resampler and the configured stores into a stress engine.
func newEngine(ctx context.Context, cfg *config.Config, cohorts *domain.Cohorts, conns *connections, logger *zap.Logger) (*stress.Engine, storage.ScenarioRunStore, storage.TrialStore, error) {
	runs, err := conns.runStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	trials, err := conns.trialStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	resampler := simulation.NewResampler(cohorts, simulation.ResamplerOptions{
		Workers:   cfg.Simulation.Workers,
		ChunkSize: cfg.Simulation.ChunkSize,
		Logger:    logger.Named("resampler"),
	})

	engine := stress.New(stress.Options{
		Resampler:     resampler,
		RunStore:      runs,
		TrialStore:    trials,
		HistogramBins: cfg.Simulation.HistogramBins,
		Logger:        logger.Named("stress"),
	})
	return engine, runs, trials, nil
}
