package reporting

import (
	"context"
	"fmt"
	"time"

	"mortgage-stress-lab/internal/dataset"
	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/stress"
)

// Generator produces reports from comparisons or stored runs.
type Generator struct {
	runStore storage.ScenarioRunStore
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runStore may be nil when
// reports are only built from in-process comparisons.
func NewGenerator(runStore storage.ScenarioRunStore) *Generator {
	return &Generator{
		runStore: runStore,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromComparison builds a report for a finished comparison.
// summary may be nil.
func (g *Generator) FromComparison(cmp *stress.Comparison, summary *dataset.Summary) *Report {
	runs := make([]*domain.ScenarioRun, len(cmp.Outcomes))
	for i, o := range cmp.Outcomes {
		runs[i] = o.Run
	}
	r := g.fromRuns(cmp.ComparisonID, runs)
	r.Dataset = NewDatasetSummary(summary)
	return r
}

// NewDatasetSummary converts a dataset summary for rendering. Returns nil for nil.
func NewDatasetSummary(summary *dataset.Summary) *DatasetSummary {
	if summary == nil {
		return nil
	}
	return &DatasetSummary{
		Loans:          summary.Loans,
		PaidLoans:      summary.PaidLoans,
		DefaultedLoans: summary.DefaultedLoans,
		DefaultRate:    summary.DefaultRate,
		TotalUPB:       summary.TotalUPB,
		Vintages:       summary.Vintages,
	}
}

// Generate rebuilds the report of a stored comparison.
// Returns storage.ErrNotFound if no runs belong to comparisonID.
func (g *Generator) Generate(ctx context.Context, comparisonID string) (*Report, error) {
	if g.runStore == nil {
		return nil, fmt.Errorf("report %s: no run store configured", comparisonID)
	}
	runs, err := g.runStore.GetByComparison(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("comparison %s: %w", comparisonID, storage.ErrNotFound)
	}
	return g.fromRuns(comparisonID, runs), nil
}

func (g *Generator) fromRuns(comparisonID string, runs []*domain.ScenarioRun) *Report {
	r := &Report{
		GeneratedAt:  g.now(),
		ComparisonID: comparisonID,
		Scenarios:    make([]ScenarioMetricRow, 0, len(runs)),
	}
	if len(runs) > 0 {
		r.ReturnType = string(runs[0].ReturnType)
		r.Alpha = runs[0].Alpha
		r.PortfolioSize = runs[0].PortfolioSize
		r.TrialCount = runs[0].TrialCount
	}
	for _, run := range runs {
		r.Scenarios = append(r.Scenarios, ScenarioMetricRow{
			Scenario:          string(run.Scenario),
			RunID:             run.RunID,
			DefaultRate:       run.DefaultRate,
			PaidDraws:         run.PaidDraws,
			DefaultedDraws:    run.DefaultedDraws,
			Seed:              run.Seed,
			ValueAtRisk:       run.ValueAtRisk,
			ExpectedShortfall: run.ExpectedShortfall,
			Volatility:        run.Volatility,
			Skewness:          run.Skewness,
			Kurtosis:          run.Kurtosis,
			MeanReturn:        run.MeanReturn,
		})
	}
	return r
}
