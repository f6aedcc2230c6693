package stress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/metrics"
	"mortgage-stress-lab/internal/simulation"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func seedPtr(v uint64) *uint64 {
	return &v
}

func ratePtr(v float64) *float64 {
	return &v
}

// uniformCohorts has identical loans per cohort, so every trial of a scenario is identical.
func uniformCohorts() *domain.Cohorts {
	c := &domain.Cohorts{}
	for i := 0; i < 9; i++ {
		c.Paid.Balances = append(c.Paid.Balances, 100_000)
		c.Paid.Nets = append(c.Paid.Nets, 1_000)
	}
	c.Defaulted.Balances = append(c.Defaulted.Balances, 100_000)
	c.Defaulted.Nets = append(c.Defaulted.Nets, -30_000)
	return c
}

func variedCohorts() *domain.Cohorts {
	c := &domain.Cohorts{}
	for i := 0; i < 40; i++ {
		c.Paid.Balances = append(c.Paid.Balances, 80_000+float64(i)*5_000)
		c.Paid.Nets = append(c.Paid.Nets, 500+float64(i%7)*350)
	}
	for i := 0; i < 10; i++ {
		c.Defaulted.Balances = append(c.Defaulted.Balances, 90_000+float64(i)*10_000)
		c.Defaulted.Nets = append(c.Defaulted.Nets, -15_000-float64(i)*4_000)
	}
	return c
}

func newEngine(cohorts *domain.Cohorts, runs *memory.ScenarioRunStore, trials *memory.TrialStore) *Engine {
	opts := Options{
		Resampler:     simulation.NewResampler(cohorts, simulation.ResamplerOptions{}),
		HistogramBins: 16,
		Clock:         fixedClock,
	}
	if runs != nil {
		opts.RunStore = runs
	}
	if trials != nil {
		opts.TrialStore = trials
	}
	return New(opts)
}

func TestEngine_NormalVsStressed(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewScenarioRunStore()
	trials := memory.NewTrialStore()
	engine := newEngine(uniformCohorts(), runs, trials)

	req := DefaultRequest()
	req.PortfolioSize = 100
	req.TrialCount = 200
	req.Seed = seedPtr(42)

	cmp, err := engine.Run(ctx, req)
	require.NoError(t, err)
	require.Len(t, cmp.Outcomes, 2)
	assert.Equal(t, fixedNow.UnixMilli(), cmp.CreatedAt)
	assert.Len(t, cmp.ComparisonID, 64)

	normal := cmp.Outcome(domain.ScenarioNormal)
	stressed := cmp.Outcome(domain.ScenarioStressed)
	require.NotNil(t, normal)
	require.NotNil(t, stressed)

	// normal: 98 paid, 2 defaulted → 98*1000 - 2*30000 = 38000, never a loss
	assert.Equal(t, 98, normal.Run.PaidDraws)
	assert.Equal(t, 2, normal.Run.DefaultedDraws)
	assert.Nil(t, normal.Run.ValueAtRisk)
	assert.Nil(t, normal.Run.ExpectedShortfall)
	assert.InDelta(t, 38_000, normal.Run.MeanReturn, 1e-6)

	// stressed: 90 paid, 10 defaulted → 90*1000 - 10*30000 = -210000
	assert.Equal(t, 90, stressed.Run.PaidDraws)
	assert.Equal(t, 10, stressed.Run.DefaultedDraws)
	require.NotNil(t, stressed.Run.ValueAtRisk)
	assert.InDelta(t, -210_000, *stressed.Run.ValueAtRisk, 1e-6)
	require.NotNil(t, stressed.Run.ExpectedShortfall)
	assert.InDelta(t, -210_000, *stressed.Run.ExpectedShortfall, 1e-6)

	// Constant series: no spread, no distribution
	assert.Equal(t, 0.0, stressed.Run.Volatility)
	assert.Nil(t, stressed.Distribution)

	assert.Equal(t, uint64(42), *normal.Run.Seed)
	assert.Equal(t, uint64(43), *stressed.Run.Seed)
	assert.Equal(t, cmp.ComparisonID, normal.Run.ComparisonID)
	assert.Equal(t, cmp.ComparisonID, stressed.Run.ComparisonID)
	assert.NotEqual(t, normal.Run.RunID, stressed.Run.RunID)

	stored, err := runs.GetByComparison(ctx, cmp.ComparisonID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	storedTrials, err := trials.GetByRunID(ctx, stressed.Run.RunID)
	require.NoError(t, err)
	assert.Equal(t, stressed.Result.TotalNet, storedTrials.TotalNet)
}

func TestEngine_DistributionAndPercentageReturns(t *testing.T) {
	engine := newEngine(variedCohorts(), nil, nil)

	req := DefaultRequest()
	req.PortfolioSize = 50
	req.TrialCount = 2_000
	req.ReturnType = domain.ReturnTypePercentage
	req.Seed = seedPtr(7)

	cmp, err := engine.Run(context.Background(), req)
	require.NoError(t, err)

	for _, o := range cmp.Outcomes {
		require.NotNil(t, o.Distribution, "scenario %s", o.Run.Scenario)
		assert.Len(t, o.Distribution.Bins, 16)
		assert.Equal(t, domain.ReturnTypePercentage, o.Run.ReturnType)
		assert.Equal(t, 2_000, o.Metrics.Samples)

		want, err := metrics.ComputeRiskMetrics(o.Result.PercentageReturn, req.Alpha)
		require.NoError(t, err)
		assert.Equal(t, want.Volatility, o.Run.Volatility)
	}

	assert.Less(t, cmp.Outcome(domain.ScenarioStressed).Run.MeanReturn, cmp.Outcome(domain.ScenarioNormal).Run.MeanReturn)
}

func TestEngine_SeededRunsAreReproducible(t *testing.T) {
	req := DefaultRequest()
	req.PortfolioSize = 30
	req.TrialCount = 1_500
	req.Seed = seedPtr(2024)

	a, err := newEngine(variedCohorts(), nil, nil).Run(context.Background(), req)
	require.NoError(t, err)
	b, err := newEngine(variedCohorts(), nil, nil).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.ComparisonID, b.ComparisonID)
	for i := range a.Outcomes {
		assert.Equal(t, a.Outcomes[i].Run, b.Outcomes[i].Run)
	}
}

func TestEngine_EmpiricalDefaultRateFallback(t *testing.T) {
	engine := newEngine(variedCohorts(), nil, nil)
	assert.InDelta(t, 0.2, engine.EmpiricalDefaultRate(), 1e-12)

	req := DefaultRequest()
	req.Scenarios = []domain.ScenarioConfig{
		{Name: domain.ScenarioNormal},
		{Name: domain.ScenarioStressed, DefaultRate: ratePtr(0.5)},
	}
	req.PortfolioSize = 10
	req.TrialCount = 100

	cmp, err := engine.Run(context.Background(), req)
	require.NoError(t, err)

	normal := cmp.Outcome(domain.ScenarioNormal)
	assert.InDelta(t, 0.2, normal.Run.DefaultRate, 1e-12)
	assert.Equal(t, 8, normal.Run.PaidDraws)
	assert.Equal(t, 2, normal.Run.DefaultedDraws)
	assert.Equal(t, 5, cmp.Outcome(domain.ScenarioStressed).Run.DefaultedDraws)
}

func TestEngine_InvalidRequests(t *testing.T) {
	engine := newEngine(variedCohorts(), nil, nil)

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{name: "no scenarios", mutate: func(r *Request) { r.Scenarios = nil }, wantErr: ErrNoScenarios},
		{
			name: "duplicate scenario",
			mutate: func(r *Request) {
				r.Scenarios = []domain.ScenarioConfig{domain.ScenarioConfigNormal, domain.ScenarioConfigNormal}
			},
			wantErr: ErrDuplicateScenario,
		},
		{name: "return type", mutate: func(r *Request) { r.ReturnType = "log" }, wantErr: ErrInvalidReturnType},
		{name: "alpha", mutate: func(r *Request) { r.Alpha = 1.2 }, wantErr: metrics.ErrInvalidAlpha},
		{name: "portfolio size", mutate: func(r *Request) { r.PortfolioSize = 0 }, wantErr: simulation.ErrInvalidRequest},
		{
			name: "default rate",
			mutate: func(r *Request) {
				r.Scenarios = []domain.ScenarioConfig{{Name: domain.ScenarioStressed, DefaultRate: ratePtr(1.5)}}
			},
			wantErr: simulation.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DefaultRequest()
			req.TrialCount = 10
			tt.mutate(&req)
			_, err := engine.Run(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_InsufficientDataPersistsNothing(t *testing.T) {
	ctx := context.Background()
	cohorts := variedCohorts()
	cohorts.Defaulted = domain.Cohort{}
	runs := memory.NewScenarioRunStore()
	engine := newEngine(cohorts, runs, nil)

	req := DefaultRequest()
	req.TrialCount = 10

	_, err := engine.Run(ctx, req)
	assert.ErrorIs(t, err, simulation.ErrInsufficientData)

	all, err := runs.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEngine_UnseededRunsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewScenarioRunStore()
	engine := newEngine(variedCohorts(), runs, nil)

	req := DefaultRequest()
	req.PortfolioSize = 20
	req.TrialCount = 100

	a, err := engine.Run(ctx, req)
	require.NoError(t, err)
	b, err := engine.Run(ctx, req)
	require.NoError(t, err, "same request in the same millisecond must not collide")

	assert.NotEqual(t, a.ComparisonID, b.ComparisonID)
	for i := range a.Outcomes {
		require.NotNil(t, a.Outcomes[i].Run.Seed)
		require.NotNil(t, b.Outcomes[i].Run.Seed)
		assert.Equal(t, a.Outcomes[i].Result.Seed, *a.Outcomes[i].Run.Seed)
		assert.NotEqual(t, a.Outcomes[i].Run.RunID, b.Outcomes[i].Run.RunID)
	}

	all, err := runs.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEngine_UnseededRunReplaysFromStoredSeed(t *testing.T) {
	engine := newEngine(variedCohorts(), nil, nil)

	req := DefaultRequest()
	req.Scenarios = []domain.ScenarioConfig{domain.ScenarioConfigStressed}
	req.PortfolioSize = 25
	req.TrialCount = 300

	first, err := engine.Run(context.Background(), req)
	require.NoError(t, err)
	run := first.Outcomes[0].Run
	require.NotNil(t, run.Seed)

	req.Seed = seedPtr(*run.Seed)
	replay, err := engine.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, run.RunID, replay.Outcomes[0].Run.RunID)
	assert.Equal(t, first.Outcomes[0].Result.TotalNet, replay.Outcomes[0].Result.TotalNet)
}

// flakyTrialStore fails every InsertBulk after the first okInserts.
type flakyTrialStore struct {
	*memory.TrialStore
	okInserts int
}

func (s *flakyTrialStore) InsertBulk(ctx context.Context, runID string, result *domain.SimulationResult) error {
	if s.okInserts == 0 {
		return errors.New("disk full")
	}
	s.okInserts--
	return s.TrialStore.InsertBulk(ctx, runID, result)
}

func TestEngine_TrialFailureLeavesStoresEmpty(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewScenarioRunStore()
	trials := &flakyTrialStore{TrialStore: memory.NewTrialStore(), okInserts: 1}
	engine := New(Options{
		Resampler:  simulation.NewResampler(variedCohorts(), simulation.ResamplerOptions{}),
		RunStore:   runs,
		TrialStore: trials,
		Clock:      fixedClock,
	})

	req := DefaultRequest()
	req.PortfolioSize = 20
	req.TrialCount = 100
	req.Seed = seedPtr(11)

	_, err := engine.Run(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	all, err := runs.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	cmp, err := newEngine(variedCohorts(), nil, nil).Run(ctx, req)
	require.NoError(t, err)
	for _, o := range cmp.Outcomes {
		_, err := trials.GetByRunID(ctx, o.Run.RunID)
		assert.ErrorIs(t, err, storage.ErrNotFound, "scenario %s", o.Run.Scenario)
	}
}

func TestEngine_RejectedRunsRemoveTrials(t *testing.T) {
	ctx := context.Background()

	req := DefaultRequest()
	req.PortfolioSize = 20
	req.TrialCount = 100
	req.Seed = seedPtr(5)

	earlier, err := newEngine(variedCohorts(), nil, nil).Run(ctx, req)
	require.NoError(t, err)
	taken := earlier.Outcome(domain.ScenarioStressed).Run

	runs := memory.NewScenarioRunStore()
	require.NoError(t, runs.Insert(ctx, taken))
	trials := memory.NewTrialStore()
	engine := newEngine(variedCohorts(), runs, trials)

	_, err = engine.Run(ctx, req)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := runs.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, taken.RunID, all[0].RunID)

	for _, o := range earlier.Outcomes {
		_, err := trials.GetByRunID(ctx, o.Run.RunID)
		assert.ErrorIs(t, err, storage.ErrNotFound, "scenario %s", o.Run.Scenario)
	}
}
