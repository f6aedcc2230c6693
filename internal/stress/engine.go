// Package stress runs several default-rate scenarios over one loan dataset
// and compares their risk metrics.
// Flow: resample each scenario (in parallel) → risk metrics → distribution → persist.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/idhash"
	"mortgage-stress-lab/internal/metrics"
	"mortgage-stress-lab/internal/observability"
	"mortgage-stress-lab/internal/simulation"
	"mortgage-stress-lab/internal/storage"
)

// Request describes one scenario comparison.
type Request struct {
	Scenarios     []domain.ScenarioConfig
	PortfolioSize int
	TrialCount    int
	Alpha         float64
	ReturnType    domain.ReturnType
	Seed          *uint64 // scenario i uses Seed+i
}

// DefaultRequest returns the normal-vs-stressed comparison with default parameters.
func DefaultRequest() Request {
	return Request{
		Scenarios:     []domain.ScenarioConfig{domain.ScenarioConfigNormal, domain.ScenarioConfigStressed},
		PortfolioSize: domain.DefaultPortfolioSize,
		TrialCount:    domain.DefaultTrialCount,
		Alpha:         domain.DefaultAlpha,
		ReturnType:    domain.ReturnTypeNet,
	}
}

// ScenarioOutcome is the full result of one scenario.
type ScenarioOutcome struct {
	Run          *domain.ScenarioRun
	Result       *domain.SimulationResult
	Metrics      *domain.RiskMetrics
	Distribution *metrics.Distribution // nil when the series has no spread
}

// Comparison holds the outcomes of every requested scenario, in request order.
type Comparison struct {
	ComparisonID string
	ReturnType   domain.ReturnType
	Alpha        float64
	CreatedAt    int64
	Outcomes     []*ScenarioOutcome
}

// Outcome returns the outcome for the named scenario, or nil.
func (c *Comparison) Outcome(name domain.ScenarioName) *ScenarioOutcome {
	for _, o := range c.Outcomes {
		if o.Run.Scenario == name {
			return o
		}
	}
	return nil
}

// Options for creating an Engine.
type Options struct {
	Resampler *simulation.Resampler // required

	// Optional persistence
	RunStore   storage.ScenarioRunStore
	TrialStore storage.TrialStore

	HistogramBins int              // 0 = metrics.DefaultHistogramBins
	Clock         func() time.Time // nil = time.Now
	Logger        *zap.Logger
}

// Engine coordinates resampling, metrics and persistence.
type Engine struct {
	resampler     *simulation.Resampler
	runStore      storage.ScenarioRunStore
	trialStore    storage.TrialStore
	histogramBins int
	clock         func() time.Time
	logger        *zap.Logger
}

// New creates a new Engine.
func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bins := opts.HistogramBins
	if bins <= 0 {
		bins = metrics.DefaultHistogramBins
	}
	return &Engine{
		resampler:     opts.Resampler,
		runStore:      opts.RunStore,
		trialStore:    opts.TrialStore,
		histogramBins: bins,
		clock:         clock,
		logger:        logger,
	}
}

// EmpiricalDefaultRate returns the default rate used for scenarios without one.
func (e *Engine) EmpiricalDefaultRate() float64 {
	return e.resampler.Cohorts().EmpiricalDefaultRate()
}

// Run simulates every scenario of req and computes their metrics.
// Either every scenario succeeds and is stored, or an error is returned and
// nothing of the comparison is left in the stores.
func (e *Engine) Run(ctx context.Context, req Request) (*Comparison, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	createdAt := e.clock().UnixMilli()
	outcomes := make([]*ScenarioOutcome, len(req.Scenarios))

	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range req.Scenarios {
		g.Go(func() error {
			out, err := e.runScenario(gctx, req, i, sc, createdAt)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordComparison("error")
		return nil, err
	}

	runIDs := make([]string, len(outcomes))
	for i, o := range outcomes {
		runIDs[i] = o.Run.RunID
	}
	comparisonID := idhash.ComputeComparisonID(runIDs...)
	for _, o := range outcomes {
		o.Run.ComparisonID = comparisonID
	}

	cmp := &Comparison{
		ComparisonID: comparisonID,
		ReturnType:   req.ReturnType,
		Alpha:        req.Alpha,
		CreatedAt:    createdAt,
		Outcomes:     outcomes,
	}

	if err := e.persist(ctx, cmp); err != nil {
		observability.RecordComparison("error")
		return nil, err
	}

	observability.RecordComparison("success")
	e.logger.Info("comparison completed",
		zap.String("comparison_id", comparisonID),
		zap.Int("scenarios", len(outcomes)),
		zap.Int("portfolio_size", req.PortfolioSize),
		zap.Int("trial_count", req.TrialCount),
		zap.String("return_type", string(req.ReturnType)),
	)
	return cmp, nil
}

func (e *Engine) validate(req Request) error {
	if len(req.Scenarios) == 0 {
		return ErrNoScenarios
	}
	seen := make(map[domain.ScenarioName]bool, len(req.Scenarios))
	for _, sc := range req.Scenarios {
		if seen[sc.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateScenario, sc.Name)
		}
		seen[sc.Name] = true
	}
	if !req.ReturnType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidReturnType, req.ReturnType)
	}
	if math.IsNaN(req.Alpha) || req.Alpha <= 0 || req.Alpha >= 1 {
		return fmt.Errorf("%w: got %v", metrics.ErrInvalidAlpha, req.Alpha)
	}
	return nil
}

func (e *Engine) runScenario(ctx context.Context, req Request, index int, sc domain.ScenarioConfig, createdAt int64) (*ScenarioOutcome, error) {
	rate := e.EmpiricalDefaultRate()
	if sc.DefaultRate != nil {
		rate = *sc.DefaultRate
	}

	var seed *uint64
	if req.Seed != nil {
		s := *req.Seed + uint64(index)
		seed = &s
	}

	simReq := domain.SimulationRequest{
		DefaultRate:   rate,
		PortfolioSize: req.PortfolioSize,
		TrialCount:    req.TrialCount,
		Seed:          seed,
	}

	start := time.Now()
	result, err := e.resampler.Simulate(ctx, simReq)
	elapsed := time.Since(start)
	if err != nil {
		observability.RecordSimulation(string(sc.Name), "error", req.TrialCount, elapsed.Seconds())
		return nil, err
	}
	observability.RecordSimulation(string(sc.Name), "success", req.TrialCount, elapsed.Seconds())

	// Unseeded runs are identified by the seed the resampler drew
	effectiveSeed := result.Seed

	series := result.Series(req.ReturnType)
	risk, err := metrics.ComputeRiskMetrics(series, req.Alpha)
	if err != nil {
		return nil, err
	}
	if !risk.HasLoss() {
		observability.RecordUndefinedVaR(string(sc.Name))
	}

	dist, err := metrics.Summarize(series, e.histogramBins)
	if err != nil {
		if !errors.Is(err, metrics.ErrDegenerateInput) {
			return nil, err
		}
		e.logger.Debug("distribution skipped", zap.String("scenario", string(sc.Name)), zap.Error(err))
		dist = nil
	}

	run := &domain.ScenarioRun{
		RunID: idhash.ComputeRunID(
			string(sc.Name), rate, req.PortfolioSize, req.TrialCount,
			string(req.ReturnType), req.Alpha, effectiveSeed, createdAt,
		),
		Scenario:          sc.Name,
		DefaultRate:       rate,
		PortfolioSize:     req.PortfolioSize,
		TrialCount:        req.TrialCount,
		PaidDraws:         result.PaidDraws,
		DefaultedDraws:    result.DefaultedDraws,
		ReturnType:        req.ReturnType,
		Alpha:             req.Alpha,
		Seed:              &effectiveSeed,
		ValueAtRisk:       risk.ValueAtRisk,
		ExpectedShortfall: risk.ExpectedShortfall,
		Volatility:        risk.Volatility,
		Skewness:          risk.Skewness,
		Kurtosis:          risk.Kurtosis,
		MeanReturn:        risk.Mean,
		CreatedAt:         createdAt,
	}

	e.logger.Debug("scenario simulated",
		zap.String("scenario", string(sc.Name)),
		zap.Float64("default_rate", rate),
		zap.Int("paid_draws", result.PaidDraws),
		zap.Int("defaulted_draws", result.DefaultedDraws),
		zap.Bool("var_defined", risk.HasLoss()),
		zap.Duration("elapsed", elapsed),
	)

	return &ScenarioOutcome{
		Run:          run,
		Result:       result,
		Metrics:      risk,
		Distribution: dist,
	}, nil
}

// persist writes trials first and runs last, so a stored run always has its
// trials. Trials already written are removed when a later write fails.
func (e *Engine) persist(ctx context.Context, cmp *Comparison) error {
	var written []string
	if e.trialStore != nil {
		for _, o := range cmp.Outcomes {
			if err := e.trialStore.InsertBulk(ctx, o.Run.RunID, o.Result); err != nil {
				return e.removeTrials(ctx, written, fmt.Errorf("store trials %s: %w", o.Run.Scenario, err))
			}
			written = append(written, o.Run.RunID)
		}
	}

	if e.runStore != nil {
		runs := make([]*domain.ScenarioRun, len(cmp.Outcomes))
		for i, o := range cmp.Outcomes {
			runs[i] = o.Run
		}
		if err := e.runStore.InsertBatch(ctx, runs); err != nil {
			return e.removeTrials(ctx, written, fmt.Errorf("store runs: %w", err))
		}
	}
	return nil
}

// removeTrials deletes the trials of runIDs and returns cause joined with any
// cleanup failure. Cleanup runs even when ctx is already canceled.
func (e *Engine) removeTrials(ctx context.Context, runIDs []string, cause error) error {
	err := cause
	cleanupCtx := context.WithoutCancel(ctx)
	for _, id := range runIDs {
		if derr := e.trialStore.DeleteByRunID(cleanupCtx, id); derr != nil {
			err = multierr.Append(err, fmt.Errorf("remove trials %s: %w", id, derr))
		}
	}
	if len(runIDs) > 0 {
		e.logger.Warn("comparison not stored, trials removed",
			zap.Strings("run_ids", runIDs),
			zap.Error(err),
		)
	}
	return err
}
