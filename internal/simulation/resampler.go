// Package simulation draws random mortgage portfolios from paid and defaulted cohorts.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mortgage-stress-lab/internal/domain"
)

// DefaultChunkSize is the number of trials simulated per RNG stream.
const DefaultChunkSize = 1024

// Resampler runs Monte Carlo portfolio simulations over a fixed cohort pair.
// It holds no mutable state; Simulate may be called concurrently.
type Resampler struct {
	cohorts   *domain.Cohorts
	workers   int
	chunkSize int
	logger    *zap.Logger
}

// ResamplerOptions contains configuration for creating a Resampler.
type ResamplerOptions struct {
	Workers   int // parallel chunk workers, 0 = GOMAXPROCS
	ChunkSize int // trials per RNG stream, 0 = DefaultChunkSize
	Logger    *zap.Logger
}

// NewResampler creates a resampler over cohorts. The cohorts must not be
// mutated while the resampler is in use.
func NewResampler(cohorts *domain.Cohorts, opts ResamplerOptions) *Resampler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resampler{
		cohorts:   cohorts,
		workers:   workers,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Cohorts returns the cohort pair the resampler draws from.
func (r *Resampler) Cohorts() *domain.Cohorts {
	return r.cohorts
}

// Simulate draws req.TrialCount portfolios. Each portfolio holds paid and
// defaulted loans drawn uniformly with replacement, in the counts given by
// SplitDraws, and is reduced to its total investment and total net.
//
// Trials are split into chunks of ChunkSize; chunk c uses a PCG stream seeded
// with (seed, c), so a seeded request yields the same result for any worker count.
// The seed used is returned in the result, so unseeded runs can be replayed.
// Returns ErrInvalidRequest for out-of-range parameters and
// ErrInsufficientData when draws are requested from an empty cohort.
func (r *Resampler) Simulate(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	paidDraws, defaultedDraws := SplitDraws(req.PortfolioSize, req.DefaultRate)
	if paidDraws > 0 && r.cohorts.Paid.Len() == 0 {
		return nil, fmt.Errorf("%w: %d paid draws requested from empty paid cohort", ErrInsufficientData, paidDraws)
	}
	if defaultedDraws > 0 && r.cohorts.Defaulted.Len() == 0 {
		return nil, fmt.Errorf("%w: %d defaulted draws requested from empty defaulted cohort", ErrInsufficientData, defaultedDraws)
	}

	// Unseeded requests draw a fresh seed and report it in the result
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	investment := make([]float64, req.TrialCount)
	net := make([]float64, req.TrialCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for chunk := 0; chunk*r.chunkSize < req.TrialCount; chunk++ {
		lo := chunk * r.chunkSize
		hi := min(lo+r.chunkSize, req.TrialCount)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(chunk)))
			for i := lo; i < hi; i++ {
				inv, n := drawPortfolio(rng, &r.cohorts.Paid, paidDraws)
				dInv, dN := drawPortfolio(rng, &r.cohorts.Defaulted, defaultedDraws)
				investment[i] = inv + dInv
				net[i] = n + dN
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("simulation completed",
		zap.Float64("default_rate", req.DefaultRate),
		zap.Int("portfolio_size", req.PortfolioSize),
		zap.Int("paid_draws", paidDraws),
		zap.Int("defaulted_draws", defaultedDraws),
		zap.Int("trials", req.TrialCount),
		zap.Duration("elapsed", time.Since(start)),
	)

	result := domain.NewSimulationResult(paidDraws, defaultedDraws, investment, net)
	result.Seed = seed
	return result, nil
}

// drawPortfolio sums draws loans sampled with replacement from c.
// A zero draw count never touches the cohort.
func drawPortfolio(rng *rand.Rand, c *domain.Cohort, draws int) (investment, net float64) {
	n := c.Len()
	for k := 0; k < draws; k++ {
		j := rng.IntN(n)
		investment += c.Balances[j]
		net += c.Nets[j]
	}
	return investment, net
}

func validateRequest(req domain.SimulationRequest) error {
	if math.IsNaN(req.DefaultRate) || req.DefaultRate < 0 || req.DefaultRate > 1 {
		return fmt.Errorf("%w: default rate %v outside [0,1]", ErrInvalidRequest, req.DefaultRate)
	}
	if req.PortfolioSize < 1 {
		return fmt.Errorf("%w: portfolio size must be >= 1, got %d", ErrInvalidRequest, req.PortfolioSize)
	}
	if req.TrialCount < 1 {
		return fmt.Errorf("%w: trial count must be >= 1, got %d", ErrInvalidRequest, req.TrialCount)
	}
	return nil
}
