package clickhouse

import (
	"context"
	"fmt"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// ScenarioRunStore implements storage.ScenarioRunStore using ClickHouse.
type ScenarioRunStore struct {
	conn *Conn
}

// NewScenarioRunStore creates a new ScenarioRunStore.
func NewScenarioRunStore(conn *Conn) *ScenarioRunStore {
	return &ScenarioRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScenarioRunStore = (*ScenarioRunStore)(nil)

const scenarioRunColumns = `
	run_id, comparison_id, scenario, default_rate, portfolio_size, trial_count,
	paid_draws, defaulted_draws, return_type, alpha, seed,
	value_at_risk, expected_shortfall, volatility, skewness, kurtosis, mean_return, created_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScenarioRunStore) Insert(ctx context.Context, r *domain.ScenarioRun) error {
	return s.InsertBatch(ctx, []*domain.ScenarioRun{r})
}

// InsertBatch checks every run_id, then writes all runs as one insert block.
// Returns ErrDuplicateKey, with nothing written, if any run_id exists or repeats.
func (s *ScenarioRunStore) InsertBatch(ctx context.Context, runs []*domain.ScenarioRun) (err error) {
	seen := make(map[string]struct{}, len(runs))
	for _, r := range runs {
		if r == nil || r.RunID == "" || r.Scenario == "" {
			return storage.ErrInvalidInput
		}
		if _, repeated := seen[r.RunID]; repeated {
			return storage.ErrDuplicateKey
		}
		seen[r.RunID] = struct{}{}
	}
	if len(runs) == 0 {
		return nil
	}
	defer observe("scenario_runs_insert", &err)()

	for _, r := range runs {
		exists, err := s.conn.exists(ctx, `SELECT count() FROM scenario_runs WHERE run_id = ?`, r.RunID)
		if err != nil {
			return fmt.Errorf("check existing run: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO scenario_runs (`+scenarioRunColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range runs {
		err := batch.Append(
			r.RunID,
			r.ComparisonID,
			string(r.Scenario),
			r.DefaultRate,
			uint32(r.PortfolioSize),
			uint32(r.TrialCount),
			uint32(r.PaidDraws),
			uint32(r.DefaultedDraws),
			string(r.ReturnType),
			r.Alpha,
			r.Seed,
			r.ValueAtRisk,
			r.ExpectedShortfall,
			r.Volatility,
			r.Skewness,
			r.Kurtosis,
			r.MeanReturn,
			r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioRunStore) GetByID(ctx context.Context, runID string) (*domain.ScenarioRun, error) {
	runs, err := s.query(ctx, `
		SELECT `+scenarioRunColumns+`
		FROM scenario_runs FINAL
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get scenario run: %w", err)
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetByComparison retrieves the runs of one comparison, ordered by scenario.
func (s *ScenarioRunStore) GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ScenarioRun, error) {
	runs, err := s.query(ctx, `
		SELECT `+scenarioRunColumns+`
		FROM scenario_runs FINAL
		WHERE comparison_id = ?
		ORDER BY scenario ASC
	`, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("get scenario runs by comparison: %w", err)
	}
	return runs, nil
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *ScenarioRunStore) GetAll(ctx context.Context) ([]*domain.ScenarioRun, error) {
	runs, err := s.query(ctx, `
		SELECT `+scenarioRunColumns+`
		FROM scenario_runs FINAL
		ORDER BY created_at ASC, run_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all scenario runs: %w", err)
	}
	return runs, nil
}

func (s *ScenarioRunStore) query(ctx context.Context, query string, args ...any) (_ []*domain.ScenarioRun, err error) {
	defer observe("scenario_runs_select", &err)()

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.ScenarioRun
	for rows.Next() {
		var (
			r                                                    domain.ScenarioRun
			scenario, returnType                                 string
			portfolioSize, trialCount, paidDraws, defaultedDraws uint32
		)
		err := rows.Scan(
			&r.RunID,
			&r.ComparisonID,
			&scenario,
			&r.DefaultRate,
			&portfolioSize,
			&trialCount,
			&paidDraws,
			&defaultedDraws,
			&returnType,
			&r.Alpha,
			&r.Seed,
			&r.ValueAtRisk,
			&r.ExpectedShortfall,
			&r.Volatility,
			&r.Skewness,
			&r.Kurtosis,
			&r.MeanReturn,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scenario run row: %w", err)
		}
		r.Scenario = domain.ScenarioName(scenario)
		r.ReturnType = domain.ReturnType(returnType)
		r.PortfolioSize = int(portfolioSize)
		r.TrialCount = int(trialCount)
		r.PaidDraws = int(paidDraws)
		r.DefaultedDraws = int(defaultedDraws)
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario run rows: %w", err)
	}
	return runs, nil
}
