package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// ScenarioRunStore implements storage.ScenarioRunStore using PostgreSQL.
type ScenarioRunStore struct {
	pool *Pool
}

// NewScenarioRunStore creates a new ScenarioRunStore.
func NewScenarioRunStore(pool *Pool) *ScenarioRunStore {
	return &ScenarioRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScenarioRunStore = (*ScenarioRunStore)(nil)

const scenarioRunColumns = `
	run_id, comparison_id, scenario, default_rate, portfolio_size, trial_count,
	paid_draws, defaulted_draws, return_type, alpha, seed,
	value_at_risk, expected_shortfall, volatility, skewness, kurtosis, mean_return, created_at
`

const insertScenarioRunQuery = `
	INSERT INTO scenario_runs (` + scenarioRunColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScenarioRunStore) Insert(ctx context.Context, r *domain.ScenarioRun) error {
	return s.InsertBatch(ctx, []*domain.ScenarioRun{r})
}

// InsertBatch adds every run in one transaction.
// Returns ErrDuplicateKey, with nothing written, if any run_id exists.
func (s *ScenarioRunStore) InsertBatch(ctx context.Context, runs []*domain.ScenarioRun) (err error) {
	for _, r := range runs {
		if r == nil || r.RunID == "" || r.Scenario == "" {
			return storage.ErrInvalidInput
		}
	}
	if len(runs) == 0 {
		return nil
	}
	defer observe("scenario_runs_insert", &err)()

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, r := range runs {
			if _, err := tx.Exec(ctx, insertScenarioRunQuery, scenarioRunArgs(r)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scenario runs: %w", err)
	}
	return nil
}

func scenarioRunArgs(r *domain.ScenarioRun) []any {
	return []any{
		r.RunID,
		r.ComparisonID,
		string(r.Scenario),
		r.DefaultRate,
		r.PortfolioSize,
		r.TrialCount,
		r.PaidDraws,
		r.DefaultedDraws,
		string(r.ReturnType),
		r.Alpha,
		storage.SeedToInt64(r.Seed),
		r.ValueAtRisk,
		r.ExpectedShortfall,
		r.Volatility,
		r.Skewness,
		r.Kurtosis,
		r.MeanReturn,
		r.CreatedAt,
	}
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioRunStore) GetByID(ctx context.Context, runID string) (*domain.ScenarioRun, error) {
	query := `SELECT ` + scenarioRunColumns + ` FROM scenario_runs WHERE run_id = $1`

	r, err := scanScenarioRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scenario run: %w", err)
	}
	return r, nil
}

// GetByComparison retrieves the runs of one comparison, ordered by scenario.
func (s *ScenarioRunStore) GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ScenarioRun, error) {
	query := `
		SELECT ` + scenarioRunColumns + `
		FROM scenario_runs
		WHERE comparison_id = $1
		ORDER BY scenario ASC
	`

	rows, err := s.pool.Query(ctx, query, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("get scenario runs by comparison: %w", err)
	}
	defer rows.Close()

	return scanScenarioRuns(rows)
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *ScenarioRunStore) GetAll(ctx context.Context) ([]*domain.ScenarioRun, error) {
	query := `
		SELECT ` + scenarioRunColumns + `
		FROM scenario_runs
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all scenario runs: %w", err)
	}
	defer rows.Close()

	return scanScenarioRuns(rows)
}

// scanScenarioRun scans a single row into a ScenarioRun.
func scanScenarioRun(row pgx.Row) (*domain.ScenarioRun, error) {
	var r domain.ScenarioRun
	var scenario, returnType string
	var seed *int64

	err := row.Scan(
		&r.RunID,
		&r.ComparisonID,
		&scenario,
		&r.DefaultRate,
		&r.PortfolioSize,
		&r.TrialCount,
		&r.PaidDraws,
		&r.DefaultedDraws,
		&returnType,
		&r.Alpha,
		&seed,
		&r.ValueAtRisk,
		&r.ExpectedShortfall,
		&r.Volatility,
		&r.Skewness,
		&r.Kurtosis,
		&r.MeanReturn,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Scenario = domain.ScenarioName(scenario)
	r.ReturnType = domain.ReturnType(returnType)
	r.Seed = storage.SeedFromInt64(seed)
	return &r, nil
}

// scanScenarioRuns scans multiple rows into a slice of ScenarioRun.
func scanScenarioRuns(rows pgx.Rows) ([]*domain.ScenarioRun, error) {
	var runs []*domain.ScenarioRun

	for rows.Next() {
		r, err := scanScenarioRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario run rows: %w", err)
	}

	return runs, nil
}
