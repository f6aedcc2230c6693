package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// ScenarioRunStore implements storage.ScenarioRunStore using SQLite.
type ScenarioRunStore struct {
	db *sql.DB
}

// NewScenarioRunStore creates a new ScenarioRunStore.
func NewScenarioRunStore(s *Store) *ScenarioRunStore {
	return &ScenarioRunStore{db: s.db}
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scenario_runs (`+scenarioRunColumns+`) VALUES (`+placeholders(18)+`)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range runs {
		if _, err = stmt.ExecContext(ctx,
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
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert scenario run: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioRunStore) GetByID(ctx context.Context, runID string) (*domain.ScenarioRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scenarioRunColumns+` FROM scenario_runs WHERE run_id = ?`, runID)

	r, err := scanScenarioRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scenario run: %w", err)
	}
	return r, nil
}

// GetByComparison retrieves the runs of one comparison, ordered by scenario.
func (s *ScenarioRunStore) GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ScenarioRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scenarioRunColumns+`
		FROM scenario_runs
		WHERE comparison_id = ?
		ORDER BY scenario ASC
	`, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("get scenario runs by comparison: %w", err)
	}
	defer rows.Close()

	return scanScenarioRuns(rows)
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *ScenarioRunStore) GetAll(ctx context.Context) ([]*domain.ScenarioRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scenarioRunColumns+`
		FROM scenario_runs
		ORDER BY created_at ASC, run_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all scenario runs: %w", err)
	}
	defer rows.Close()

	return scanScenarioRuns(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenarioRun(row rowScanner) (*domain.ScenarioRun, error) {
	var r domain.ScenarioRun
	var scenario, returnType string
	var seed sql.NullInt64
	var valueAtRisk, expectedShortfall sql.NullFloat64

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
		&valueAtRisk,
		&expectedShortfall,
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
	if seed.Valid {
		r.Seed = storage.SeedFromInt64(&seed.Int64)
	}
	if valueAtRisk.Valid {
		r.ValueAtRisk = &valueAtRisk.Float64
	}
	if expectedShortfall.Valid {
		r.ExpectedShortfall = &expectedShortfall.Float64
	}
	return &r, nil
}

func scanScenarioRuns(rows *sql.Rows) ([]*domain.ScenarioRun, error) {
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
