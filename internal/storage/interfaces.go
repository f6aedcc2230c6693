package storage

import (
	"context"

	"mortgage-stress-lab/internal/domain"
)

// LoanStore provides access to the loans table.
type LoanStore interface {
	// InsertBulk appends loans atomically. Loans have no natural key; the table is append-only.
	InsertBulk(ctx context.Context, loans []domain.LoanRecord) error

	// GetByVintages retrieves loans of the given vintages. Empty vintages returns all loans.
	GetByVintages(ctx context.Context, vintages []int) ([]domain.LoanRecord, error)

	// CountByVintage returns the number of stored loans per vintage.
	CountByVintage(ctx context.Context) (map[int]int, error)
}

// ScenarioRunStore provides access to scenario_runs storage.
type ScenarioRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ScenarioRun) error

	// InsertBatch adds every run or none of them.
	// Returns ErrDuplicateKey if any run_id exists or repeats within runs.
	InsertBatch(ctx context.Context, runs []*domain.ScenarioRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ScenarioRun, error)

	// GetByComparison retrieves the runs of one comparison, ordered by scenario.
	GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ScenarioRun, error)

	// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
	GetAll(ctx context.Context) ([]*domain.ScenarioRun, error)
}

// TrialStore provides access to per-trial portfolio outcomes.
type TrialStore interface {
	// InsertBulk stores every trial of a result under runID.
	// Returns ErrDuplicateKey if trials for runID already exist.
	InsertBulk(ctx context.Context, runID string, result *domain.SimulationResult) error

	// GetByRunID reconstructs the stored result, ordered by trial index.
	// Returns ErrNotFound if no trials exist for runID.
	GetByRunID(ctx context.Context, runID string) (*domain.SimulationResult, error)

	// DeleteByRunID removes the trials of runID. Used to undo a comparison
	// whose runs could not be stored; a runID without trials is not an error.
	DeleteByRunID(ctx context.Context, runID string) error
}
