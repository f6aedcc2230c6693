package clickhouse

import (
	"context"
	"fmt"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// TrialStore implements storage.TrialStore using ClickHouse.
type TrialStore struct {
	conn *Conn
}

// NewTrialStore creates a new TrialStore.
func NewTrialStore(conn *Conn) *TrialStore {
	return &TrialStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrialStore = (*TrialStore)(nil)

// InsertBulk stores every trial of result under runID in one batch.
// Returns ErrDuplicateKey if trials for runID already exist.
func (s *TrialStore) InsertBulk(ctx context.Context, runID string, result *domain.SimulationResult) (err error) {
	if runID == "" || result == nil {
		return storage.ErrInvalidInput
	}
	if len(result.TotalInvestment) != len(result.TotalNet) {
		return storage.ErrInvalidInput
	}
	defer observe("scenario_trials_insert", &err)()

	exists, err := s.conn.exists(ctx, `SELECT count() FROM scenario_trials WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("check existing trials: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO scenario_trials (
			run_id, trial, paid_draws, defaulted_draws, total_investment, total_net
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range result.TotalNet {
		err := batch.Append(
			runID,
			uint32(i),
			uint32(result.PaidDraws),
			uint32(result.DefaultedDraws),
			result.TotalInvestment[i],
			result.TotalNet[i],
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

// DeleteByRunID removes the trials of runID with a lightweight delete,
// which hides the rows from later reads before the statement returns.
func (s *TrialStore) DeleteByRunID(ctx context.Context, runID string) (err error) {
	defer observe("scenario_trials_delete", &err)()

	if err := s.conn.Exec(ctx, `DELETE FROM scenario_trials WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete trials: %w", err)
	}
	return nil
}

// GetByRunID reconstructs the stored result, ordered by trial index.
// Returns ErrNotFound if no trials exist for runID.
func (s *TrialStore) GetByRunID(ctx context.Context, runID string) (_ *domain.SimulationResult, err error) {
	defer observe("scenario_trials_select", &err)()

	rows, err := s.conn.Query(ctx, `
		SELECT paid_draws, defaulted_draws, total_investment, total_net
		FROM scenario_trials
		WHERE run_id = ?
		ORDER BY trial ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var (
		paidDraws, defaultedDraws uint32
		investment, net           []float64
	)
	for rows.Next() {
		var inv, n float64
		if err := rows.Scan(&paidDraws, &defaultedDraws, &inv, &n); err != nil {
			return nil, fmt.Errorf("scan trial row: %w", err)
		}
		investment = append(investment, inv)
		net = append(net, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial rows: %w", err)
	}

	if len(net) == 0 {
		return nil, storage.ErrNotFound
	}
	return domain.NewSimulationResult(int(paidDraws), int(defaultedDraws), investment, net), nil
}
