package memory

import (
	"context"
	"sort"
	"sync"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// ScenarioRunStore is an in-memory implementation of storage.ScenarioRunStore.
type ScenarioRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScenarioRun // keyed by run_id
}

// NewScenarioRunStore creates a new in-memory scenario run store.
func NewScenarioRunStore() *ScenarioRunStore {
	return &ScenarioRunStore{
		data: make(map[string]*domain.ScenarioRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScenarioRunStore) Insert(ctx context.Context, r *domain.ScenarioRun) error {
	return s.InsertBatch(ctx, []*domain.ScenarioRun{r})
}

// InsertBatch adds every run or none of them.
func (s *ScenarioRunStore) InsertBatch(_ context.Context, runs []*domain.ScenarioRun) error {
	for _, r := range runs {
		if r == nil || r.RunID == "" || r.Scenario == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(runs))
	for _, r := range runs {
		if _, exists := s.data[r.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, repeated := seen[r.RunID]; repeated {
			return storage.ErrDuplicateKey
		}
		seen[r.RunID] = struct{}{}
	}

	for _, r := range runs {
		s.data[r.RunID] = copyRun(r)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioRunStore) GetByID(_ context.Context, runID string) (*domain.ScenarioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetByComparison retrieves the runs of one comparison, ordered by scenario.
func (s *ScenarioRunStore) GetByComparison(_ context.Context, comparisonID string) ([]*domain.ScenarioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScenarioRun
	for _, r := range s.data {
		if r.ComparisonID == comparisonID {
			result = append(result, copyRun(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Scenario < result[j].Scenario
	})
	return result, nil
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *ScenarioRunStore) GetAll(_ context.Context) ([]*domain.ScenarioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScenarioRun, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

// copyRun deep-copies pointer fields so callers cannot mutate stored state.
func copyRun(r *domain.ScenarioRun) *domain.ScenarioRun {
	cp := *r
	if r.Seed != nil {
		seed := *r.Seed
		cp.Seed = &seed
	}
	if r.ValueAtRisk != nil {
		v := *r.ValueAtRisk
		cp.ValueAtRisk = &v
	}
	if r.ExpectedShortfall != nil {
		v := *r.ExpectedShortfall
		cp.ExpectedShortfall = &v
	}
	return &cp
}

var _ storage.ScenarioRunStore = (*ScenarioRunStore)(nil)
