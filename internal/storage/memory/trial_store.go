package memory

import (
	"context"
	"sync"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// TrialStore is an in-memory implementation of storage.TrialStore.
type TrialStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationResult // keyed by run_id
}

// NewTrialStore creates a new in-memory trial store.
func NewTrialStore() *TrialStore {
	return &TrialStore{
		data: make(map[string]*domain.SimulationResult),
	}
}

// InsertBulk stores every trial of result under runID.
func (s *TrialStore) InsertBulk(_ context.Context, runID string, result *domain.SimulationResult) error {
	if runID == "" || result == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[runID] = copyResult(result)
	return nil
}

// GetByRunID returns the stored result. Returns ErrNotFound if not exists.
func (s *TrialStore) GetByRunID(_ context.Context, runID string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyResult(r), nil
}

// DeleteByRunID removes the trials of runID.
func (s *TrialStore) DeleteByRunID(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, runID)
	return nil
}

func copyResult(r *domain.SimulationResult) *domain.SimulationResult {
	investment := make([]float64, len(r.TotalInvestment))
	copy(investment, r.TotalInvestment)
	net := make([]float64, len(r.TotalNet))
	copy(net, r.TotalNet)
	cp := domain.NewSimulationResult(r.PaidDraws, r.DefaultedDraws, investment, net)
	cp.Seed = r.Seed
	return cp
}

var _ storage.TrialStore = (*TrialStore)(nil)
