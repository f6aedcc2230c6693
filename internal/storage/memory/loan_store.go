package memory

import (
	"context"
	"sync"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// LoanStore is an in-memory implementation of storage.LoanStore.
type LoanStore struct {
	mu   sync.RWMutex
	data []domain.LoanRecord
}

// NewLoanStore creates a new in-memory loan store.
func NewLoanStore() *LoanStore {
	return &LoanStore{}
}

// InsertBulk appends loans.
func (s *LoanStore) InsertBulk(_ context.Context, loans []domain.LoanRecord) error {
	if len(loans) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, loans...)
	return nil
}

// GetByVintages retrieves loans of the given vintages in insertion order.
func (s *LoanStore) GetByVintages(_ context.Context, vintages []int) ([]domain.LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[int]struct{}, len(vintages))
	for _, v := range vintages {
		want[v] = struct{}{}
	}

	var result []domain.LoanRecord
	for _, l := range s.data {
		if len(want) > 0 {
			if _, ok := want[l.Vintage]; !ok {
				continue
			}
		}
		result = append(result, l)
	}
	return result, nil
}

// CountByVintage returns the number of stored loans per vintage.
func (s *LoanStore) CountByVintage(_ context.Context) (map[int]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int)
	for _, l := range s.data {
		counts[l.Vintage]++
	}
	return counts, nil
}

var _ storage.LoanStore = (*LoanStore)(nil)
