package dataset

import (
	"context"
	"fmt"

	"mortgage-stress-lab/internal/storage"
)

// DefaultImportBatchSize is the number of loans written per InsertBulk call.
const DefaultImportBatchSize = 50_000

// LoadStore reads loans of the given vintages from a loan store.
// Empty vintages loads every stored loan.
// Returns ErrDataLoad if the store fails or holds no matching loans.
func LoadStore(ctx context.Context, store storage.LoanStore, vintages []int) (*Dataset, error) {
	loans, err := store.GetByVintages(ctx, vintages)
	if err != nil {
		return nil, fmt.Errorf("%w: load loans: %v", ErrDataLoad, err)
	}
	if len(loans) == 0 {
		return nil, fmt.Errorf("%w: no loans stored for vintages %v", ErrDataLoad, vintages)
	}
	return New(loans), nil
}

// Import writes every loan of d into store in batches of batchSize.
// Returns the number of loans written.
func Import(ctx context.Context, store storage.LoanStore, d *Dataset, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}

	written := 0
	for start := 0; start < len(d.loans); start += batchSize {
		end := min(start+batchSize, len(d.loans))
		if err := store.InsertBulk(ctx, d.loans[start:end]); err != nil {
			return written, fmt.Errorf("import loans [%d:%d]: %w", start, end, err)
		}
		written += end - start
	}
	return written, nil
}
