package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// LoanStore implements storage.LoanStore using PostgreSQL.
type LoanStore struct {
	pool *Pool
}

// NewLoanStore creates a new LoanStore.
func NewLoanStore(pool *Pool) *LoanStore {
	return &LoanStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LoanStore = (*LoanStore)(nil)

var loanColumns = []string{"vintage", "orig_upb", "net", "defaulted"}

// InsertBulk appends loans with a single COPY, which is atomic.
func (s *LoanStore) InsertBulk(ctx context.Context, loans []domain.LoanRecord) (err error) {
	if len(loans) == 0 {
		return nil
	}
	defer observe("loans_copy", &err)()

	_, err = s.pool.CopyFrom(ctx,
		pgx.Identifier{"loans"},
		loanColumns,
		pgx.CopyFromSlice(len(loans), func(i int) ([]any, error) {
			l := loans[i]
			return []any{l.Vintage, l.OrigUPB, l.Net, flagToDB(l.Defaulted)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy loans: %w", err)
	}
	return nil
}

// GetByVintages retrieves loans of the given vintages, ordered by id ASC.
// Empty vintages returns all loans.
func (s *LoanStore) GetByVintages(ctx context.Context, vintages []int) (_ []domain.LoanRecord, err error) {
	defer observe("loans_select", &err)()

	var rows pgx.Rows
	if len(vintages) == 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT vintage, orig_upb, net, defaulted
			FROM loans
			ORDER BY id ASC
		`)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT vintage, orig_upb, net, defaulted
			FROM loans
			WHERE vintage = ANY($1)
			ORDER BY id ASC
		`, vintages)
	}
	if err != nil {
		return nil, fmt.Errorf("get loans by vintages: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// CountByVintage returns the number of stored loans per vintage.
func (s *LoanStore) CountByVintage(ctx context.Context) (map[int]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT vintage, count(*) FROM loans GROUP BY vintage`)
	if err != nil {
		return nil, fmt.Errorf("count loans by vintage: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var vintage int
		var n int64
		if err := rows.Scan(&vintage, &n); err != nil {
			return nil, fmt.Errorf("scan loan count row: %w", err)
		}
		counts[vintage] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan count rows: %w", err)
	}
	return counts, nil
}

// scanLoans scans multiple rows into a slice of LoanRecord.
func scanLoans(rows pgx.Rows) ([]domain.LoanRecord, error) {
	var loans []domain.LoanRecord

	for rows.Next() {
		var l domain.LoanRecord
		var defaulted *bool
		if err := rows.Scan(&l.Vintage, &l.OrigUPB, &l.Net, &defaulted); err != nil {
			return nil, fmt.Errorf("scan loan row: %w", err)
		}
		l.Defaulted = flagFromDB(defaulted)
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan rows: %w", err)
	}

	return loans, nil
}

func flagToDB(f domain.DefaultFlag) *bool {
	switch f {
	case domain.DefaultFlagPaid:
		v := false
		return &v
	case domain.DefaultFlagDefaulted:
		v := true
		return &v
	default:
		return nil
	}
}

func flagFromDB(v *bool) domain.DefaultFlag {
	if v == nil {
		return domain.DefaultFlagUnknown
	}
	return domain.FlagFromBool(*v)
}
