package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/storage"
)

// LoanStore implements storage.LoanStore using SQLite.
type LoanStore struct {
	db *sql.DB
}

// NewLoanStore creates a new LoanStore.
func NewLoanStore(s *Store) *LoanStore {
	return &LoanStore{db: s.db}
}

// Compile-time interface check.
var _ storage.LoanStore = (*LoanStore)(nil)

// InsertBulk appends loans in one transaction.
func (s *LoanStore) InsertBulk(ctx context.Context, loans []domain.LoanRecord) (err error) {
	if len(loans) == 0 {
		return nil
	}
	defer observe("loans_insert", &err)()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO loans (vintage, orig_upb, net, defaulted) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range loans {
		if _, err = stmt.ExecContext(ctx, l.Vintage, l.OrigUPB, l.Net, flagToDB(l.Defaulted)); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByVintages retrieves loans of the given vintages, ordered by id ASC.
// Empty vintages returns all loans.
func (s *LoanStore) GetByVintages(ctx context.Context, vintages []int) (_ []domain.LoanRecord, err error) {
	defer observe("loans_select", &err)()

	query := `SELECT vintage, orig_upb, net, defaulted FROM loans`
	args := make([]any, 0, len(vintages))
	if len(vintages) > 0 {
		query += ` WHERE vintage IN (` + placeholders(len(vintages)) + `)`
		for _, v := range vintages {
			args = append(args, v)
		}
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get loans by vintages: %w", err)
	}
	defer rows.Close()

	var loans []domain.LoanRecord
	for rows.Next() {
		var l domain.LoanRecord
		var defaulted sql.NullBool
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

// CountByVintage returns the number of stored loans per vintage.
func (s *LoanStore) CountByVintage(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT vintage, count(*) FROM loans GROUP BY vintage`)
	if err != nil {
		return nil, fmt.Errorf("count loans by vintage: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var vintage, n int
		if err := rows.Scan(&vintage, &n); err != nil {
			return nil, fmt.Errorf("scan loan count row: %w", err)
		}
		counts[vintage] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan count rows: %w", err)
	}
	return counts, nil
}

func flagToDB(f domain.DefaultFlag) sql.NullBool {
	switch f {
	case domain.DefaultFlagPaid:
		return sql.NullBool{Bool: false, Valid: true}
	case domain.DefaultFlagDefaulted:
		return sql.NullBool{Bool: true, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func flagFromDB(v sql.NullBool) domain.DefaultFlag {
	if !v.Valid {
		return domain.DefaultFlagUnknown
	}
	return domain.FlagFromBool(v.Bool)
}
