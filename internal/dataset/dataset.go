// Package dataset loads per-loan tables and partitions them into cohorts.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"mortgage-stress-lab/internal/domain"
)

// Dataset is an immutable in-memory loan table.
// Construct it once at startup and pass it explicitly to consumers.
type Dataset struct {
	loans    []domain.LoanRecord
	vintages []int
}

// New creates a Dataset from a copy of loans.
func New(loans []domain.LoanRecord) *Dataset {
	cp := make([]domain.LoanRecord, len(loans))
	copy(cp, loans)

	seen := make(map[int]struct{})
	var vintages []int
	for _, l := range cp {
		if _, ok := seen[l.Vintage]; ok {
			continue
		}
		seen[l.Vintage] = struct{}{}
		vintages = append(vintages, l.Vintage)
	}
	sort.Ints(vintages)

	return &Dataset{loans: cp, vintages: vintages}
}

// Len returns the number of loans.
func (d *Dataset) Len() int {
	return len(d.loans)
}

// Vintages returns the distinct vintages present, ascending.
func (d *Dataset) Vintages() []int {
	out := make([]int, len(d.vintages))
	copy(out, d.vintages)
	return out
}

// Loans returns a copy of the loan rows.
func (d *Dataset) Loans() []domain.LoanRecord {
	out := make([]domain.LoanRecord, len(d.loans))
	copy(out, d.loans)
	return out
}

// Split partitions the dataset into paid and defaulted cohorts.
// Every loan lands in exactly one cohort; the balance and net arrays
// of each cohort stay index-aligned.
// Returns ErrDataIntegrity on an undefined default flag or invalid values.
func (d *Dataset) Split() (*domain.Cohorts, error) {
	var paidCount int
	for i, l := range d.loans {
		if err := validateLoan(l); err != nil {
			return nil, fmt.Errorf("%w: row %d (vintage %d): %v", ErrDataIntegrity, i, l.Vintage, err)
		}
		if l.Defaulted == domain.DefaultFlagPaid {
			paidCount++
		}
	}

	defaultedCount := len(d.loans) - paidCount
	cohorts := &domain.Cohorts{
		Paid: domain.Cohort{
			Balances: make([]float64, 0, paidCount),
			Nets:     make([]float64, 0, paidCount),
		},
		Defaulted: domain.Cohort{
			Balances: make([]float64, 0, defaultedCount),
			Nets:     make([]float64, 0, defaultedCount),
		},
	}

	for _, l := range d.loans {
		target := &cohorts.Paid
		if l.Defaulted == domain.DefaultFlagDefaulted {
			target = &cohorts.Defaulted
		}
		target.Balances = append(target.Balances, l.OrigUPB)
		target.Nets = append(target.Nets, l.Net)
	}

	return cohorts, nil
}

func validateLoan(l domain.LoanRecord) error {
	switch l.Defaulted {
	case domain.DefaultFlagPaid, domain.DefaultFlagDefaulted:
	default:
		return fmt.Errorf("undefined default flag")
	}
	if math.IsNaN(l.OrigUPB) || math.IsInf(l.OrigUPB, 0) || l.OrigUPB <= 0 {
		return fmt.Errorf("orig_upb must be positive, got %v", l.OrigUPB)
	}
	if math.IsNaN(l.Net) || math.IsInf(l.Net, 0) {
		return fmt.Errorf("net must be finite, got %v", l.Net)
	}
	return nil
}

// Summary describes a loaded dataset.
type Summary struct {
	Loans          int
	PaidLoans      int
	DefaultedLoans int
	DefaultRate    float64 // empirical share of defaulted loans
	TotalUPB       float64
	Vintages       []int
}

// Summarize describes d using its cohorts.
func Summarize(d *Dataset, c *domain.Cohorts) Summary {
	total := 0.0
	for _, b := range c.Paid.Balances {
		total += b
	}
	for _, b := range c.Defaulted.Balances {
		total += b
	}
	return Summary{
		Loans:          d.Len(),
		PaidLoans:      c.Paid.Len(),
		DefaultedLoans: c.Defaulted.Len(),
		DefaultRate:    c.EmpiricalDefaultRate(),
		TotalUPB:       total,
		Vintages:       d.Vintages(),
	}
}
