package domain

// DefaultFlag is the default marker of a loan as read from a source table.
// Source tables may carry an empty value; such rows cannot be assigned to a cohort.
type DefaultFlag int8

// DefaultFlag values
const (
	DefaultFlagUnknown   DefaultFlag = iota // null / missing in source
	DefaultFlagPaid                         // loan paid off
	DefaultFlagDefaulted                    // loan terminated through a credit event
)

// String returns the flag as written to CSV exports.
func (f DefaultFlag) String() string {
	switch f {
	case DefaultFlagPaid:
		return "False"
	case DefaultFlagDefaulted:
		return "True"
	default:
		return ""
	}
}

// FlagFromBool converts a definite boolean into a DefaultFlag.
func FlagFromBool(defaulted bool) DefaultFlag {
	if defaulted {
		return DefaultFlagDefaulted
	}
	return DefaultFlagPaid
}

// LoanRecord represents one row of the per-loan dataset.
// Corresponds to the per-year loan tables (orig_upb, net, defaulted).
type LoanRecord struct {
	Vintage   int         // year of the source table (0 if unknown)
	OrigUPB   float64     // origination unpaid principal balance, > 0
	Net       float64     // realized net cash flow: interest paid minus credit loss
	Defaulted DefaultFlag // paid / defaulted / unknown
}

// Cohort holds loan values for one default-flag value.
// Balances[i] and Nets[i] always come from the same loan.
type Cohort struct {
	Balances []float64
	Nets     []float64
}

// Len returns the number of loans in the cohort.
func (c Cohort) Len() int {
	return len(c.Balances)
}

// Cohorts is the paid/defaulted partition of a loan dataset.
// Read-only after construction; safe to share between goroutines.
type Cohorts struct {
	Paid      Cohort
	Defaulted Cohort
}

// Total returns the number of loans across both cohorts.
func (c *Cohorts) Total() int {
	return c.Paid.Len() + c.Defaulted.Len()
}

// EmpiricalDefaultRate returns the share of defaulted loans in the dataset.
// Returns 0 for an empty dataset.
func (c *Cohorts) EmpiricalDefaultRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Defaulted.Len()) / float64(total)
}
