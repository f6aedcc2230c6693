package domain

import "math"

// ReturnType selects which per-portfolio series feeds the risk metrics.
type ReturnType string

// Return type constants
const (
	ReturnTypeNet        ReturnType = "net"
	ReturnTypePercentage ReturnType = "percentage"
)

// Valid reports whether r is a known return type.
func (r ReturnType) Valid() bool {
	return r == ReturnTypeNet || r == ReturnTypePercentage
}

// Title returns the display label, e.g. "Net Return".
func (r ReturnType) Title() string {
	switch r {
	case ReturnTypePercentage:
		return "Percentage Return"
	default:
		return "Net Return"
	}
}

// SimulationRequest describes one Monte Carlo run.
type SimulationRequest struct {
	DefaultRate   float64 // share of defaulted loans in each portfolio, [0,1]
	PortfolioSize int     // loans per simulated portfolio, >= 1
	TrialCount    int     // number of simulated portfolios, >= 1
	Seed          *uint64 // nil = fresh entropy per run
}

// SimulationResult holds per-trial portfolio outcomes.
// All three slices have length TrialCount and are index-aligned.
type SimulationResult struct {
	Seed             uint64 // seed the trials were drawn with; replaying it reproduces them
	PaidDraws        int
	DefaultedDraws   int
	TotalInvestment  []float64 // sum of sampled origination balances
	TotalNet         []float64 // sum of sampled net outcomes
	PercentageReturn []float64 // TotalNet / TotalInvestment, NaN when investment is 0
}

// NewSimulationResult builds a result and derives the percentage return series.
func NewSimulationResult(paidDraws, defaultedDraws int, investment, net []float64) *SimulationResult {
	pct := make([]float64, len(investment))
	for i := range investment {
		if investment[i] == 0 {
			pct[i] = math.NaN()
			continue
		}
		pct[i] = net[i] / investment[i]
	}
	return &SimulationResult{
		PaidDraws:        paidDraws,
		DefaultedDraws:   defaultedDraws,
		TotalInvestment:  investment,
		TotalNet:         net,
		PercentageReturn: pct,
	}
}

// Trials returns the number of simulated portfolios.
func (r *SimulationResult) Trials() int {
	return len(r.TotalNet)
}

// Series returns the return series for the given type.
func (r *SimulationResult) Series(t ReturnType) []float64 {
	if t == ReturnTypePercentage {
		return r.PercentageReturn
	}
	return r.TotalNet
}
