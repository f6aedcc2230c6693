package reporting

import "time"

// Report represents a scenario comparison report.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	ComparisonID  string
	ReturnType    string // "net" or "percentage"
	Alpha         float64
	PortfolioSize int
	TrialCount    int

	// Dataset description, nil when the report is rebuilt from stored runs
	Dataset *DatasetSummary

	// One row per scenario, in comparison order
	Scenarios []ScenarioMetricRow
}

// DatasetSummary describes the loan dataset the scenarios were drawn from.
type DatasetSummary struct {
	Loans          int     `json:"loans"`
	PaidLoans      int     `json:"paid_loans"`
	DefaultedLoans int     `json:"defaulted_loans"`
	DefaultRate    float64 `json:"default_rate"`
	TotalUPB       float64 `json:"total_upb"`
	Vintages       []int   `json:"vintages"`
}

// ScenarioMetricRow holds the parameters and risk figures of one scenario.
type ScenarioMetricRow struct {
	Scenario          string
	RunID             string
	DefaultRate       float64
	PaidDraws         int
	DefaultedDraws    int
	Seed              *uint64
	ValueAtRisk       *float64 // nil = no loss at alpha
	ExpectedShortfall *float64 // nil = no loss at alpha
	Volatility        float64
	Skewness          float64
	Kurtosis          float64
	MeanReturn        float64
}
