package domain

// ScenarioName identifies a default-rate scenario.
type ScenarioName string

// Scenario name constants
const (
	ScenarioNormal   ScenarioName = "normal"
	ScenarioStressed ScenarioName = "stressed"
)

// Simulation defaults
const (
	DefaultTrialCount    = 10_000
	DefaultPortfolioSize = 1000
	DefaultAlpha         = 0.05
)

// PortfolioSizePresets are the portfolio sizes offered to interactive users.
var PortfolioSizePresets = []int{100, 500, 1000, 5000, 10000}

// ScenarioConfig represents one default-rate scenario.
type ScenarioConfig struct {
	Name        ScenarioName
	DefaultRate *float64 // nil = use the dataset's empirical default rate
}

// Predefined scenarios
var (
	ScenarioConfigNormal = ScenarioConfig{
		Name:        ScenarioNormal,
		DefaultRate: float64Ptr(0.02),
	}

	ScenarioConfigStressed = ScenarioConfig{
		Name:        ScenarioStressed,
		DefaultRate: float64Ptr(0.10),
	}
)

// ScenarioRun is the persisted record of one simulated scenario.
// Corresponds to the scenario_runs table.
type ScenarioRun struct {
	RunID        string // deterministic hash, see idhash.ComputeRunID
	ComparisonID string // shared by the normal and stressed runs of one comparison
	Scenario     ScenarioName

	// Parameters
	DefaultRate    float64
	PortfolioSize  int
	TrialCount     int
	PaidDraws      int
	DefaultedDraws int
	ReturnType     ReturnType
	Alpha          float64
	Seed           *uint64 // nil for unseeded runs

	// Metrics
	ValueAtRisk       *float64 // nil = no loss at alpha
	ExpectedShortfall *float64 // nil = no loss at alpha
	Volatility        float64
	Skewness          float64
	Kurtosis          float64
	MeanReturn        float64

	CreatedAt int64 // unix ms
}

func float64Ptr(v float64) *float64 {
	return &v
}
