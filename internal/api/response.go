package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/metrics"
	"mortgage-stress-lab/internal/simulation"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/stress"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, stress.ErrNoScenarios),
		errors.Is(err, stress.ErrDuplicateScenario),
		errors.Is(err, stress.ErrInvalidReturnType),
		errors.Is(err, metrics.ErrInvalidAlpha),
		errors.Is(err, simulation.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, simulation.ErrInsufficientData),
		errors.Is(err, metrics.ErrDegenerateInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RunResponse is the JSON form of a persisted scenario run.
type RunResponse struct {
	RunID             string   `json:"run_id"`
	ComparisonID      string   `json:"comparison_id"`
	Scenario          string   `json:"scenario"`
	DefaultRate       float64  `json:"default_rate"`
	PortfolioSize     int      `json:"portfolio_size"`
	TrialCount        int      `json:"trial_count"`
	PaidDraws         int      `json:"paid_draws"`
	DefaultedDraws    int      `json:"defaulted_draws"`
	ReturnType        string   `json:"return_type"`
	Alpha             float64  `json:"alpha"`
	Seed              *uint64  `json:"seed"`
	ValueAtRisk       *float64 `json:"value_at_risk"`
	ExpectedShortfall *float64 `json:"expected_shortfall"`
	Volatility        float64  `json:"volatility"`
	Skewness          float64  `json:"skewness"`
	Kurtosis          float64  `json:"kurtosis"`
	MeanReturn        float64  `json:"mean_return"`
	CreatedAt         int64    `json:"created_at"`
}

func newRunResponse(r *domain.ScenarioRun) RunResponse {
	return RunResponse{
		RunID:             r.RunID,
		ComparisonID:      r.ComparisonID,
		Scenario:          string(r.Scenario),
		DefaultRate:       r.DefaultRate,
		PortfolioSize:     r.PortfolioSize,
		TrialCount:        r.TrialCount,
		PaidDraws:         r.PaidDraws,
		DefaultedDraws:    r.DefaultedDraws,
		ReturnType:        string(r.ReturnType),
		Alpha:             r.Alpha,
		Seed:              r.Seed,
		ValueAtRisk:       r.ValueAtRisk,
		ExpectedShortfall: r.ExpectedShortfall,
		Volatility:        r.Volatility,
		Skewness:          r.Skewness,
		Kurtosis:          r.Kurtosis,
		MeanReturn:        r.MeanReturn,
		CreatedAt:         r.CreatedAt,
	}
}

// ComparisonResponse is returned by POST /api/v1/comparisons.
type ComparisonResponse struct {
	ComparisonID string                           `json:"comparison_id"`
	ReturnType   string                           `json:"return_type"`
	Alpha        float64                          `json:"alpha"`
	Runs         []RunResponse                    `json:"runs"`
	Distribution map[string]*metrics.Distribution `json:"distribution,omitempty"`
}

func newComparisonResponse(cmp *stress.Comparison, withDistribution bool) ComparisonResponse {
	resp := ComparisonResponse{
		ComparisonID: cmp.ComparisonID,
		ReturnType:   string(cmp.ReturnType),
		Alpha:        cmp.Alpha,
		Runs:         make([]RunResponse, len(cmp.Outcomes)),
	}
	if withDistribution {
		resp.Distribution = make(map[string]*metrics.Distribution, len(cmp.Outcomes))
	}
	for i, o := range cmp.Outcomes {
		resp.Runs[i] = newRunResponse(o.Run)
		if withDistribution {
			resp.Distribution[string(o.Run.Scenario)] = o.Distribution
		}
	}
	return resp
}
