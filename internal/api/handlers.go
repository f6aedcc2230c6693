package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/observability"
	"mortgage-stress-lab/internal/reporting"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/stress"
)

// ComparisonRequest is the body of POST /api/v1/comparisons.
// Omitted fields take the server's configured defaults.
type ComparisonRequest struct {
	NormalDefaultRate   *float64 `json:"normal_default_rate"`
	StressedDefaultRate *float64 `json:"stressed_default_rate"`
	UseEmpiricalRate    bool     `json:"use_empirical_rate"` // normal scenario uses the dataset rate
	PortfolioSize       *int     `json:"portfolio_size"`
	TrialCount          *int     `json:"trial_count"`
	Alpha               *float64 `json:"alpha"`
	ReturnType          *string  `json:"return_type"`
	Seed                *uint64  `json:"seed"`
	Distribution        bool     `json:"distribution"`
}

// toRequest overlays body fields on the configured defaults.
func (s *Server) toRequest(body ComparisonRequest) (stress.Request, error) {
	req := stress.RequestFromConfig(s.defaults)

	if body.NormalDefaultRate != nil {
		req.Scenarios[0].DefaultRate = body.NormalDefaultRate
	}
	if body.UseEmpiricalRate {
		req.Scenarios[0].DefaultRate = nil
	}
	if body.StressedDefaultRate != nil {
		req.Scenarios[1].DefaultRate = body.StressedDefaultRate
	}
	for _, sc := range req.Scenarios {
		if sc.DefaultRate != nil && (*sc.DefaultRate < 0 || *sc.DefaultRate > 1) {
			return req, fmt.Errorf("%s default rate must be in [0, 1], got %v", sc.Name, *sc.DefaultRate)
		}
	}
	if body.PortfolioSize != nil {
		req.PortfolioSize = *body.PortfolioSize
	}
	if body.TrialCount != nil {
		req.TrialCount = *body.TrialCount
	}
	if body.Alpha != nil {
		req.Alpha = *body.Alpha
	}
	if body.ReturnType != nil {
		req.ReturnType = domain.ReturnType(*body.ReturnType)
	}
	if body.Seed != nil {
		req.Seed = body.Seed
	}

	if req.PortfolioSize < 1 {
		return req, fmt.Errorf("portfolio_size must be >= 1, got %d", req.PortfolioSize)
	}
	if req.TrialCount < 1 {
		return req, fmt.Errorf("trial_count must be >= 1, got %d", req.TrialCount)
	}
	if s.maxTrialCount > 0 && req.TrialCount > s.maxTrialCount {
		return req, fmt.Errorf("trial_count must be <= %d, got %d", s.maxTrialCount, req.TrialCount)
	}
	return req, nil
}

// POST /api/v1/comparisons
func (s *Server) createComparison(c *gin.Context) {
	var body ComparisonRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	req, err := s.toRequest(body)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if !stress.IsPresetPortfolioSize(req.PortfolioSize) {
		s.logger.Warn("portfolio size is not a preset",
			zap.Int("portfolio_size", req.PortfolioSize),
			zap.Ints("presets", domain.PortfolioSizePresets),
		)
	}

	cmp, err := s.engine.Run(c.Request.Context(), req)
	if err != nil {
		s.logger.Warn("comparison failed", zap.Error(err))
		writeError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusCreated, newComparisonResponse(cmp, body.Distribution))
}

// GET /api/v1/comparisons/:id
func (s *Server) getComparison(c *gin.Context) {
	id := c.Param("id")
	runs, err := s.runs.GetByComparison(c.Request.Context(), id)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	if len(runs) == 0 {
		writeError(c, http.StatusNotFound, fmt.Errorf("comparison %s: %w", id, storage.ErrNotFound))
		return
	}

	resp := ComparisonResponse{
		ComparisonID: id,
		ReturnType:   string(runs[0].ReturnType),
		Alpha:        runs[0].Alpha,
		Runs:         make([]RunResponse, len(runs)),
	}
	for i, r := range runs {
		resp.Runs[i] = newRunResponse(r)
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/comparisons/:id/report.md
func (s *Server) getComparisonMarkdown(c *gin.Context) {
	report, err := s.generator.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	report.Dataset = reporting.NewDatasetSummary(s.dataset)
	observability.RecordReportGenerated()
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
}

// GET /api/v1/runs
func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.runs.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	resp := make([]RunResponse, len(runs))
	for i, r := range runs {
		resp[i] = newRunResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"runs": resp, "count": len(resp)})
}

// GET /api/v1/runs/:id
func (s *Server) getRun(c *gin.Context) {
	run, err := s.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

// GET /api/v1/runs/:id/trials.csv
func (s *Server) getRunTrials(c *gin.Context) {
	if s.trials == nil {
		writeError(c, http.StatusNotFound, errors.New("trial storage is disabled"))
		return
	}
	result, err := s.trials.GetByRunID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(reporting.RenderTrialsCSV(result)))
}

// GET /api/v1/dataset
func (s *Server) getDataset(c *gin.Context) {
	summary := reporting.NewDatasetSummary(s.dataset)
	if summary == nil {
		writeError(c, http.StatusNotFound, errors.New("no dataset loaded"))
		return
	}
	c.JSON(http.StatusOK, summary)
}
