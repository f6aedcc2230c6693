package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/dataset"
	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/simulation"
	"mortgage-stress-lab/internal/storage/memory"
	"mortgage-stress-lab/internal/stress"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// uniformCohorts has identical loans per cohort, so every trial of a scenario is identical.
func uniformCohorts() *domain.Cohorts {
	c := &domain.Cohorts{}
	for i := 0; i < 9; i++ {
		c.Paid.Balances = append(c.Paid.Balances, 100_000)
		c.Paid.Nets = append(c.Paid.Nets, 1_000)
	}
	c.Defaulted.Balances = append(c.Defaulted.Balances, 100_000)
	c.Defaulted.Nets = append(c.Defaulted.Nets, -30_000)
	return c
}

type testServer struct {
	handler http.Handler
	runs    *memory.ScenarioRunStore
	trials  *memory.TrialStore
}

func newTestServer(t *testing.T, maxTrials int) *testServer {
	t.Helper()

	normal, stressed := 0.02, 0.10
	runs := memory.NewScenarioRunStore()
	trials := memory.NewTrialStore()
	cohorts := uniformCohorts()

	engine := stress.New(stress.Options{
		Resampler:  simulation.NewResampler(cohorts, simulation.ResamplerOptions{}),
		RunStore:   runs,
		TrialStore: trials,
		Clock:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})

	summary := &dataset.Summary{
		Loans:          10,
		PaidLoans:      9,
		DefaultedLoans: 1,
		DefaultRate:    0.1,
		TotalUPB:       1_000_000,
		Vintages:       []int{2020},
	}

	srv := New(Options{
		Engine:     engine,
		RunStore:   runs,
		TrialStore: trials,
		Dataset:    summary,
		Simulation: config.SimulationConfig{
			NormalDefaultRate:   &normal,
			StressedDefaultRate: &stressed,
			PortfolioSize:       100,
			TrialCount:          50,
			Alpha:               0.05,
			ReturnType:          "net",
		},
		MaxTrialCount: maxTrials,
	})

	return &testServer{handler: srv.Handler(), runs: runs, trials: trials}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createComparison(t *testing.T, body string) ComparisonResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/comparisons", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ComparisonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.do(t, http.MethodGet, "/healthz", "")

	rec := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mortgage_stress_lab_http_requests_total")
}

func TestCreateComparison_Defaults(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.createComparison(t, `{"seed": 42}`)
	require.Len(t, resp.Runs, 2)
	assert.Len(t, resp.ComparisonID, 64)
	assert.Equal(t, "net", resp.ReturnType)
	assert.Nil(t, resp.Distribution)

	normal, stressed := resp.Runs[0], resp.Runs[1]
	assert.Equal(t, "normal", normal.Scenario)
	assert.Equal(t, 98, normal.PaidDraws)
	assert.Nil(t, normal.ValueAtRisk)

	assert.Equal(t, "stressed", stressed.Scenario)
	assert.Equal(t, 10, stressed.DefaultedDraws)
	require.NotNil(t, stressed.ValueAtRisk)
	assert.InDelta(t, -210_000, *stressed.ValueAtRisk, 1e-6)
	require.NotNil(t, stressed.Seed)
	assert.Equal(t, uint64(43), *stressed.Seed)

	stored, err := ts.runs.GetByComparison(context.Background(), resp.ComparisonID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCreateComparison_Overrides(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.createComparison(t, `{
		"use_empirical_rate": true,
		"stressed_default_rate": 0.5,
		"portfolio_size": 10,
		"trial_count": 20,
		"return_type": "percentage",
		"seed": 1,
		"distribution": true
	}`)

	require.Len(t, resp.Runs, 2)
	assert.Equal(t, 0.1, resp.Runs[0].DefaultRate)
	assert.Equal(t, 1, resp.Runs[0].DefaultedDraws)
	assert.Equal(t, 0.5, resp.Runs[1].DefaultRate)
	assert.Equal(t, 5, resp.Runs[1].DefaultedDraws)
	assert.Equal(t, 20, resp.Runs[1].TrialCount)
	assert.Equal(t, "percentage", resp.ReturnType)

	// uniform cohorts produce constant series, which have no distribution
	require.Contains(t, resp.Distribution, "normal")
	assert.Nil(t, resp.Distribution["normal"])
}

func TestCreateComparison_Validation(t *testing.T) {
	ts := newTestServer(t, 100)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"seed":`, http.StatusBadRequest},
		{"zero portfolio", `{"portfolio_size": 0}`, http.StatusBadRequest},
		{"too many trials", `{"trial_count": 101}`, http.StatusBadRequest},
		{"rate out of range", `{"stressed_default_rate": 1.5}`, http.StatusBadRequest},
		{"bad alpha", `{"alpha": 1}`, http.StatusBadRequest},
		{"bad return type", `{"return_type": "gross"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/comparisons", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestCreateComparison_DuplicateRun(t *testing.T) {
	ts := newTestServer(t, 0)

	ts.createComparison(t, `{"seed": 5}`)
	rec := ts.do(t, http.MethodPost, "/api/v1/comparisons", `{"seed": 5}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunsAndComparisonLookups(t *testing.T) {
	ts := newTestServer(t, 0)
	created := ts.createComparison(t, `{"seed": 9}`)

	rec := ts.do(t, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs  []RunResponse `json:"runs"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	runID := created.Runs[1].RunID
	rec = ts.do(t, http.MethodGet, "/api/v1/runs/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, created.Runs[1], run)

	rec = ts.do(t, http.MethodGet, "/api/v1/runs/"+runID+"/trials.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 51) // header + 50 trials

	rec = ts.do(t, http.MethodGet, "/api/v1/comparisons/"+created.ComparisonID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp ComparisonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, created.ComparisonID, cmp.ComparisonID)
	assert.Len(t, cmp.Runs, 2)

	rec = ts.do(t, http.MethodGet, "/api/v1/comparisons/"+created.ComparisonID+"/report.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "| VaR |")
	assert.Contains(t, rec.Body.String(), "None")
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, 0)

	for _, path := range []string{
		"/api/v1/runs/missing",
		"/api/v1/runs/missing/trials.csv",
		"/api/v1/comparisons/missing",
		"/api/v1/comparisons/missing/report.md",
	} {
		rec := ts.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestGetDataset(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodGet, "/api/v1/dataset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"loans": 10, "paid_loans": 9, "defaulted_loans": 1,
		"default_rate": 0.1, "total_upb": 1000000, "vintages": [2020]
	}`, rec.Body.String())
}
