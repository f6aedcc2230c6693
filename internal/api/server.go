// Package api exposes scenario comparisons over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/dataset"
	"mortgage-stress-lab/internal/observability"
	"mortgage-stress-lab/internal/reporting"
	"mortgage-stress-lab/internal/storage"
	"mortgage-stress-lab/internal/stress"
)

// Options for creating a Server.
type Options struct {
	Engine     *stress.Engine           // required
	RunStore   storage.ScenarioRunStore // required
	TrialStore storage.TrialStore       // optional; enables the trials export
	Dataset    *dataset.Summary         // optional; served at /api/v1/dataset

	Simulation    config.SimulationConfig // request defaults
	MaxTrialCount int                     // 0 = unlimited
	Logger        *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	engine        *stress.Engine
	runs          storage.ScenarioRunStore
	trials        storage.TrialStore
	generator     *reporting.Generator
	dataset       *dataset.Summary
	defaults      config.SimulationConfig
	maxTrialCount int
	logger        *zap.Logger
}

// New creates a new Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:        opts.Engine,
		runs:          opts.RunStore,
		trials:        opts.TrialStore,
		generator:     reporting.NewGenerator(opts.RunStore),
		dataset:       opts.Dataset,
		defaults:      opts.Simulation,
		maxTrialCount: opts.MaxTrialCount,
		logger:        logger,
	}
}

// Handler returns the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/dataset", s.getDataset)
	v1.POST("/comparisons", s.createComparison)
	v1.GET("/comparisons/:id", s.getComparison)
	v1.GET("/comparisons/:id/report.md", s.getComparisonMarkdown)
	v1.GET("/runs", s.listRuns)
	v1.GET("/runs/:id", s.getRun)
	v1.GET("/runs/:id/trials.csv", s.getRunTrials)

	return r
}

// observe records request metrics and logs each request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.RecordHTTPRequest(route, strconv.Itoa(status))
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
