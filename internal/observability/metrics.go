// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Dataset metrics
	LoansLoaded     *prometheus.CounterVec
	LoansImported   prometheus.Counter
	DatasetLoadTime prometheus.Histogram

	// Simulation metrics
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	TrialsSimulated    *prometheus.CounterVec
	UndefinedVaRTotal  *prometheus.CounterVec
	ComparisonsTotal   *prometheus.CounterVec
	ReportsGenerated   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mortgage_stress_lab"
	}

	return &Metrics{
		LoansLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loans_loaded_total",
			Help:      "Total number of loan records loaded by cohort",
		}, []string{"cohort"}),
		LoansImported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loans_imported_total",
			Help:      "Total number of loan records written to a loan store",
		}),
		DatasetLoadTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading and splitting the loan dataset",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		SimulationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of Monte Carlo runs by scenario and status",
		}, []string{"scenario", "status"}),
		SimulationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Monte Carlo run duration by scenario",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"scenario"}),
		TrialsSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of simulated portfolios by scenario",
		}, []string{"scenario"}),
		UndefinedVaRTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "undefined_var_total",
			Help:      "Runs whose alpha-quantile was not a loss",
		}, []string{"scenario"}),
		ComparisonsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "comparisons_total",
			Help:      "Total number of scenario comparisons by status",
		}, []string{"status"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of comparison reports written",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration by database and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLoansLoaded adds cohort sizes after a dataset split.
func RecordLoansLoaded(paid, defaulted int, durationSeconds float64) {
	DefaultMetrics.LoansLoaded.WithLabelValues("paid").Add(float64(paid))
	DefaultMetrics.LoansLoaded.WithLabelValues("defaulted").Add(float64(defaulted))
	DefaultMetrics.DatasetLoadTime.Observe(durationSeconds)
}

// RecordLoansImported increments the imported loans counter.
func RecordLoansImported(n int) {
	DefaultMetrics.LoansImported.Add(float64(n))
}

// RecordSimulation records a single scenario run.
func RecordSimulation(scenario, status string, trials int, durationSeconds float64) {
	DefaultMetrics.SimulationsTotal.WithLabelValues(scenario, status).Inc()
	DefaultMetrics.SimulationDuration.WithLabelValues(scenario).Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.TrialsSimulated.WithLabelValues(scenario).Add(float64(trials))
	}
}

// RecordUndefinedVaR counts a run whose value-at-risk was undefined.
func RecordUndefinedVaR(scenario string) {
	DefaultMetrics.UndefinedVaRTotal.WithLabelValues(scenario).Inc()
}

// RecordComparison records a finished scenario comparison.
func RecordComparison(status string) {
	DefaultMetrics.ComparisonsTotal.WithLabelValues(status).Inc()
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest counts one API request.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}
