package domain

// RiskMetrics holds tail-risk and moment figures for one return series.
// ValueAtRisk and ExpectedShortfall are nil when the alpha-quantile is not a loss.
type RiskMetrics struct {
	Alpha             float64
	ValueAtRisk       *float64
	ExpectedShortfall *float64
	Volatility        float64 // sample standard deviation (n-1)
	Skewness          float64 // population third standardized moment
	Kurtosis          float64 // population excess kurtosis (normal = 0)
	Mean              float64
	Samples           int
}

// HasLoss reports whether the alpha-quantile represents a loss.
func (m *RiskMetrics) HasLoss() bool {
	return m.ValueAtRisk != nil
}
