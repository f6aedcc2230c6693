// Package metrics computes tail-risk figures and descriptive moments over
// simulated portfolio return series.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mortgage-stress-lab/internal/domain"
)

// ComputeRiskMetrics calculates value-at-risk, expected shortfall, volatility,
// skewness and excess kurtosis for one return series.
// The input slice is not modified.
func ComputeRiskMetrics(series []float64, alpha float64) (*domain.RiskMetrics, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	sorted, err := sortedCopy(series)
	if err != nil {
		return nil, err
	}
	n := len(sorted)
	if n < 2 {
		return nil, fmt.Errorf("%w: volatility needs at least 2 samples, got %d", ErrDegenerateInput, n)
	}

	mean := stat.Mean(sorted, nil)
	skew, kurt := standardizedMoments(sorted, mean)

	m := &domain.RiskMetrics{
		Alpha:      alpha,
		Volatility: stat.StdDev(sorted, nil),
		Skewness:   skew,
		Kurtosis:   kurt,
		Mean:       mean,
		Samples:    n,
	}

	if v := Quantile(sorted, alpha); v < 0 {
		es := tailMean(sorted, v)
		m.ValueAtRisk = &v
		m.ExpectedShortfall = &es
	}

	return m, nil
}

// ValueAtRisk returns the alpha-quantile of series, or nil when it is not a loss.
func ValueAtRisk(series []float64, alpha float64) (*float64, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	sorted, err := sortedCopy(series)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrDegenerateInput)
	}
	v := Quantile(sorted, alpha)
	if v >= 0 {
		return nil, nil
	}
	return &v, nil
}

// ExpectedShortfall returns the mean of all values at or below the value-at-risk,
// or nil when value-at-risk is undefined.
func ExpectedShortfall(series []float64, alpha float64) (*float64, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	sorted, err := sortedCopy(series)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrDegenerateInput)
	}
	v := Quantile(sorted, alpha)
	if v >= 0 {
		return nil, nil
	}
	es := tailMean(sorted, v)
	return &es, nil
}

// Volatility returns the sample standard deviation (n-1 denominator).
func Volatility(series []float64) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("%w: volatility needs at least 2 samples, got %d", ErrDegenerateInput, len(series))
	}
	if err := checkFinite(series); err != nil {
		return 0, err
	}
	return stat.StdDev(series, nil), nil
}

// Quantile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC.
// p is the probability (0.05 = 5th percentile).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for quantile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	if frac == 0 {
		return sorted[lower]
	}
	diff := sorted[upper] - sorted[lower]
	if math.IsInf(diff, 0) {
		// Neighbours too far apart to subtract; weight them instead
		return (1-frac)*sorted[lower] + frac*sorted[upper]
	}
	return sorted[lower] + frac*diff
}

// tailMean averages every value <= threshold. sorted must be ASC and
// threshold must be >= sorted[0], which holds for any interpolated quantile.
func tailMean(sorted []float64, threshold float64) float64 {
	k := sort.Search(len(sorted), func(i int) bool { return sorted[i] > threshold })
	sum := 0.0
	for _, v := range sorted[:k] {
		sum += v
	}
	return sum / float64(k)
}

// standardizedMoments returns population skewness and excess kurtosis.
// A constant series has no spread to standardize by; both are reported as 0.
func standardizedMoments(x []float64, mean float64) (skew, kurt float64) {
	m2 := stat.MomentAbout(2, x, mean, nil)
	if m2 == 0 {
		return 0, 0
	}
	m3 := stat.MomentAbout(3, x, mean, nil)
	m4 := stat.MomentAbout(4, x, mean, nil)
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	return nil
}

func sortedCopy(series []float64) ([]float64, error) {
	if err := checkFinite(series); err != nil {
		return nil, err
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	return sorted, nil
}

func checkFinite(series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrDegenerateInput, i)
		}
	}
	return nil
}
