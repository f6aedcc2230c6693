package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Histogram(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(99 - i)
	}

	d, err := Summarize(series, 10)
	require.NoError(t, err)

	require.Len(t, d.Bins, 10)
	assert.Equal(t, 100, d.Samples)
	assert.Equal(t, 0.0, d.Min)
	assert.Equal(t, 99.0, d.Max)
	assert.InDelta(t, 49.5, d.Mean, 1e-12)
	assert.InDelta(t, 49.5, d.Median, 1e-12)

	total := 0
	area := 0.0
	for _, b := range d.Bins {
		total += b.Count
		area += b.Density * (b.Upper - b.Lower)
	}
	assert.Equal(t, 100, total)
	assert.InDelta(t, 1.0, area, 1e-9)
	assert.Equal(t, 0.0, d.Bins[0].Lower)
	assert.Equal(t, 99.0, d.Bins[9].Upper)
}

func TestSummarize_NormalFit(t *testing.T) {
	d, err := Summarize([]float64{-2, -1, 0, 1, 2}, 4)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, d.Fit.Mu, 1e-12)
	// population variance = 10/5 = 2
	assert.InDelta(t, 1.4142135623730951, d.Fit.Sigma, 1e-12)
	require.Len(t, d.Fit.Curve, DefaultCurvePoints)
	assert.Equal(t, -2.0, d.Fit.Curve[0].X)
	assert.Equal(t, 2.0, d.Fit.Curve[DefaultCurvePoints-1].X)
	for _, p := range d.Fit.Curve {
		assert.Greater(t, p.Density, 0.0)
	}
}

func TestSummarize_DefaultBins(t *testing.T) {
	d, err := Summarize([]float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	assert.Len(t, d.Bins, DefaultHistogramBins)
}

func TestSummarize_Degenerate(t *testing.T) {
	_, err := Summarize([]float64{3, 3, 3}, 10)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Summarize([]float64{3}, 10)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}
