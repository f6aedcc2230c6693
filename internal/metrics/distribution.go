package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Histogram and fitted-curve resolution.
const (
	DefaultHistogramBins = 64
	DefaultCurvePoints   = 128
)

// HistogramBin is one equal-width bin of a density histogram.
type HistogramBin struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// CurvePoint is one sample of a fitted probability density.
type CurvePoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// NormalFit is the maximum-likelihood normal approximation of a series.
type NormalFit struct {
	Mu    float64      `json:"mu"`
	Sigma float64      `json:"sigma"`
	Curve []CurvePoint `json:"curve"`
}

// Distribution summarizes the shape of a return series.
type Distribution struct {
	Samples int            `json:"samples"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	Mean    float64        `json:"mean"`
	Median  float64        `json:"median"`
	P10     float64        `json:"p10"`
	P25     float64        `json:"p25"`
	P75     float64        `json:"p75"`
	P90     float64        `json:"p90"`
	Bins    []HistogramBin `json:"bins"`
	Fit     NormalFit      `json:"fit"`
}

// Summarize builds a density histogram with the given number of bins and a
// normal fit sampled at DefaultCurvePoints points across [min, max].
func Summarize(series []float64, bins int) (*Distribution, error) {
	if bins < 1 {
		bins = DefaultHistogramBins
	}
	sorted, err := sortedCopy(series)
	if err != nil {
		return nil, err
	}
	n := len(sorted)
	if n < 2 {
		return nil, fmt.Errorf("%w: distribution needs at least 2 samples, got %d", ErrDegenerateInput, n)
	}
	lo, hi := sorted[0], sorted[n-1]
	if lo == hi {
		return nil, fmt.Errorf("%w: all %d samples equal %v", ErrDegenerateInput, n, lo)
	}

	mean := stat.Mean(sorted, nil)
	d := &Distribution{
		Samples: n,
		Min:     lo,
		Max:     hi,
		Mean:    mean,
		Median:  Quantile(sorted, 0.50),
		P10:     Quantile(sorted, 0.10),
		P25:     Quantile(sorted, 0.25),
		P75:     Quantile(sorted, 0.75),
		P90:     Quantile(sorted, 0.90),
		Bins:    histogram(sorted, lo, hi, bins),
	}

	// MLE sigma uses the population variance
	sigma := math.Sqrt(stat.MomentAbout(2, sorted, mean, nil))
	d.Fit = NormalFit{Mu: mean, Sigma: sigma, Curve: normalCurve(mean, sigma, lo, hi, DefaultCurvePoints)}

	return d, nil
}

func histogram(sorted []float64, lo, hi float64, bins int) []HistogramBin {
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram treats the last divider as exclusive
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	width := (hi - lo) / float64(bins)
	total := float64(len(sorted))

	out := make([]HistogramBin, bins)
	for i, c := range counts {
		out[i] = HistogramBin{
			Lower:   dividers[i],
			Upper:   dividers[i+1],
			Count:   int(c),
			Density: c / (total * width),
		}
	}
	out[bins-1].Upper = hi
	return out
}

func normalCurve(mu, sigma, lo, hi float64, points int) []CurvePoint {
	if sigma == 0 {
		return nil
	}
	dist := distuv.Normal{Mu: mu, Sigma: sigma}
	xs := make([]float64, points)
	floats.Span(xs, lo, hi)

	curve := make([]CurvePoint, points)
	for i, x := range xs {
		curve[i] = CurvePoint{X: x, Density: dist.Prob(x)}
	}
	return curve
}
