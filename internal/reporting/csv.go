package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"mortgage-stress-lab/internal/domain"
	"mortgage-stress-lab/internal/metrics"
)

// RenderMetricsCSV renders one row per scenario. Undefined VaR/ES are empty fields.
func RenderMetricsCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("comparison_id,scenario,run_id,default_rate,portfolio_size,trial_count,paid_draws,defaulted_draws,")
	sb.WriteString("return_type,alpha,seed,value_at_risk,expected_shortfall,volatility,skewness,kurtosis,mean_return\n")

	// Rows
	for _, s := range r.Scenarios {
		seed := ""
		if s.Seed != nil {
			seed = strconv.FormatUint(*s.Seed, 10)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%d,%d,%d,%d,%s,%.4f,%s,%s,%s,%.6f,%.6f,%.6f,%.6f\n",
			r.ComparisonID,
			s.Scenario,
			s.RunID,
			s.DefaultRate,
			r.PortfolioSize,
			r.TrialCount,
			s.PaidDraws,
			s.DefaultedDraws,
			r.ReturnType,
			r.Alpha,
			seed,
			optionalField(s.ValueAtRisk),
			optionalField(s.ExpectedShortfall),
			s.Volatility,
			s.Skewness,
			s.Kurtosis,
			s.MeanReturn,
		))
	}

	return sb.String()
}

// RenderHistogramCSV renders the density histogram of a distribution.
func RenderHistogramCSV(d *metrics.Distribution) string {
	var sb strings.Builder
	sb.WriteString("lower,upper,count,density\n")
	for _, b := range d.Bins {
		sb.WriteString(fmt.Sprintf("%.6f,%.6f,%d,%.10g\n", b.Lower, b.Upper, b.Count, b.Density))
	}
	return sb.String()
}

// RenderNormalFitCSV renders the fitted normal density curve.
func RenderNormalFitCSV(d *metrics.Distribution) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# mu=%.6f sigma=%.6f\n", d.Fit.Mu, d.Fit.Sigma))
	sb.WriteString("x,density\n")
	for _, p := range d.Fit.Curve {
		sb.WriteString(fmt.Sprintf("%.6f,%.10g\n", p.X, p.Density))
	}
	return sb.String()
}

// RenderTrialsCSV renders every simulated portfolio of a result.
func RenderTrialsCSV(result *domain.SimulationResult) string {
	var sb strings.Builder
	sb.Grow(48 * (result.Trials() + 1))
	sb.WriteString("trial,total_investment,total_net,percentage_return\n")
	for i := 0; i < result.Trials(); i++ {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(result.TotalInvestment[i], 'f', 2, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(result.TotalNet[i], 'f', 2, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(result.PercentageReturn[i], 'g', 10, 64))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func optionalField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
