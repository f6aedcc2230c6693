package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mortgage-stress-lab/internal/domain"
)

// Undefined is printed in place of a value-at-risk or expected shortfall
// that does not represent a loss.
const Undefined = "None"

// FormatMetric renders a metric with two decimals.
func FormatMetric(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatOptional renders an optional metric, using Undefined for nil.
func FormatOptional(v *float64) string {
	if v == nil {
		return Undefined
	}
	return FormatMetric(*v)
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Portfolio Stress Test\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Comparison: `%s`\n\n", r.ComparisonID))
	sb.WriteString(fmt.Sprintf("%s | Portfolio size: %d | Trials: %d | Confidence: %s%%\n\n",
		domain.ReturnType(r.ReturnType).Title(), r.PortfolioSize, r.TrialCount,
		strconv.FormatFloat((1-r.Alpha)*100, 'f', -1, 64)))

	// Dataset
	if r.Dataset != nil {
		sb.WriteString("## Dataset\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Loans | %d |\n", r.Dataset.Loans))
		sb.WriteString(fmt.Sprintf("| Paid Loans | %d |\n", r.Dataset.PaidLoans))
		sb.WriteString(fmt.Sprintf("| Defaulted Loans | %d |\n", r.Dataset.DefaultedLoans))
		sb.WriteString(fmt.Sprintf("| Empirical Default Rate | %.4f |\n", r.Dataset.DefaultRate))
		sb.WriteString(fmt.Sprintf("| Total Origination UPB | %.2f |\n", r.Dataset.TotalUPB))
		sb.WriteString(fmt.Sprintf("| Vintages | %s |\n", joinInts(r.Dataset.Vintages)))
		sb.WriteString("\n")
	}

	// Scenarios
	sb.WriteString("## Scenarios\n\n")
	if len(r.Scenarios) == 0 {
		sb.WriteString("No scenarios available.\n\n")
		return sb.String()
	}
	sb.WriteString("| Scenario | Default Rate | Paid Draws | Defaulted Draws | Seed | Mean |\n")
	sb.WriteString("|----------|--------------|------------|-----------------|------|------|\n")
	for _, s := range r.Scenarios {
		seed := "-"
		if s.Seed != nil {
			seed = strconv.FormatUint(*s.Seed, 10)
		}
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %d | %d | %s | %s |\n",
			s.Scenario, s.DefaultRate, s.PaidDraws, s.DefaultedDraws, seed, FormatMetric(s.MeanReturn)))
	}
	sb.WriteString("\n")

	// Risk metrics: one row per metric, one column per scenario
	sb.WriteString("## Risk Metrics\n\n")
	sb.WriteString("| Metric |")
	for _, s := range r.Scenarios {
		sb.WriteString(" " + titleCase(s.Scenario) + " |")
	}
	sb.WriteString("\n|--------|")
	for range r.Scenarios {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	writeMetricRow(&sb, "VaR", r.Scenarios, func(s ScenarioMetricRow) string { return FormatOptional(s.ValueAtRisk) })
	writeMetricRow(&sb, "ES", r.Scenarios, func(s ScenarioMetricRow) string { return FormatOptional(s.ExpectedShortfall) })
	writeMetricRow(&sb, "Vol.", r.Scenarios, func(s ScenarioMetricRow) string { return FormatMetric(s.Volatility) })
	writeMetricRow(&sb, "Skew", r.Scenarios, func(s ScenarioMetricRow) string { return FormatMetric(s.Skewness) })
	writeMetricRow(&sb, "Kurt.", r.Scenarios, func(s ScenarioMetricRow) string { return FormatMetric(s.Kurtosis) })
	sb.WriteString("\n")

	// Glossary
	sb.WriteString("## Metric Definitions\n\n")
	sb.WriteString(fmt.Sprintf("- **VaR** (Value at Risk): the %s-quantile of simulated returns; %s when that quantile is not a loss.\n",
		strconv.FormatFloat(r.Alpha, 'f', -1, 64), Undefined))
	sb.WriteString("- **ES** (Expected Shortfall): the mean of all returns at or below VaR.\n")
	sb.WriteString("- **Vol.** (Volatility): sample standard deviation of returns.\n")
	sb.WriteString("- **Skew** (Skewness): asymmetry of the return distribution.\n")
	sb.WriteString("- **Kurt.** (Kurtosis): excess kurtosis; tail weight relative to a normal distribution.\n")

	return sb.String()
}

func writeMetricRow(sb *strings.Builder, label string, rows []ScenarioMetricRow, value func(ScenarioMetricRow) string) {
	sb.WriteString("| " + label + " |")
	for _, s := range rows {
		sb.WriteString(" " + value(s) + " |")
	}
	sb.WriteString("\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
