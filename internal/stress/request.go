package stress

import (
	"slices"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/domain"
)

// RequestFromConfig builds the normal-vs-stressed request described by cfg.
// A nil rate in cfg leaves the scenario on the dataset's empirical default rate.
func RequestFromConfig(cfg config.SimulationConfig) Request {
	req := DefaultRequest()
	req.Scenarios = []domain.ScenarioConfig{
		{Name: domain.ScenarioNormal, DefaultRate: cfg.NormalDefaultRate},
		{Name: domain.ScenarioStressed, DefaultRate: cfg.StressedDefaultRate},
	}
	if cfg.PortfolioSize > 0 {
		req.PortfolioSize = cfg.PortfolioSize
	}
	if cfg.TrialCount > 0 {
		req.TrialCount = cfg.TrialCount
	}
	if cfg.Alpha > 0 {
		req.Alpha = cfg.Alpha
	}
	if cfg.ReturnType != "" {
		req.ReturnType = domain.ReturnType(cfg.ReturnType)
	}
	if cfg.Seed != nil {
		seed := *cfg.Seed
		req.Seed = &seed
	}
	return req
}

// IsPresetPortfolioSize reports whether n is one of domain.PortfolioSizePresets.
// Other positive sizes are accepted; callers only log a warning.
func IsPresetPortfolioSize(n int) bool {
	return slices.Contains(domain.PortfolioSizePresets, n)
}
