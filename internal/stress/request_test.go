package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/domain"
)

func TestRequestFromConfig(t *testing.T) {
	normal, stressed, seed := 0.03, 0.15, uint64(99)
	req := RequestFromConfig(config.SimulationConfig{
		NormalDefaultRate:   &normal,
		StressedDefaultRate: &stressed,
		PortfolioSize:       500,
		TrialCount:          2000,
		Alpha:               0.01,
		ReturnType:          "percentage",
		Seed:                &seed,
	})

	require.Len(t, req.Scenarios, 2)
	assert.Equal(t, domain.ScenarioNormal, req.Scenarios[0].Name)
	assert.Equal(t, 0.03, *req.Scenarios[0].DefaultRate)
	assert.Equal(t, domain.ScenarioStressed, req.Scenarios[1].Name)
	assert.Equal(t, 0.15, *req.Scenarios[1].DefaultRate)
	assert.Equal(t, 500, req.PortfolioSize)
	assert.Equal(t, 2000, req.TrialCount)
	assert.Equal(t, 0.01, req.Alpha)
	assert.Equal(t, domain.ReturnTypePercentage, req.ReturnType)
	require.NotNil(t, req.Seed)
	assert.Equal(t, uint64(99), *req.Seed)

	seed = 1
	assert.Equal(t, uint64(99), *req.Seed, "seed must be copied")
}

func TestRequestFromConfig_ZeroValuesKeepDefaults(t *testing.T) {
	req := RequestFromConfig(config.SimulationConfig{})

	def := DefaultRequest()
	assert.Equal(t, def.PortfolioSize, req.PortfolioSize)
	assert.Equal(t, def.TrialCount, req.TrialCount)
	assert.Equal(t, def.Alpha, req.Alpha)
	assert.Equal(t, def.ReturnType, req.ReturnType)
	assert.Nil(t, req.Seed)
	assert.Nil(t, req.Scenarios[0].DefaultRate)
	assert.Nil(t, req.Scenarios[1].DefaultRate)
}

func TestIsPresetPortfolioSize(t *testing.T) {
	assert.True(t, IsPresetPortfolioSize(1000))
	assert.True(t, IsPresetPortfolioSize(10000))
	assert.False(t, IsPresetPortfolioSize(750))
}
