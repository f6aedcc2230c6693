package simulation

import "math"

// SplitDraws returns the per-portfolio draw counts for a default rate.
// defaulted = floor(portfolioSize * defaultRate), paid = portfolioSize - defaulted,
// so paid + defaulted == portfolioSize for every rate in [0,1].
func SplitDraws(portfolioSize int, defaultRate float64) (paid, defaulted int) {
	defaulted = int(math.Floor(float64(portfolioSize) * defaultRate))
	if defaulted > portfolioSize {
		defaulted = portfolioSize
	}
	if defaulted < 0 {
		defaulted = 0
	}
	return portfolioSize - defaulted, defaulted
}
