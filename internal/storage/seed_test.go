package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRoundTrip(t *testing.T) {
	for _, seed := range []uint64{0, 1, 42, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		s := seed
		got := SeedFromInt64(SeedToInt64(&s))
		require.NotNil(t, got)
		assert.Equal(t, seed, *got)
	}

	assert.Nil(t, SeedToInt64(nil))
	assert.Nil(t, SeedFromInt64(nil))
}
