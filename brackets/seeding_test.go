package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSeedingConfigBoundaries(t *testing.T) {
	tests := []struct {
		players    int
		wantSeeded int
		wantMin    int
		wantMax    int
	}{
		{4, 2, 4, 9},
		{9, 2, 4, 9},
		{10, 4, 10, 19},
		{19, 4, 10, 19},
		{20, 8, 20, 39},
		{39, 8, 20, 39},
		{40, 16, 40, 128},
		{128, 16, 40, 128},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d players", tt.players), func(t *testing.T) {
			got, err := GetSeedingConfig(tt.players)
			require.NoError(t, err)
			assert.Equal(t, &SeedingConfig{
				PlayerCount:   tt.players,
				SeededPlayers: tt.wantSeeded,
				Range:         RangeBounds{Min: tt.wantMin, Max: tt.wantMax},
			}, got)
		})
	}
}

func TestGetSeedingConfigInvalid(t *testing.T) {
	for _, n := range []int{0, 3, 129} {
		_, err := GetSeedingConfig(n)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount, "players=%d", n)
	}
}

func TestSeedingRangesCoverWholeDomain(t *testing.T) {
	ranges := SeedingRanges()
	require.NotEmpty(t, ranges)
	assert.Equal(t, MinPlayers, ranges[0].Min)
	assert.Equal(t, MaxPlayers, ranges[len(ranges)-1].Max)
	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].Max+1, ranges[i].Min, "gap or overlap before range %d", i)
	}

	for n := MinPlayers; n <= MaxPlayers; n++ {
		_, err := GetSeedingConfig(n)
		assert.NoError(t, err, "players=%d", n)
	}
}

func TestResolveSeedingMissingRange(t *testing.T) {
	broken := []SeedingRange{{Min: 4, Max: 9, SeededCount: 2}}

	_, err := resolveSeeding(12, broken)
	assert.ErrorIs(t, err, ErrSeedingConfigNotFound)
	assert.NotErrorIs(t, err, ErrInvalidPlayerCount)
}

func TestGetSeedingConfigIdempotent(t *testing.T) {
	a, err := GetSeedingConfig(25)
	require.NoError(t, err)
	b, err := GetSeedingConfig(25)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
