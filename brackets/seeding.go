package brackets

// SeedingRange maps an inclusive player-count range to the number of seeded entrants.
type SeedingRange struct {
	Min         int `json:"min"`
	Max         int `json:"max"`
	SeededCount int `json:"seeded_count"`
}

func (r SeedingRange) contains(n int) bool { return n >= r.Min && n <= r.Max }

// Ranges are contiguous and cover [MinPlayers, MaxPlayers] without overlap.
var seedingRanges = []SeedingRange{
	{Min: 4, Max: 9, SeededCount: 2},
	{Min: 10, Max: 19, SeededCount: 4},
	{Min: 20, Max: 39, SeededCount: 8},
	{Min: 40, Max: 128, SeededCount: 16},
}

type RangeBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type SeedingConfig struct {
	PlayerCount   int         `json:"player_count"`
	SeededPlayers int         `json:"seeded_players"`
	Range         RangeBounds `json:"range"`
}

// SeedingRanges returns a copy of the static range table.
func SeedingRanges() []SeedingRange {
	out := make([]SeedingRange, len(seedingRanges))
	copy(out, seedingRanges)
	return out
}

// GetSeedingConfig returns how many entrants are seeded in a draw of playerCount.
func GetSeedingConfig(playerCount int) (*SeedingConfig, error) {
	return resolveSeeding(playerCount, seedingRanges)
}

func resolveSeeding(playerCount int, ranges []SeedingRange) (*SeedingConfig, error) {
	if err := ValidatePlayerCount(playerCount); err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if r.contains(playerCount) {
			return &SeedingConfig{
				PlayerCount:   playerCount,
				SeededPlayers: r.SeededCount,
				Range:         RangeBounds{Min: r.Min, Max: r.Max},
			}, nil
		}
	}
	return nil, &SeedingConfigNotFoundError{PlayerCount: playerCount}
}
