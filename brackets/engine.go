package brackets

import (
	"strconv"
	"strings"
)

const (
	MinPlayers = 4
	MaxPlayers = 128
)

// BracketStructure describes the draw for one player count.
type BracketStructure struct {
	PlayerCount        int    `json:"player_count"`
	Pattern            string `json:"pattern"`
	PreliminaryMatches int    `json:"preliminary_matches"`
	Byes               int    `json:"byes"`
	BracketSize        int    `json:"bracket_size"`

	Layout Pattern `json:"-"`
}

// Engine answers bracket-structure queries from an injected template cache.
type Engine struct {
	cache *TemplateCache
}

func NewEngine(cache *TemplateCache) *Engine {
	return &Engine{cache: cache}
}

// GetBracketStructure validates playerCount, looks up its template and derives
// the match and bye counts from it. Calls have no side effects.
func (e *Engine) GetBracketStructure(playerCount int) (*BracketStructure, error) {
	if err := ValidatePlayerCount(playerCount); err != nil {
		return nil, err
	}
	p, ok, err := e.cache.Lookup(playerCount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &TemplateNotFoundError{PlayerCount: playerCount}
	}
	return &BracketStructure{
		PlayerCount:        playerCount,
		Pattern:            p.String(),
		PreliminaryMatches: p.PreliminaryMatches(),
		Byes:               p.Byes(),
		BracketSize:        BracketSize(playerCount),
		Layout:             p,
	}, nil
}

// ValidatePlayerCount rejects counts outside [MinPlayers, MaxPlayers].
func ValidatePlayerCount(playerCount int) error {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return &InvalidPlayerCountError{Value: playerCount}
	}
	return nil
}

// ParsePlayerCount converts raw request input ("16", " 7 ") into a validated count.
// Fractions, exponents and anything non-numeric are rejected.
func ParsePlayerCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidPlayerCountError{Raw: raw}
	}
	if err := ValidatePlayerCount(n); err != nil {
		return 0, err
	}
	return n, nil
}

// BracketSize is the smallest power of two that is >= playerCount.
func BracketSize(playerCount int) int {
	size := 1
	for size < playerCount {
		size <<= 1
	}
	return size
}
