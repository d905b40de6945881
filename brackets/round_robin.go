package brackets

import (
	"context"
	"fmt"
	"sort"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates the matches of one round-robin group.
// With Legs == 2 every pairing is played twice with sides swapped.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entrants := params.Entrants
	if len(entrants) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough entrants (found %d, min 2 required)", len(entrants))
	}

	legs := params.Legs
	if legs != 2 {
		legs = 1 // по умолчанию один круг
	}

	pairings := len(entrants) * (len(entrants) - 1) / 2
	matches := make([]*BracketMatch, 0, pairings*legs)
	matchOrder := 0

	for i := 0; i < len(entrants); i++ {
		for j := i + 1; j < len(entrants); j++ {
			p1ID := entrants[i].EntityID
			p2ID := entrants[j].EntityID

			matchOrder++
			matches = append(matches, &BracketMatch{
				UID:            fmt.Sprintf("T%d_RRM%d_L1_P%dvsP%d", params.TournamentID, matchOrder, p1ID, p2ID),
				Round:          1,
				OrderInRound:   matchOrder,
				Participant1ID: &p1ID,
				Participant2ID: &p2ID,
			})

			if legs == 2 {
				matches = append(matches, &BracketMatch{
					UID:            fmt.Sprintf("T%d_RRM%d_L2_P%dvsP%d", params.TournamentID, matchOrder, p2ID, p1ID),
					Round:          2,
					OrderInRound:   matchOrder,
					Participant1ID: &p2ID,
					Participant2ID: &p1ID,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].OrderInRound < matches[j].OrderInRound
	})

	return matches, nil
}
