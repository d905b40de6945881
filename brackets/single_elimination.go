package brackets

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Dosada05/tennis-tournament/models"
)

type node struct {
	participantID  *int
	sourceMatchUID *string
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket lays out the whole knockout draw from the template pattern.
// The top Seeding.SeededPlayers entrants take the standard seed positions, so
// seeds 1 and 2 can meet only in the final and seeds 1-4 only in the semifinals.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	structure := params.Structure
	if structure == nil {
		return nil, errors.New("single elimination requires a bracket structure")
	}
	if len(params.Entrants) != structure.PlayerCount {
		return nil, fmt.Errorf("bracket for %d players got %d entrants", structure.PlayerCount, len(params.Entrants))
	}
	layout := structure.Layout
	if layout.Len() == 0 {
		p, err := ParsePattern(structure.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bracket structure pattern: %w", err)
		}
		layout = p
	}
	if layout.Entrants() != len(params.Entrants) {
		return nil, fmt.Errorf("pattern %q seats %d players, got %d", layout.String(), layout.Entrants(), len(params.Entrants))
	}

	seeding := params.Seeding
	if seeding == nil {
		var err error
		if seeding, err = GetSeedingConfig(structure.PlayerCount); err != nil {
			return nil, err
		}
	}

	slotEntrants := fillSlots(layout, SeedOrder(params.Entrants), seeding.SeededPlayers)

	matches := make([]*BracketMatch, 0, structure.BracketSize)
	roundNodes := make([]*node, 0, layout.Len())
	matchNo, byeNo := 0, 0

	// Первый раунд: предварительные матчи и свободные проходы.
	for i := 0; i < layout.Len(); i++ {
		ids := slotEntrants[i]
		if layout.At(i) == SlotBye {
			id := ids[0]
			byeNo++
			matches = append(matches, &BracketMatch{
				UID:              fmt.Sprintf("R1B%d", byeNo),
				Round:            1,
				OrderInRound:     i + 1,
				Participant1ID:   &id,
				IsBye:            true,
				ByeParticipantID: &id,
			})
			roundNodes = append(roundNodes, &node{participantID: &id})
			continue
		}
		p1, p2 := ids[0], ids[1]
		matchNo++
		uid := fmt.Sprintf("R1M%d", matchNo)
		matches = append(matches, &BracketMatch{
			UID:            uid,
			Round:          1,
			OrderInRound:   i + 1,
			Participant1ID: &p1,
			Participant2ID: &p2,
		})
		roundNodes = append(roundNodes, &node{sourceMatchUID: &uid})
	}

	for round := 2; len(roundNodes) > 1; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := make([]*node, 0, len(roundNodes)/2)
		for i := 0; i < len(roundNodes); i += 2 {
			uid := fmt.Sprintf("R%dM%d", round, i/2+1)
			bm := &BracketMatch{UID: uid, Round: round, OrderInRound: i/2 + 1}
			bm.Participant1ID, bm.SourceMatch1UID = roundNodes[i].participantID, roundNodes[i].sourceMatchUID
			bm.Participant2ID, bm.SourceMatch2UID = roundNodes[i+1].participantID, roundNodes[i+1].sourceMatchUID
			bm.IsPlaceholder = bm.SourceMatch1UID != nil || bm.SourceMatch2UID != nil
			matches = append(matches, bm)
			next = append(next, &node{sourceMatchUID: &uid})
		}
		roundNodes = next
	}

	slices.SortStableFunc(matches, func(a, b *BracketMatch) int {
		if c := cmp.Compare(a.Round, b.Round); c != 0 {
			return c
		}
		return cmp.Compare(a.OrderInRound, b.OrderInRound)
	})
	return matches, nil
}

// SeedOrder sorts entrants by seeding score (best first), then by name and id.
func SeedOrder(entrants []models.Entrant) []models.Entrant {
	ordered := make([]models.Entrant, len(entrants))
	copy(ordered, entrants)
	slices.SortStableFunc(ordered, func(a, b models.Entrant) int {
		if c := cmp.Compare(b.SeedingScore, a.SeedingScore); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return ordered
}

// seedSlots returns the first-round slot of every seed, best seed first.
// At each split the seeds of a region go to its halves in standard order
// (1 and 4 together, 2 and 3 together, and so on); the half with the region's
// best seed is the one with more bye slots, the upper one on a tie.
func seedSlots(layout Pattern, seeded int) []int {
	seeded = min(seeded, layout.Len())
	slots := make([]int, seeded)

	byesIn := func(lo, hi int) int {
		n := 0
		for i := lo; i < hi; i++ {
			if layout.At(i) == SlotBye {
				n++
			}
		}
		return n
	}

	var place func(lo, hi int, seeds []int)
	place = func(lo, hi int, seeds []int) {
		if len(seeds) == 0 {
			return
		}
		if hi-lo == 1 {
			slots[seeds[0]] = lo
			return
		}
		mid := (lo + hi) / 2
		var withBest, rest []int
		for i, seed := range seeds {
			if i%4 == 0 || i%4 == 3 {
				withBest = append(withBest, seed)
			} else {
				rest = append(rest, seed)
			}
		}
		if byesIn(mid, hi) > byesIn(lo, mid) {
			place(mid, hi, withBest)
			place(lo, mid, rest)
			return
		}
		place(lo, mid, withBest)
		place(mid, hi, rest)
	}

	seeds := make([]int, seeded)
	for i := range seeds {
		seeds[i] = i
	}
	place(0, layout.Len(), seeds)
	return slots
}

// fillSlots seats ordered entrants into the first-round slots: seeds at their
// positions, free byes to the best unseeded, seeds without a bye against the
// weakest remaining, then strongest against weakest for the other matches.
func fillSlots(layout Pattern, ordered []models.Entrant, seeded int) [][]int {
	slots := make([][]int, layout.Len())
	positions := seedSlots(layout, min(seeded, len(ordered)))
	for seed, slot := range positions {
		slots[slot] = append(slots[slot], ordered[seed].EntityID)
	}

	queue := make([]int, 0, len(ordered)-len(positions))
	for _, e := range ordered[len(positions):] {
		queue = append(queue, e.EntityID)
	}
	takeBest := func() int {
		id := queue[0]
		queue = queue[1:]
		return id
	}
	takeWeakest := func() int {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		return id
	}

	for i := range slots {
		if layout.At(i) == SlotBye && len(slots[i]) == 0 {
			slots[i] = append(slots[i], takeBest())
		}
	}
	for _, slot := range positions {
		if layout.At(slot) == SlotMatch {
			slots[slot] = append(slots[slot], takeWeakest())
		}
	}
	for i := range slots {
		if layout.At(i) == SlotMatch && len(slots[i]) == 0 {
			slots[i] = append(slots[i], takeBest(), takeWeakest())
		}
	}
	return slots
}
