package brackets

import (
	"errors"
	"fmt"
	"strings"
)

// Slot is one second-round position of a draw.
type Slot uint8

const (
	// SlotMatch is filled by the winner of a preliminary match (two entrants).
	SlotMatch Slot = 0
	// SlotBye is filled by one entrant who advances without playing.
	SlotBye Slot = 1
)

// displayGroup is the group width used when a pattern is rendered without
// a grouping taken from its source text.
const displayGroup = 4

// Pattern is the bye/preliminary-match layout of a draw. The display grouping
// of the source text is kept so that String round-trips it unchanged.
type Pattern struct {
	slots  []Slot
	groups []int
}

// NewPattern builds a pattern from slots with the default display grouping.
func NewPattern(slots []Slot) Pattern {
	s := make([]Slot, len(slots))
	copy(s, slots)
	return Pattern{slots: s, groups: defaultGroups(len(s))}
}

// ParsePattern reads the display form, e.g. "1110 0101". Groups are separated by
// single spaces; the grouping carries no meaning for the bits.
func ParsePattern(display string) (Pattern, error) {
	text := strings.TrimSpace(display)
	if text == "" {
		return Pattern{}, errors.New("pattern is empty")
	}
	var (
		slots  []Slot
		groups []int
	)
	for _, group := range strings.Split(text, " ") {
		if group == "" {
			return Pattern{}, fmt.Errorf("pattern %q: groups must be separated by a single space", display)
		}
		for i, r := range group {
			switch r {
			case '0':
				slots = append(slots, SlotMatch)
			case '1':
				slots = append(slots, SlotBye)
			default:
				return Pattern{}, fmt.Errorf("pattern %q: unexpected character %q at group offset %d", display, r, i)
			}
		}
		groups = append(groups, len(group))
	}
	return Pattern{slots: slots, groups: groups}, nil
}

// MustParsePattern is ParsePattern for literals known to be valid.
func MustParsePattern(display string) Pattern {
	p, err := ParsePattern(display)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the pattern with its display grouping.
func (p Pattern) String() string {
	if len(p.slots) == 0 {
		return ""
	}
	groups := p.groups
	if len(groups) == 0 {
		groups = defaultGroups(len(p.slots))
	}
	var sb strings.Builder
	sb.Grow(len(p.slots) + len(groups))
	pos := 0
	for gi, size := range groups {
		if gi > 0 {
			sb.WriteByte(' ')
		}
		for _, s := range p.slots[pos : pos+size] {
			sb.WriteByte('0' + byte(s))
		}
		pos += size
	}
	return sb.String()
}

// Bits renders the pattern without separators.
func (p Pattern) Bits() string {
	var sb strings.Builder
	sb.Grow(len(p.slots))
	for _, s := range p.slots {
		sb.WriteByte('0' + byte(s))
	}
	return sb.String()
}

func (p Pattern) Len() int { return len(p.slots) }

func (p Pattern) At(i int) Slot { return p.slots[i] }

// Slots returns a copy of the slot sequence.
func (p Pattern) Slots() []Slot {
	s := make([]Slot, len(p.slots))
	copy(s, p.slots)
	return s
}

// Byes counts SlotBye positions.
func (p Pattern) Byes() int {
	n := 0
	for _, s := range p.slots {
		if s == SlotBye {
			n++
		}
	}
	return n
}

// PreliminaryMatches counts SlotMatch positions.
func (p Pattern) PreliminaryMatches() int {
	return len(p.slots) - p.Byes()
}

// Entrants is the number of players the pattern seats.
func (p Pattern) Entrants() int {
	return p.Byes() + 2*p.PreliminaryMatches()
}

// Equal compares slots and display grouping.
func (p Pattern) Equal(o Pattern) bool {
	return p.String() == o.String()
}

func defaultGroups(n int) []int {
	if n == 0 {
		return nil
	}
	groups := make([]int, 0, (n+displayGroup-1)/displayGroup)
	for n > 0 {
		size := min(n, displayGroup)
		groups = append(groups, size)
		n -= size
	}
	return groups
}
