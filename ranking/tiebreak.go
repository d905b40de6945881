// Package ranking orders a category's players or pairs and computes the
// statistics shown next to them.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used for name comparison when no locale is configured.
const DefaultLocale = "en"

// Ranker orders ranking entries. It is safe for concurrent use: a collator is
// created per call because collate.Collator keeps internal buffers.
type Ranker struct {
	tag language.Tag
}

func NewRanker(locale string) (*Ranker, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking locale %q: %w", locale, err)
	}
	return &Ranker{tag: tag}, nil
}

// RankEntries returns a sorted copy of entries with dense 1-based ranks.
// Order: points desc, last tournament date desc (missing date last),
// tournament count asc, name asc. Full ties keep their input order.
func (r *Ranker) RankEntries(entries []models.RankingEntry) []models.RankingEntry {
	out := make([]models.RankingEntry, len(entries))
	copy(out, entries)

	col := collate.New(r.tag)
	slices.SortStableFunc(out, func(a, b models.RankingEntry) int {
		return compareEntries(col, a, b)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func compareEntries(col *collate.Collator, a, b models.RankingEntry) int {
	if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
		return c
	}
	if c := compareRecency(a.LastTournamentDate, b.LastTournamentDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TournamentCount, b.TournamentCount); c != 0 {
		return c
	}
	return col.CompareString(a.EntityName, b.EntityName)
}

// compareRecency sorts more recent dates first; nil counts as the earliest date.
func compareRecency(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}
