package ranking

import (
	"math"
	"slices"

	"github.com/Dosada05/tennis-tournament/models"
)

// DefaultSeedingTopN is how many best tournament results count toward seeding.
const DefaultSeedingTopN = 7

// WinRate is wins/(wins+losses) rounded to three decimals, 0 when nothing was played.
func WinRate(wins, losses int) float64 {
	played := wins + losses
	if played <= 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(played)*1000) / 1000
}

// SeedingScore sums the topN highest PointsAwarded values. topN <= 0 means DefaultSeedingTopN.
func SeedingScore(results []models.TournamentResult, topN int) float64 {
	if topN <= 0 {
		topN = DefaultSeedingTopN
	}
	points := make([]float64, len(results))
	for i, r := range results {
		points[i] = r.PointsAwarded
	}
	slices.SortFunc(points, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})

	var sum float64
	for _, p := range points[:min(topN, len(points))] {
		sum += p
	}
	return sum
}

// ApplyTournamentResult adds one tournament's points to an entry.
func ApplyTournamentResult(entry models.RankingEntry, result models.TournamentResult) models.RankingEntry {
	entry.TotalPoints += result.PointsAwarded
	entry.TournamentCount++
	if entry.LastTournamentDate == nil || result.FinishedAt.After(*entry.LastTournamentDate) {
		finished := result.FinishedAt
		entry.LastTournamentDate = &finished
	}
	return entry
}

// ApplyMatchOutcome increments wins for the winner and losses for the loser.
func ApplyMatchOutcome(winner, loser models.RankingEntry) (models.RankingEntry, models.RankingEntry) {
	winner.Wins++
	loser.Losses++
	return winner, loser
}
