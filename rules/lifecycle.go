package rules

import (
	"slices"

	"github.com/Dosada05/tennis-tournament/models"
)

// Разрешённые переходы статуса матча. Завершённый и отменённый матчи финальны.
var allowedTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusScheduled:  {models.MatchStatusInProgress, models.MatchStatusCanceled},
	models.MatchStatusInProgress: {models.MatchStatusCompleted, models.MatchStatusCanceled},
	models.MatchStatusCompleted:  {},
	models.MatchStatusCanceled:   {},
}

// CheckTransition reports whether a match may move from one status to another.
// Completing a completed match yields AlreadyCompletedError, every other
// forbidden move yields InvalidTransitionError.
func CheckTransition(matchID int, from, to models.MatchStatus) error {
	if from == models.MatchStatusCompleted && to == models.MatchStatusCompleted {
		return &AlreadyCompletedError{MatchID: matchID}
	}
	if !slices.Contains(allowedTransitions[from], to) {
		return &InvalidTransitionError{MatchID: matchID, From: from, To: to}
	}
	return nil
}
