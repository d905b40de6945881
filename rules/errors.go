package rules

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/failures"
	"github.com/Dosada05/tennis-tournament/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrInvalidTransition = errors.New("invalid match status transition")
	ErrAlreadyCompleted  = errors.New("match already completed")
	ErrSnapshotMissing   = errors.New("completed match has no rule snapshot")
)

type MatchNotFoundError struct {
	MatchID int
}

func (e *MatchNotFoundError) Error() string {
	return fmt.Sprintf("match %d not found", e.MatchID)
}

func (e *MatchNotFoundError) Kind() failures.Kind { return failures.KindMatchNotFound }

func (e *MatchNotFoundError) Is(target error) bool { return target == ErrMatchNotFound }

type InvalidTransitionError struct {
	MatchID int
	From    models.MatchStatus
	To      models.MatchStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("match %d: cannot move from %s to %s", e.MatchID, e.From, e.To)
}

func (e *InvalidTransitionError) Kind() failures.Kind { return failures.KindInvalidTransition }

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type AlreadyCompletedError struct {
	MatchID int
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("match %d is already completed", e.MatchID)
}

func (e *AlreadyCompletedError) Kind() failures.Kind { return failures.KindAlreadyCompleted }

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// SnapshotMissingError means a completed match was stored without its rule snapshot.
// Completion writes both atomically, so this is a data-integrity fault.
type SnapshotMissingError struct {
	MatchID int
}

func (e *SnapshotMissingError) Error() string {
	return fmt.Sprintf("match %d is completed but has no rule snapshot", e.MatchID)
}

func (e *SnapshotMissingError) Kind() failures.Kind { return failures.KindSnapshotMissing }

func (e *SnapshotMissingError) Is(target error) bool { return target == ErrSnapshotMissing }
