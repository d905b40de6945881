package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCanceled
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusInProgress, MatchStatusCompleted, MatchStatusCanceled:
		return true
	}
	return false
}

// Group is a round-robin group of a tournament.
type Group struct {
	ID            int    `json:"id" db:"id"`
	TournamentID  int    `json:"tournament_id" db:"tournament_id"`
	Name          string `json:"name" db:"name"`
	RuleOverrides Rules  `json:"rule_overrides,omitempty" db:"rule_overrides"`
}

// Bracket is a knockout draw of a tournament.
type Bracket struct {
	ID            int    `json:"id" db:"id"`
	TournamentID  int    `json:"tournament_id" db:"tournament_id"`
	Name          string `json:"name" db:"name"`
	RuleOverrides Rules  `json:"rule_overrides,omitempty" db:"rule_overrides"`
}

type Round struct {
	ID            int    `json:"id" db:"id"`
	TournamentID  int    `json:"tournament_id" db:"tournament_id"`
	BracketID     *int   `json:"bracket_id,omitempty" db:"bracket_id"`
	Number        int    `json:"number" db:"number"`
	Name          string `json:"name" db:"name"`
	RuleOverrides Rules  `json:"rule_overrides,omitempty" db:"rule_overrides"`

	Bracket *Bracket `json:"bracket,omitempty" db:"-"`
}

type Match struct {
	ID             int           `json:"id" db:"id"`
	TournamentID   int           `json:"tournament_id" db:"tournament_id"`
	CategoryID     int           `json:"category_id" db:"category_id"`
	EntityType     EntityType    `json:"entity_type" db:"entity_type"`
	GroupID        *int          `json:"group_id,omitempty" db:"group_id"`
	BracketID      *int          `json:"bracket_id,omitempty" db:"bracket_id"`
	RoundID        *int          `json:"round_id,omitempty" db:"round_id"`
	Side1EntityID  *int          `json:"side1_entity_id,omitempty" db:"side1_entity_id"`
	Side2EntityID  *int          `json:"side2_entity_id,omitempty" db:"side2_entity_id"`
	WinnerEntityID *int          `json:"winner_entity_id,omitempty" db:"winner_entity_id"`
	Score          *string       `json:"score,omitempty" db:"score"`
	Status         MatchStatus   `json:"status" db:"status"`
	RuleOverrides  Rules         `json:"rule_overrides,omitempty" db:"rule_overrides"`
	RuleSnapshot   *RuleSnapshot `json:"rule_snapshot,omitempty" db:"rule_snapshot"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	// Родительские сущности, загружаются репозиторием вместе с их переопределениями правил.
	Tournament *Tournament `json:"-" db:"-"`
	Group      *Group      `json:"-" db:"-"`
	Bracket    *Bracket    `json:"-" db:"-"`
	Round      *Round      `json:"-" db:"-"`
}

// MatchResult is what a caller reports when completing a match.
type MatchResult struct {
	WinnerEntityID int    `json:"winner_entity_id"`
	Score          string `json:"score"`
}
