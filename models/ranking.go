package models

import "time"

type EntityType string

const (
	EntityPlayer EntityType = "player"
	EntityPair   EntityType = "pair"
)

// EntityKey identifies a ranked entity. Player and pair ids come from
// different tables, so the id alone is ambiguous.
type EntityKey struct {
	Type EntityType
	ID   int
}

// RankingEntry is one player's or pair's standing in one category.
// Rank is assigned by the ranking engine and is not authoritative between recomputations.
type RankingEntry struct {
	CategoryID         int        `json:"category_id" db:"category_id"`
	EntityID           int        `json:"entity_id" db:"entity_id"`
	EntityType         EntityType `json:"entity_type" db:"entity_type"`
	EntityName         string     `json:"entity_name" db:"-"`
	TotalPoints        float64    `json:"total_points" db:"total_points"`
	Wins               int        `json:"wins" db:"wins"`
	Losses             int        `json:"losses" db:"losses"`
	LastTournamentDate *time.Time `json:"last_tournament_date,omitempty" db:"last_tournament_date"`
	TournamentCount    int        `json:"tournament_count" db:"tournament_count"`
	Rank               int        `json:"rank" db:"rank"`
}

func (e RankingEntry) Key() EntityKey { return EntityKey{Type: e.EntityType, ID: e.EntityID} }

// TournamentResult is the points one entity earned in one tournament.
type TournamentResult struct {
	ID            int        `json:"id" db:"id"`
	CategoryID    int        `json:"category_id" db:"category_id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	EntityID      int        `json:"entity_id" db:"entity_id"`
	EntityType    EntityType `json:"entity_type" db:"entity_type"`
	PointsAwarded float64    `json:"points_awarded" db:"points_awarded"`
	FinishedAt    time.Time  `json:"finished_at" db:"finished_at"`
}

func (r TournamentResult) Key() EntityKey { return EntityKey{Type: r.EntityType, ID: r.EntityID} }

// LeaderboardRow is a ranked entry enriched for display.
type LeaderboardRow struct {
	RankingEntry
	WinRate float64 `json:"win_rate"`
}
