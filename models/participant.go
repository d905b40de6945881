package models

import "strings"

// PairNameSeparator joins the member names of a doubles pair.
const PairNameSeparator = " / "

type Player struct {
	ID        int     `json:"id" db:"id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Nickname  *string `json:"nickname,omitempty" db:"nickname"`
}

func (p *Player) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Pair is a doubles team of two players.
type Pair struct {
	ID      int     `json:"id" db:"id"`
	Player1 *Player `json:"player1" db:"-"`
	Player2 *Player `json:"player2" db:"-"`
}

func (p *Pair) DisplayName() string {
	if p == nil {
		return ""
	}
	return PairName(p.Player1.DisplayName(), p.Player2.DisplayName())
}

// PairName builds the single comparable name of a pair.
func PairName(first, second string) string {
	return first + PairNameSeparator + second
}

// Entrant is a confirmed participant of a draw (player or pair).
type Entrant struct {
	EntityID     int        `json:"entity_id"`
	EntityType   EntityType `json:"entity_type"`
	Name         string     `json:"name"`
	SeedingScore float64    `json:"seeding_score"`
}

func (e Entrant) Key() EntityKey { return EntityKey{Type: e.EntityType, ID: e.EntityID} }
