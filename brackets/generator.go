package brackets

import (
	"context"

	"github.com/Dosada05/tennis-tournament/models"
)

type GenerateBracketParams struct {
	TournamentID int
	Entrants     []models.Entrant
	// Structure и Seeding нужны только для сетки на выбывание.
	Structure *BracketStructure
	Seeding   *SeedingConfig
	// Legs: число кругов для группового этапа (1 или 2).
	Legs int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

type BracketMatch struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`

	Participant1ID *int `json:"participant1_id,omitempty"`
	Participant2ID *int `json:"participant2_id,omitempty"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty"`

	IsPlaceholder bool `json:"is_placeholder"`

	IsBye            bool `json:"is_bye"`
	ByeParticipantID *int `json:"bye_participant_id,omitempty"`
}
