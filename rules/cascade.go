// Package rules resolves the scoring rules in effect for a match and freezes them
// when the match is completed.
//
// Rules are layered from the broadest scope to the narrowest:
//
//	tournament default -> group or bracket -> round -> match
//
// Each layer is a partial mapping; a later layer's key replaces an earlier one.
package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
)

// Source tells a caller whether resolved rules are live or frozen.
type Source string

const (
	// SourceCascade rules were folded from the current overrides and may still change.
	SourceCascade Source = "cascade"
	// SourceSnapshot rules were frozen at completion and never change.
	SourceSnapshot Source = "snapshot"
)

// Layer is one partial rule mapping taking part in a fold.
type Layer struct {
	Level     models.RuleLevel
	SourceID  int
	Overrides models.Rules
}

type Resolution struct {
	MatchID    int                  `json:"match_id"`
	Source     Source               `json:"source"`
	Rules      models.Rules         `json:"rules"`
	Cascade    []models.CascadeStep `json:"cascade"`
	CapturedAt *time.Time           `json:"captured_at,omitempty"`
}

var errParentsNotLoaded = errors.New("match tournament is not loaded")

// Fold merges layers left to right, last key wins. Every layer is recorded in the
// trace, including layers whose mapping is empty. Inputs are not modified.
func Fold(layers []Layer) (models.Rules, []models.CascadeStep) {
	merged := models.Rules{}
	steps := make([]models.CascadeStep, 0, len(layers))
	for _, layer := range layers {
		applied := layer.Overrides.Clone()
		if applied == nil {
			applied = models.Rules{}
		}
		for key, value := range applied.Clone() {
			merged[key] = value
		}
		steps = append(steps, models.CascadeStep{
			Level:     layer.Level,
			SourceID:  layer.SourceID,
			Overrides: applied,
		})
	}
	return merged, steps
}

// Layers lists the layers that apply to m, in fold order. The tournament layer is
// always present. At most one of group or bracket is used: the group, else the
// match's own bracket, else the bracket of the match's round.
func Layers(m *models.Match) ([]Layer, error) {
	if m.Tournament == nil {
		return nil, fmt.Errorf("match %d: %w", m.ID, errParentsNotLoaded)
	}

	layers := []Layer{{
		Level:     models.RuleLevelTournament,
		SourceID:  m.Tournament.ID,
		Overrides: m.Tournament.DefaultRules,
	}}

	switch {
	case m.Group != nil:
		layers = append(layers, Layer{Level: models.RuleLevelGroup, SourceID: m.Group.ID, Overrides: m.Group.RuleOverrides})
	case m.Bracket != nil:
		layers = append(layers, Layer{Level: models.RuleLevelBracket, SourceID: m.Bracket.ID, Overrides: m.Bracket.RuleOverrides})
	case m.Round != nil && m.Round.Bracket != nil:
		b := m.Round.Bracket
		layers = append(layers, Layer{Level: models.RuleLevelBracket, SourceID: b.ID, Overrides: b.RuleOverrides})
	}

	if m.Round != nil {
		layers = append(layers, Layer{Level: models.RuleLevelRound, SourceID: m.Round.ID, Overrides: m.Round.RuleOverrides})
	}
	if m.RuleOverrides != nil {
		layers = append(layers, Layer{Level: models.RuleLevelMatch, SourceID: m.ID, Overrides: m.RuleOverrides})
	}
	return layers, nil
}

// Resolve returns the rules in effect for m. A completed match returns its snapshot
// unchanged; any other match gets a fresh fold of its current layers. Resolve never
// modifies m.
func Resolve(m *models.Match) (*Resolution, error) {
	if m == nil {
		return nil, errors.New("nil match")
	}

	if m.Status == models.MatchStatusCompleted {
		if m.RuleSnapshot == nil {
			return nil, &SnapshotMissingError{MatchID: m.ID}
		}
		captured := m.RuleSnapshot.CapturedAt
		return &Resolution{
			MatchID:    m.ID,
			Source:     SourceSnapshot,
			Rules:      m.RuleSnapshot.Rules.Clone(),
			Cascade:    cloneSteps(m.RuleSnapshot.Cascade),
			CapturedAt: &captured,
		}, nil
	}

	layers, err := Layers(m)
	if err != nil {
		return nil, err
	}
	merged, steps := Fold(layers)
	return &Resolution{
		MatchID: m.ID,
		Source:  SourceCascade,
		Rules:   merged,
		Cascade: steps,
	}, nil
}

// Snapshot freezes a live resolution for the in_progress -> completed transition of m.
func Snapshot(m *models.Match, res *Resolution, at time.Time) (*models.RuleSnapshot, error) {
	if err := CheckTransition(m.ID, m.Status, models.MatchStatusCompleted); err != nil {
		return nil, err
	}
	if res == nil || res.Source != SourceCascade {
		return nil, fmt.Errorf("match %d: snapshot requires live cascade rules", m.ID)
	}
	if res.MatchID != m.ID {
		return nil, fmt.Errorf("match %d: rules were resolved for match %d", m.ID, res.MatchID)
	}
	return &models.RuleSnapshot{
		Rules:      res.Rules.Clone(),
		Cascade:    cloneSteps(res.Cascade),
		CapturedAt: at.UTC(),
	}, nil
}

func cloneSteps(steps []models.CascadeStep) []models.CascadeStep {
	if steps == nil {
		return nil
	}
	out := make([]models.CascadeStep, len(steps))
	for i, s := range steps {
		out[i] = models.CascadeStep{Level: s.Level, SourceID: s.SourceID, Overrides: s.Overrides.Clone()}
	}
	return out
}
