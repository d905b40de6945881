package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tennis-tournament/failures"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func tournament() *models.Tournament {
	return &models.Tournament{
		ID: 1,
		DefaultRules: models.Rules{
			models.RuleWinningSets: 2,
			models.RuleGamesPerSet: 6,
			models.RuleAdvantage:   "advantage",
			models.RuleTiebreakAt:  6,
		},
	}
}

func TestFoldLastLayerWins(t *testing.T) {
	merged, steps := Fold([]Layer{
		{Level: models.RuleLevelTournament, SourceID: 1, Overrides: models.Rules{"a": 1, "b": 1}},
		{Level: models.RuleLevelGroup, SourceID: 2, Overrides: models.Rules{"b": 2, "c": 2}},
		{Level: models.RuleLevelRound, SourceID: 3, Overrides: models.Rules{}},
		{Level: models.RuleLevelMatch, SourceID: 4, Overrides: models.Rules{"c": 4}},
	})

	assert.Equal(t, models.Rules{"a": 1, "b": 2, "c": 4}, merged)
	require.Len(t, steps, 4)
	assert.Equal(t, models.RuleLevelRound, steps[2].Level)
	assert.NotNil(t, steps[2].Overrides, "empty layers are still recorded")
	assert.Empty(t, steps[2].Overrides)
}

func TestFoldDoesNotShareState(t *testing.T) {
	base := models.Rules{"nested": map[string]any{"x": 1}}
	merged, steps := Fold([]Layer{{Level: models.RuleLevelTournament, Overrides: base}})

	merged["nested"].(map[string]any)["x"] = 99
	assert.Equal(t, 1, base["nested"].(map[string]any)["x"])
	assert.Equal(t, 1, steps[0].Overrides["nested"].(map[string]any)["x"])
}

func TestResolveLayerSelection(t *testing.T) {
	group := &models.Group{ID: 10, RuleOverrides: models.Rules{models.RuleGamesPerSet: 4}}
	bracket := &models.Bracket{ID: 20, RuleOverrides: models.Rules{models.RuleAdvantage: "no_ad"}}
	roundBracket := &models.Bracket{ID: 21, RuleOverrides: models.Rules{models.RuleTiebreakAt: 5}}
	round := &models.Round{ID: 30, BracketID: intPtr(21), Bracket: roundBracket, RuleOverrides: models.Rules{models.RuleWinningSets: 3}}

	type want struct {
		levels []models.RuleLevel
		ids    []int
		rules  models.Rules
	}
	tests := []struct {
		name  string
		match *models.Match
		want  want
	}{
		{
			name:  "tournament only",
			match: &models.Match{ID: 100, Tournament: tournament()},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament},
				ids:    []int{1},
				rules:  tournament().DefaultRules,
			},
		},
		{
			name:  "group match",
			match: &models.Match{ID: 101, Tournament: tournament(), GroupID: intPtr(10), Group: group},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament, models.RuleLevelGroup},
				ids:    []int{1, 10},
				rules: models.Rules{
					models.RuleWinningSets: 2, models.RuleGamesPerSet: 4,
					models.RuleAdvantage: "advantage", models.RuleTiebreakAt: 6,
				},
			},
		},
		{
			name:  "direct bracket beats round bracket",
			match: &models.Match{ID: 102, Tournament: tournament(), Bracket: bracket, Round: round},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament, models.RuleLevelBracket, models.RuleLevelRound},
				ids:    []int{1, 20, 30},
				rules: models.Rules{
					models.RuleWinningSets: 3, models.RuleGamesPerSet: 6,
					models.RuleAdvantage: "no_ad", models.RuleTiebreakAt: 6,
				},
			},
		},
		{
			name:  "round bracket used when match has no bracket",
			match: &models.Match{ID: 103, Tournament: tournament(), Round: round, RuleOverrides: models.Rules{models.RuleWinningSets: 1}},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament, models.RuleLevelBracket, models.RuleLevelRound, models.RuleLevelMatch},
				ids:    []int{1, 21, 30, 103},
				rules: models.Rules{
					models.RuleWinningSets: 1, models.RuleGamesPerSet: 6,
					models.RuleAdvantage: "advantage", models.RuleTiebreakAt: 5,
				},
			},
		},
		{
			name:  "group wins over round bracket",
			match: &models.Match{ID: 104, Tournament: tournament(), Group: group, Round: round},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament, models.RuleLevelGroup, models.RuleLevelRound},
				ids:    []int{1, 10, 30},
				rules: models.Rules{
					models.RuleWinningSets: 3, models.RuleGamesPerSet: 4,
					models.RuleAdvantage: "advantage", models.RuleTiebreakAt: 6,
				},
			},
		},
		{
			name:  "empty match override is still a layer",
			match: &models.Match{ID: 105, Tournament: tournament(), RuleOverrides: models.Rules{}},
			want: want{
				levels: []models.RuleLevel{models.RuleLevelTournament, models.RuleLevelMatch},
				ids:    []int{1, 105},
				rules:  tournament().DefaultRules,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.match)
			require.NoError(t, err)
			assert.Equal(t, SourceCascade, res.Source)
			assert.Nil(t, res.CapturedAt)

			var levels []models.RuleLevel
			var ids []int
			for _, s := range res.Cascade {
				levels = append(levels, s.Level)
				ids = append(ids, s.SourceID)
			}
			assert.Equal(t, tt.want.levels, levels)
			assert.Equal(t, tt.want.ids, ids)
			if diff := cmp.Diff(tt.want.rules, res.Rules); diff != "" {
				t.Errorf("Resolve() rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveTournamentWithoutDefaults(t *testing.T) {
	res, err := Resolve(&models.Match{ID: 1, Tournament: &models.Tournament{ID: 7}})
	require.NoError(t, err)
	assert.Equal(t, models.Rules{}, res.Rules)
	require.Len(t, res.Cascade, 1)
	assert.Equal(t, models.RuleLevelTournament, res.Cascade[0].Level)
}

func TestResolveIsIdempotentAndReadOnly(t *testing.T) {
	m := &models.Match{
		ID:            9,
		Status:        models.MatchStatusInProgress,
		Tournament:    tournament(),
		Group:         &models.Group{ID: 3, RuleOverrides: models.Rules{models.RuleGamesPerSet: 4}},
		RuleOverrides: models.Rules{models.RuleTiebreakPoints: 10},
	}
	before := *m

	first, err := Resolve(m)
	require.NoError(t, err)
	second, err := Resolve(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before.RuleOverrides, m.RuleOverrides)
	assert.Equal(t, tournament().DefaultRules, m.Tournament.DefaultRules)
	assert.Nil(t, m.RuleSnapshot)
}

func TestResolveRequiresTournament(t *testing.T) {
	_, err := Resolve(&models.Match{ID: 1})
	assert.Error(t, err)

	_, err = Resolve(nil)
	assert.Error(t, err)
}

func TestSnapshotFreezesRules(t *testing.T) {
	at := time.Date(2025, 7, 12, 15, 30, 0, 0, time.UTC)
	m := &models.Match{ID: 5, Status: models.MatchStatusInProgress, Tournament: tournament()}

	live, err := Resolve(m)
	require.NoError(t, err)
	snap, err := Snapshot(m, live, at)
	require.NoError(t, err)

	m.Status = models.MatchStatusCompleted
	m.RuleSnapshot = snap

	// Changing every ancestor afterwards must not leak into the completed match.
	m.Tournament.DefaultRules[models.RuleWinningSets] = 3
	m.Tournament.DefaultRules["new_rule"] = true
	m.Group = &models.Group{ID: 1, RuleOverrides: models.Rules{models.RuleGamesPerSet: 8}}
	m.RuleOverrides = models.Rules{models.RuleAdvantage: "no_ad"}

	frozen, err := Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, frozen.Source)
	require.NotNil(t, frozen.CapturedAt)
	assert.True(t, at.Equal(*frozen.CapturedAt))
	assert.Equal(t, live.Rules, frozen.Rules)
	assert.Equal(t, live.Cascade, frozen.Cascade)
}

func TestSnapshotRequiresInProgress(t *testing.T) {
	at := time.Now()
	tests := []struct {
		status models.MatchStatus
		want   error
	}{
		{models.MatchStatusScheduled, ErrInvalidTransition},
		{models.MatchStatusCanceled, ErrInvalidTransition},
		{models.MatchStatusCompleted, ErrAlreadyCompleted},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			m := &models.Match{ID: 1, Status: tt.status, Tournament: tournament()}
			res := &Resolution{MatchID: 1, Source: SourceCascade, Rules: models.Rules{}}
			_, err := Snapshot(m, res, at)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSnapshotRejectsForeignOrFrozenResolution(t *testing.T) {
	m := &models.Match{ID: 1, Status: models.MatchStatusInProgress}
	_, err := Snapshot(m, &Resolution{MatchID: 1, Source: SourceSnapshot}, time.Now())
	assert.Error(t, err)

	_, err = Snapshot(m, &Resolution{MatchID: 2, Source: SourceCascade}, time.Now())
	assert.Error(t, err)

	_, err = Snapshot(m, nil, time.Now())
	assert.Error(t, err)
}

func TestResolveCompletedWithoutSnapshot(t *testing.T) {
	_, err := Resolve(&models.Match{ID: 77, Status: models.MatchStatusCompleted, Tournament: tournament()})
	require.Error(t, err)

	var missing *SnapshotMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, 77, missing.MatchID)

	kind, ok := failures.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, failures.KindSnapshotMissing, kind)
	assert.True(t, kind.IsIntegrityFault())
}
