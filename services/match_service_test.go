package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/failures"
	"github.com/Dosada05/tennis-tournament/metrics"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/rules"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var completedAt = time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

// quarterfinal is an in_progress match of tournament 3 played in round 40 of bracket 7.
func quarterfinal() models.Match {
	return models.Match{
		ID:            15,
		TournamentID:  3,
		CategoryID:    2,
		EntityType:    models.EntityPlayer,
		RoundID:       intPtr(40),
		Side1EntityID: intPtr(101),
		Side2EntityID: intPtr(102),
		Status:        models.MatchStatusInProgress,
		RuleOverrides: models.Rules{models.RuleTiebreakPoints: 10},
		Tournament: &models.Tournament{
			ID:         3,
			CategoryID: 2,
			DefaultRules: models.Rules{
				models.RuleWinningSets: 2,
				models.RuleGamesPerSet: 6,
				models.RuleAdvantage:   "advantage",
			},
		},
		Round: &models.Round{
			ID:            40,
			TournamentID:  3,
			BracketID:     intPtr(7),
			Number:        2,
			RuleOverrides: models.Rules{models.RuleWinningSets: 3},
			Bracket: &models.Bracket{
				ID:            7,
				TournamentID:  3,
				RuleOverrides: models.Rules{models.RuleAdvantage: "no_ad"},
			},
		},
	}
}

type matchServiceFixture struct {
	store       *memStore
	tx          *fakeTransactor
	repo        *fakeMatchRepo
	overrides   *fakeOverrideRepo
	rankings    *fakeRankingService
	broadcaster *fakeBroadcaster
	metrics     *metrics.Metrics
	svc         *matchService
}

func newMatchServiceFixture(matches ...models.Match) *matchServiceFixture {
	f := &matchServiceFixture{
		store:       newMemStore(matches...),
		overrides:   &fakeOverrideRepo{},
		rankings:    &fakeRankingService{},
		broadcaster: &fakeBroadcaster{},
		metrics:     metrics.New(),
	}
	f.tx = &fakeTransactor{store: f.store}
	f.repo = &fakeMatchRepo{store: f.store}
	svc := NewMatchService(f.tx, f.repo, f.overrides, f.rankings, f.broadcaster, f.metrics, discardLogger()).(*matchService)
	svc.now = func() time.Time { return completedAt }
	f.svc = svc
	return f
}

func TestResolveEffectiveRulesFoldsCascade(t *testing.T) {
	f := newMatchServiceFixture(quarterfinal())

	res, err := f.svc.ResolveEffectiveRules(context.Background(), 15)
	require.NoError(t, err)

	assert.Equal(t, rules.SourceCascade, res.Source)
	assert.Nil(t, res.CapturedAt)
	want := models.Rules{
		models.RuleWinningSets:    3,
		models.RuleGamesPerSet:    6,
		models.RuleAdvantage:      "no_ad",
		models.RuleTiebreakPoints: 10,
	}
	if diff := cmp.Diff(want, res.Rules); diff != "" {
		t.Errorf("effective rules mismatch (-want +got):\n%s", diff)
	}

	levels := make([]models.RuleLevel, len(res.Cascade))
	for i, step := range res.Cascade {
		levels[i] = step.Level
	}
	assert.Equal(t, []models.RuleLevel{
		models.RuleLevelTournament, models.RuleLevelBracket, models.RuleLevelRound, models.RuleLevelMatch,
	}, levels)

	stored, _ := f.store.get(15)
	assert.Nil(t, stored.RuleSnapshot, "resolution never writes")
	assert.Zero(t, f.tx.commits)
}

func TestResolveEffectiveRulesMatchNotFound(t *testing.T) {
	f := newMatchServiceFixture()

	_, err := f.svc.ResolveEffectiveRules(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrMatchNotFound)
	kind, ok := failures.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, failures.KindMatchNotFound, kind)

	var notFound *rules.MatchNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 99, notFound.MatchID)
}

func TestCompleteMatchFreezesRules(t *testing.T) {
	f := newMatchServiceFixture(quarterfinal())
	ctx := context.Background()

	live, err := f.svc.ResolveEffectiveRules(ctx, 15)
	require.NoError(t, err)

	completed, err := f.svc.CompleteMatch(ctx, 15, models.MatchResult{WinnerEntityID: 102, Score: "6-4 3-6 7-6"})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, completed.Status)
	require.NotNil(t, completed.RuleSnapshot)
	assert.Equal(t, completedAt, completed.RuleSnapshot.CapturedAt)

	stored, _ := f.store.get(15)
	assert.Equal(t, models.MatchStatusCompleted, stored.Status)
	require.NotNil(t, stored.RuleSnapshot)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, completedAt, *stored.CompletedAt)
	assert.Equal(t, 102, *stored.WinnerEntityID)

	// Организатор меняет правила уже после завершения матча.
	stored.Tournament.DefaultRules[models.RuleGamesPerSet] = 4
	stored.Round.Bracket.RuleOverrides[models.RuleAdvantage] = "advantage"

	frozen, err := f.svc.ResolveEffectiveRules(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, rules.SourceSnapshot, frozen.Source)
	require.NotNil(t, frozen.CapturedAt)
	assert.Equal(t, completedAt, *frozen.CapturedAt)
	if diff := cmp.Diff(live.Rules, frozen.Rules); diff != "" {
		t.Errorf("snapshot drifted from the rules at completion (-live +frozen):\n%s", diff)
	}
	if diff := cmp.Diff(live.Cascade, frozen.Cascade); diff != "" {
		t.Errorf("snapshot cascade drifted (-live +frozen):\n%s", diff)
	}

	assert.Equal(t, []appliedResult{{CategoryID: 2, EntityType: models.EntityPlayer, WinnerID: 102, LoserID: 101}}, f.rankings.applied)
	assert.Equal(t, []int{2}, f.rankings.changed)

	sent := f.broadcaster.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, brackets.MessageMatchCompleted, sent[0].Type)
	assert.Equal(t, "tournament_3", sent[0].RoomID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SnapshotsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MatchTransitions.WithLabelValues("completed", metrics.OutcomeOK)))
}

func TestCompleteMatchRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *matchServiceFixture)
	}{
		{
			name:  "snapshot write fails",
			setup: func(f *matchServiceFixture) { f.repo.saveSnapshotErr = errors.New("disk full") },
		},
		{
			name:  "ranking update fails",
			setup: func(f *matchServiceFixture) { f.rankings.applyErr = errors.New("ranking row locked") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMatchServiceFixture(quarterfinal())
			tt.setup(f)

			_, err := f.svc.CompleteMatch(context.Background(), 15, models.MatchResult{WinnerEntityID: 101, Score: "6-0 6-0"})
			require.Error(t, err)

			stored, _ := f.store.get(15)
			assert.Equal(t, models.MatchStatusInProgress, stored.Status, "status change must roll back with the snapshot")
			assert.Nil(t, stored.RuleSnapshot)
			assert.Nil(t, stored.WinnerEntityID)
			assert.Empty(t, f.broadcaster.sent())
			assert.Empty(t, f.rankings.changed)
			assert.Zero(t, testutil.ToFloat64(f.metrics.SnapshotsWritten))

			res, err := f.svc.ResolveEffectiveRules(context.Background(), 15)
			require.NoError(t, err)
			assert.Equal(t, rules.SourceCascade, res.Source)
		})
	}
}

func TestCompleteMatchTransitions(t *testing.T) {
	tests := []struct {
		name   string
		status models.MatchStatus
		want   error
		kind   failures.Kind
	}{
		{"scheduled", models.MatchStatusScheduled, rules.ErrInvalidTransition, failures.KindInvalidTransition},
		{"completed", models.MatchStatusCompleted, rules.ErrAlreadyCompleted, failures.KindAlreadyCompleted},
		{"canceled", models.MatchStatusCanceled, rules.ErrInvalidTransition, failures.KindInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quarterfinal()
			m.Status = tt.status
			f := newMatchServiceFixture(m)

			_, err := f.svc.CompleteMatch(context.Background(), 15, models.MatchResult{WinnerEntityID: 101})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			kind, ok := failures.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)

			stored, _ := f.store.get(15)
			assert.Equal(t, tt.status, stored.Status)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MatchTransitions.WithLabelValues("completed", metrics.OutcomeError)))
		})
	}
}

func TestCompleteMatchRejectsForeignWinner(t *testing.T) {
	f := newMatchServiceFixture(quarterfinal())

	_, err := f.svc.CompleteMatch(context.Background(), 15, models.MatchResult{WinnerEntityID: 555})
	assert.ErrorIs(t, err, ErrInvalidMatchResult)

	stored, _ := f.store.get(15)
	assert.Equal(t, models.MatchStatusInProgress, stored.Status)
}

func TestCompleteMatchConcurrentCallers(t *testing.T) {
	f := newMatchServiceFixture(quarterfinal())

	const callers = 2
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.CompleteMatch(context.Background(), 15, models.MatchResult{WinnerEntityID: 101 + i, Score: "6-3 6-3"})
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, already int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, rules.ErrAlreadyCompleted):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, already)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SnapshotsWritten))
	assert.Len(t, f.rankings.applied, 1)
}

func TestStartMatch(t *testing.T) {
	t.Run("scheduled match starts", func(t *testing.T) {
		m := quarterfinal()
		m.Status = models.MatchStatusScheduled
		f := newMatchServiceFixture(m)

		started, err := f.svc.StartMatch(context.Background(), 15)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, started.Status)

		sent := f.broadcaster.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, brackets.MessageMatchUpdated, sent[0].Type)
	})

	t.Run("missing side", func(t *testing.T) {
		m := quarterfinal()
		m.Status = models.MatchStatusScheduled
		m.Side2EntityID = nil
		f := newMatchServiceFixture(m)

		_, err := f.svc.StartMatch(context.Background(), 15)
		assert.ErrorIs(t, err, ErrMatchSidesMissing)
		stored, _ := f.store.get(15)
		assert.Equal(t, models.MatchStatusScheduled, stored.Status)
	})

	t.Run("already in progress", func(t *testing.T) {
		f := newMatchServiceFixture(quarterfinal())

		_, err := f.svc.StartMatch(context.Background(), 15)
		assert.ErrorIs(t, err, rules.ErrInvalidTransition)
	})
}

func TestCancelMatch(t *testing.T) {
	f := newMatchServiceFixture(quarterfinal())

	canceled, err := f.svc.CancelMatch(context.Background(), 15)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCanceled, canceled.Status)

	_, err = f.svc.CancelMatch(context.Background(), 15)
	assert.ErrorIs(t, err, rules.ErrInvalidTransition, "canceled is terminal")

	_, err = f.svc.CompleteMatch(context.Background(), 15, models.MatchResult{WinnerEntityID: 101})
	assert.ErrorIs(t, err, rules.ErrInvalidTransition)
}

func TestSetOverrides(t *testing.T) {
	ctx := context.Background()

	t.Run("match level before completion", func(t *testing.T) {
		f := newMatchServiceFixture(quarterfinal())
		overrides := models.Rules{models.RuleFinalSetSuperTiebreak: true}

		require.NoError(t, f.svc.SetOverrides(ctx, models.RuleLevelMatch, 15, overrides))
		overrides[models.RuleFinalSetSuperTiebreak] = false

		res, err := f.svc.ResolveEffectiveRules(ctx, 15)
		require.NoError(t, err)
		assert.Equal(t, true, res.Rules[models.RuleFinalSetSuperTiebreak])
		assert.NotContains(t, res.Rules, models.RuleTiebreakPoints, "match overrides are replaced, not merged")
	})

	t.Run("match level after completion", func(t *testing.T) {
		f := newMatchServiceFixture(quarterfinal())
		_, err := f.svc.CompleteMatch(ctx, 15, models.MatchResult{WinnerEntityID: 101, Score: "6-1 6-1"})
		require.NoError(t, err)

		err = f.svc.SetOverrides(ctx, models.RuleLevelMatch, 15, models.Rules{models.RuleGamesPerSet: 4})
		assert.ErrorIs(t, err, ErrOverridesFrozen)
	})

	t.Run("structural level goes to the override repository", func(t *testing.T) {
		f := newMatchServiceFixture()
		var gotLevel models.RuleLevel
		var gotID int
		f.overrides.setFn = func(level models.RuleLevel, id int, overrides models.Rules) error {
			gotLevel, gotID = level, id
			return nil
		}

		require.NoError(t, f.svc.SetOverrides(ctx, models.RuleLevelGroup, 9, models.Rules{models.RuleWinningSets: 1}))
		assert.Equal(t, models.RuleLevelGroup, gotLevel)
		assert.Equal(t, 9, gotID)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newMatchServiceFixture()
		f.overrides.setFn = func(models.RuleLevel, int, models.Rules) error {
			return repositories.ErrOverrideTargetNotFound
		}

		err := f.svc.SetOverrides(ctx, models.RuleLevelRound, 404, models.Rules{})
		assert.ErrorIs(t, err, ErrOverrideTargetNotFound)
	})

	t.Run("invalid level", func(t *testing.T) {
		f := newMatchServiceFixture()
		err := f.svc.SetOverrides(ctx, models.RuleLevel("court"), 1, models.Rules{})
		assert.ErrorIs(t, err, ErrInvalidRuleLevel)
	})
}
