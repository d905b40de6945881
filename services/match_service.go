package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/metrics"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/rules"
)

type MatchService interface {
	// ResolveEffectiveRules never writes. Completed matches return their snapshot.
	ResolveEffectiveRules(ctx context.Context, matchID int) (*rules.Resolution, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	// CompleteMatch records the result and freezes the rules in one transaction.
	CompleteMatch(ctx context.Context, matchID int, result models.MatchResult) (*models.Match, error)
	CancelMatch(ctx context.Context, matchID int) (*models.Match, error)
	// SetOverrides replaces the override mapping of one cascade level.
	SetOverrides(ctx context.Context, level models.RuleLevel, id int, overrides models.Rules) error
}

type matchService struct {
	tx           repositories.Transactor
	matchRepo    repositories.MatchRepository
	overrideRepo repositories.RuleOverrideRepository
	rankings     RankingService
	broadcaster  brackets.Broadcaster
	metrics      *metrics.Metrics
	logger       *slog.Logger
	locks        *keyedMutex
	now          func() time.Time
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	overrideRepo repositories.RuleOverrideRepository,
	rankings RankingService,
	broadcaster brackets.Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:           tx,
		matchRepo:    matchRepo,
		overrideRepo: overrideRepo,
		rankings:     rankings,
		broadcaster:  broadcaster,
		metrics:      m,
		logger:       logger,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

func (s *matchService) ResolveEffectiveRules(ctx context.Context, matchID int) (*rules.Resolution, error) {
	m, err := s.matchRepo.GetWithRules(ctx, nil, matchID)
	if err != nil {
		return nil, matchRepoError(matchID, err)
	}
	return rules.Resolve(m)
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.transition(ctx, matchID, models.MatchStatusInProgress, func(m *models.Match) error {
		if m.Side1EntityID == nil || m.Side2EntityID == nil {
			return fmt.Errorf("%w: match %d", ErrMatchSidesMissing, m.ID)
		}
		return nil
	})
}

func (s *matchService) CancelMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.transition(ctx, matchID, models.MatchStatusCanceled, nil)
}

// transition moves a match to a non-completed status under the row and process locks.
func (s *matchService) transition(ctx context.Context, matchID int, to models.MatchStatus, check func(*models.Match) error) (*models.Match, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	var updated *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetForUpdate(ctx, exec, matchID)
		if err != nil {
			return matchRepoError(matchID, err)
		}
		if err := rules.CheckTransition(m.ID, m.Status, to); err != nil {
			return err
		}
		if check != nil {
			if err := check(m); err != nil {
				return err
			}
		}
		if err := s.matchRepo.UpdateStatus(ctx, exec, m.ID, to); err != nil {
			return err
		}
		m.Status = to
		updated = m
		return nil
	})
	s.metrics.MatchTransitions.WithLabelValues(string(to), metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("match status changed", slog.Int("match_id", matchID), slog.String("status", string(to)))
	s.broadcast(updated, brackets.MessageMatchUpdated)
	return updated, nil
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID int, result models.MatchResult) (*models.Match, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	var completed *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetForUpdate(ctx, exec, matchID)
		if err != nil {
			return matchRepoError(matchID, err)
		}
		if err := rules.CheckTransition(m.ID, m.Status, models.MatchStatusCompleted); err != nil {
			return err
		}
		loserID, err := loserOf(m, result)
		if err != nil {
			return err
		}

		live, err := rules.Resolve(m)
		if err != nil {
			return err
		}
		snapshot, err := rules.Snapshot(m, live, s.now())
		if err != nil {
			return err
		}

		// Статус и снимок правил пишутся в одной транзакции: либо оба, либо ничего.
		if err := s.matchRepo.UpdateStatus(ctx, exec, m.ID, models.MatchStatusCompleted); err != nil {
			return err
		}
		if err := s.matchRepo.SaveResult(ctx, exec, m.ID, result); err != nil {
			return err
		}
		if err := s.matchRepo.SaveSnapshot(ctx, exec, m.ID, *snapshot); err != nil {
			return err
		}
		if s.rankings != nil {
			if err := s.rankings.ApplyMatchResult(ctx, exec, m.CategoryID, m.EntityType, result.WinnerEntityID, loserID); err != nil {
				return err
			}
		}

		winner, score, at := result.WinnerEntityID, result.Score, snapshot.CapturedAt
		m.Status = models.MatchStatusCompleted
		m.WinnerEntityID = &winner
		m.Score = &score
		m.RuleSnapshot = snapshot
		m.CompletedAt = &at
		completed = m
		return nil
	})
	s.metrics.MatchTransitions.WithLabelValues(string(models.MatchStatusCompleted), metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.metrics.SnapshotsWritten.Inc()
	s.logger.Info("match completed",
		slog.Int("match_id", completed.ID),
		slog.Int("winner_entity_id", result.WinnerEntityID),
		slog.Time("captured_at", completed.RuleSnapshot.CapturedAt),
	)
	s.broadcast(completed, brackets.MessageMatchCompleted)
	if s.rankings != nil {
		s.rankings.CategoryChanged(ctx, completed.CategoryID)
	}
	return completed, nil
}

func (s *matchService) SetOverrides(ctx context.Context, level models.RuleLevel, id int, overrides models.Rules) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRuleLevel, level)
	}

	if level != models.RuleLevelMatch {
		err := s.overrideRepo.SetOverrides(ctx, nil, level, id, overrides.Clone())
		if errors.Is(err, repositories.ErrOverrideTargetNotFound) {
			return fmt.Errorf("%w: %s %d", ErrOverrideTargetNotFound, level, id)
		}
		if err != nil {
			return err
		}
		s.logger.Info("rule overrides updated", slog.String("level", string(level)), slog.Int("id", id))
		return nil
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return matchRepoError(id, err)
		}
		if m.Status == models.MatchStatusCompleted {
			return fmt.Errorf("%w: match %d", ErrOverridesFrozen, id)
		}
		return s.matchRepo.SetOverrides(ctx, exec, id, overrides.Clone())
	})
}

func (s *matchService) broadcast(m *models.Match, messageType string) {
	if s.broadcaster == nil || m == nil {
		return
	}
	room := brackets.TournamentRoom(m.TournamentID)
	s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{Type: messageType, Payload: m, RoomID: room})
}

func loserOf(m *models.Match, result models.MatchResult) (int, error) {
	if m.Side1EntityID == nil || m.Side2EntityID == nil {
		return 0, fmt.Errorf("%w: match %d", ErrMatchSidesMissing, m.ID)
	}
	switch result.WinnerEntityID {
	case *m.Side1EntityID:
		return *m.Side2EntityID, nil
	case *m.Side2EntityID:
		return *m.Side1EntityID, nil
	}
	return 0, fmt.Errorf("%w: entity %d did not play match %d", ErrInvalidMatchResult, result.WinnerEntityID, m.ID)
}

func matchRepoError(matchID int, err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return &rules.MatchNotFoundError{MatchID: matchID}
	}
	return fmt.Errorf("failed to load match %d: %w", matchID, err)
}
