package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/metrics"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/ranking"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/storage"
	"golang.org/x/sync/errgroup"
)

// seedingFetchLimit caps concurrent result queries while computing seeding scores.
const seedingFetchLimit = 8

type RankingService interface {
	// RecalculateCategory rebuilds totals from tournament results and re-ranks
	// the category in one transaction.
	RecalculateCategory(ctx context.Context, categoryID int) ([]models.RankingEntry, error)
	// ApplyMatchResult records a win and a loss and re-ranks the category using
	// exec, so it joins the caller's transaction.
	ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, categoryID int, entityType models.EntityType, winnerID, loserID int) error
	// CategoryChanged pushes the category's current leaderboard to subscribers
	// and object storage. Call it after the changing transaction has committed.
	CategoryChanged(ctx context.Context, categoryID int)
	Leaderboard(ctx context.Context, categoryID int) ([]models.LeaderboardRow, error)
	// SeedingScores returns entrants with SeedingScore filled from their best results.
	SeedingScores(ctx context.Context, categoryID int, entrants []models.Entrant) ([]models.Entrant, error)
}

type RankingServiceConfig struct {
	SeedingTopN int
}

type rankingService struct {
	tx          repositories.Transactor
	rankingRepo repositories.RankingRepository
	resultRepo  repositories.ResultRepository
	ranker      *ranking.Ranker
	broadcaster brackets.Broadcaster
	publisher   *storage.LeaderboardPublisher // nil, если R2 не настроен
	metrics     *metrics.Metrics
	logger      *slog.Logger
	seedingTopN int
	now         func() time.Time
}

func NewRankingService(
	tx repositories.Transactor,
	rankingRepo repositories.RankingRepository,
	resultRepo repositories.ResultRepository,
	ranker *ranking.Ranker,
	broadcaster brackets.Broadcaster,
	publisher *storage.LeaderboardPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg RankingServiceConfig,
) RankingService {
	return &rankingService{
		tx:          tx,
		rankingRepo: rankingRepo,
		resultRepo:  resultRepo,
		ranker:      ranker,
		broadcaster: broadcaster,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		seedingTopN: cfg.SeedingTopN,
		now:         time.Now,
	}
}

func (s *rankingService) RecalculateCategory(ctx context.Context, categoryID int) ([]models.RankingEntry, error) {
	start := s.now()
	defer metrics.ObserveSince(s.metrics.RankRecalcSeconds, start)

	results, err := s.resultRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results for category %d: %w", categoryID, err)
	}
	byEntity := make(map[models.EntityKey][]models.TournamentResult)
	for _, r := range results {
		byEntity[r.Key()] = append(byEntity[r.Key()], r)
	}

	var ranked []models.RankingEntry
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entries, err := s.rankingRepo.ListByCategory(ctx, exec, categoryID)
		if err != nil {
			return err
		}
		for i, e := range entries {
			rebuilt := e
			rebuilt.TotalPoints, rebuilt.TournamentCount, rebuilt.LastTournamentDate = 0, 0, nil
			for _, r := range byEntity[e.Key()] {
				rebuilt = ranking.ApplyTournamentResult(rebuilt, r)
			}
			entries[i] = rebuilt
		}
		if err := s.rankingRepo.UpdateTotals(ctx, exec, categoryID, entries); err != nil {
			return err
		}
		ranked = s.ranker.RankEntries(entries)
		return s.rankingRepo.UpdateRanks(ctx, exec, categoryID, ranked)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate category %d: %w", categoryID, err)
	}

	s.metrics.RankedEntries.Observe(float64(len(ranked)))
	s.logger.Info("category re-ranked", slog.Int("category_id", categoryID), slog.Int("entries", len(ranked)))
	s.CategoryChanged(ctx, categoryID)
	return ranked, nil
}

func (s *rankingService) ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, categoryID int, entityType models.EntityType, winnerID, loserID int) error {
	if err := s.rankingRepo.ApplyResult(ctx, exec, categoryID, entityType, winnerID, loserID); err != nil {
		return fmt.Errorf("failed to record result in category %d: %w", categoryID, err)
	}
	entries, err := s.rankingRepo.ListByCategory(ctx, exec, categoryID)
	if err != nil {
		return err
	}
	return s.rankingRepo.UpdateRanks(ctx, exec, categoryID, s.ranker.RankEntries(entries))
}

func (s *rankingService) Leaderboard(ctx context.Context, categoryID int) ([]models.LeaderboardRow, error) {
	entries, err := s.rankingRepo.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for category %d: %w", categoryID, err)
	}
	// Ранги в БД могут отставать, поэтому порядок пересчитывается при чтении.
	ranked := s.ranker.RankEntries(entries)
	rows := make([]models.LeaderboardRow, len(ranked))
	for i, e := range ranked {
		rows[i] = models.LeaderboardRow{RankingEntry: e, WinRate: ranking.WinRate(e.Wins, e.Losses)}
	}
	return rows, nil
}

func (s *rankingService) CategoryChanged(ctx context.Context, categoryID int) {
	rows, err := s.Leaderboard(ctx, categoryID)
	if err != nil {
		s.logger.Error("failed to build leaderboard after change", slog.Int("category_id", categoryID), slog.Any("error", err))
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(brackets.CategoryRoom(categoryID), brackets.WebSocketMessage{
			Type:    brackets.MessageRankingUpdated,
			Payload: rows,
			RoomID:  brackets.CategoryRoom(categoryID),
		})
	}

	if s.publisher == nil {
		return
	}
	res, err := s.publisher.Publish(ctx, categoryID, rows, s.now())
	if err != nil {
		s.logger.Error("failed to publish leaderboard", slog.Int("category_id", categoryID), slog.Any("error", err))
		return
	}
	s.logger.Debug("leaderboard published", slog.Int("category_id", categoryID), slog.String("location", res.Location))
}

func (s *rankingService) SeedingScores(ctx context.Context, categoryID int, entrants []models.Entrant) ([]models.Entrant, error) {
	out := make([]models.Entrant, len(entrants))
	copy(out, entrants)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(seedingFetchLimit)
	for i := range out {
		i := i
		g.Go(func() error {
			results, err := s.resultRepo.ListByEntity(gCtx, categoryID, out[i].Key())
			if err != nil {
				return fmt.Errorf("failed to load results of %s %d: %w", out[i].EntityType, out[i].EntityID, err)
			}
			out[i].SeedingScore = ranking.SeedingScore(results, s.seedingTopN)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
