package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/metrics"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

// Draw is a generated knockout draw of a tournament. It is not persisted.
type Draw struct {
	TournamentID int                        `json:"tournament_id"`
	Structure    *brackets.BracketStructure `json:"structure"`
	Seeding      *brackets.SeedingConfig    `json:"seeding"`
	Seeds        []models.Entrant           `json:"seeds"`
	Entrants     []models.Entrant           `json:"entrants"`
	Matches      []*brackets.BracketMatch   `json:"matches"`
}

// GroupSchedule is the round-robin schedule of a tournament's entrants.
type GroupSchedule struct {
	TournamentID int                      `json:"tournament_id"`
	Legs         int                      `json:"legs"`
	Matches      []*brackets.BracketMatch `json:"matches"`
}

type BracketService interface {
	GetBracketStructure(ctx context.Context, playerCount int) (*brackets.BracketStructure, error)
	GetSeedingConfig(ctx context.Context, playerCount int) (*brackets.SeedingConfig, error)
	GenerateDraw(ctx context.Context, tournamentID int) (*Draw, error)
	GenerateGroupSchedule(ctx context.Context, tournamentID int, legs int) (*GroupSchedule, error)
}

type bracketService struct {
	engine         *brackets.Engine
	tournamentRepo repositories.TournamentRepository
	rankings       RankingService
	knockout       brackets.BracketGenerator
	roundRobin     brackets.BracketGenerator
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewBracketService(
	engine *brackets.Engine,
	tournamentRepo repositories.TournamentRepository,
	rankings RankingService,
	m *metrics.Metrics,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		engine:         engine,
		tournamentRepo: tournamentRepo,
		rankings:       rankings,
		knockout:       brackets.NewSingleEliminationGenerator(),
		roundRobin:     brackets.NewRoundRobinGenerator(),
		metrics:        m,
		logger:         logger,
	}
}

func (s *bracketService) GetBracketStructure(ctx context.Context, playerCount int) (*brackets.BracketStructure, error) {
	structure, err := s.engine.GetBracketStructure(playerCount)
	s.observeLookup("structure", err)
	return structure, err
}

func (s *bracketService) GetSeedingConfig(ctx context.Context, playerCount int) (*brackets.SeedingConfig, error) {
	cfg, err := brackets.GetSeedingConfig(playerCount)
	s.observeLookup("seeding", err)
	return cfg, err
}

func (s *bracketService) observeLookup(operation string, err error) {
	s.metrics.BracketLookups.WithLabelValues(operation, metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Warn("bracket lookup failed", slog.String("operation", operation), slog.Any("error", err))
	}
}

func (s *bracketService) GenerateDraw(ctx context.Context, tournamentID int) (*Draw, error) {
	var (
		tournament *models.Tournament
		entrants   []models.Entrant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			return err
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		list, err := s.tournamentRepo.ListEntrants(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list entrants of tournament %d: %w", tournamentID, err)
		}
		entrants = list
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, err
	}

	structure, err := s.GetBracketStructure(ctx, len(entrants))
	if err != nil {
		return nil, err
	}
	seeding, err := s.GetSeedingConfig(ctx, len(entrants))
	if err != nil {
		return nil, err
	}

	scored, err := s.rankings.SeedingScores(ctx, tournament.CategoryID, entrants)
	if err != nil {
		return nil, err
	}
	ordered := brackets.SeedOrder(scored)

	matches, err := s.knockout.GenerateBracket(ctx, brackets.GenerateBracketParams{
		TournamentID: tournamentID,
		Entrants:     ordered,
		Structure:    structure,
		Seeding:      seeding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate draw for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("draw generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("entrants", len(ordered)),
		slog.Int("seeds", seeding.SeededPlayers),
		slog.String("pattern", structure.Pattern),
	)
	return &Draw{
		TournamentID: tournamentID,
		Structure:    structure,
		Seeding:      seeding,
		Seeds:        ordered[:seeding.SeededPlayers],
		Entrants:     ordered,
		Matches:      matches,
	}, nil
}

func (s *bracketService) GenerateGroupSchedule(ctx context.Context, tournamentID int, legs int) (*GroupSchedule, error) {
	if legs != 1 && legs != 2 {
		return nil, fmt.Errorf("%w: legs must be 1 or 2, got %d", ErrValidationFailed, legs)
	}
	entrants, err := s.tournamentRepo.ListEntrants(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrants of tournament %d: %w", tournamentID, err)
	}
	matches, err := s.roundRobin.GenerateBracket(ctx, brackets.GenerateBracketParams{
		TournamentID: tournamentID,
		Entrants:     entrants,
		Legs:         legs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return &GroupSchedule{TournamentID: tournamentID, Legs: legs, Matches: matches}, nil
}
