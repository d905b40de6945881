package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	// GetWithRules loads a match together with its tournament, group, bracket and
	// round, including their rule overrides.
	GetWithRules(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetForUpdate is GetWithRules that also locks the match row. exec must be a transaction.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	SaveResult(ctx context.Context, exec SQLExecutor, id int, result models.MatchResult) error
	SaveSnapshot(ctx context.Context, exec SQLExecutor, id int, snapshot models.RuleSnapshot) error
	SetOverrides(ctx context.Context, exec SQLExecutor, id int, overrides models.Rules) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchWithRulesQuery = `
	SELECT
		m.id, m.tournament_id, m.category_id, m.entity_type, m.group_id, m.bracket_id, m.round_id,
		m.side1_entity_id, m.side2_entity_id, m.winner_entity_id, m.score, m.status,
		m.rule_overrides, m.rule_snapshot, m.completed_at, m.created_at,
		t.id, t.name, t.category_id, t.status, t.default_rules,
		g.id, g.name, g.rule_overrides,
		b.id, b.name, b.rule_overrides,
		r.id, r.bracket_id, r.number, r.name, r.rule_overrides,
		rb.id, rb.name, rb.rule_overrides
	FROM matches m
	JOIN tournaments t ON t.id = m.tournament_id
	LEFT JOIN tournament_groups g ON g.id = m.group_id
	LEFT JOIN brackets b ON b.id = m.bracket_id
	LEFT JOIN rounds r ON r.id = m.round_id
	LEFT JOIN brackets rb ON rb.id = r.bracket_id
	WHERE m.id = $1`

func (r *postgresMatchRepository) GetWithRules(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	return r.getMatch(ctx, r.getExecutor(exec), matchWithRulesQuery, id)
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	if exec == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	return r.getMatch(ctx, exec, matchWithRulesQuery+"\n\tFOR UPDATE OF m", id)
}

func (r *postgresMatchRepository) getMatch(ctx context.Context, exec SQLExecutor, query string, id int) (*models.Match, error) {
	var (
		m        models.Match
		t        models.Tournament
		snapshot models.NullRuleSnapshot

		groupID, bracketID, roundID, roundBracketID, roundBracketRef sql.NullInt64
		groupName, bracketName, roundName, roundBracketName          sql.NullString
		roundNumber                                                  sql.NullInt64
		group, bracket, round, roundBracket                          models.Rules
	)

	err := exec.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.TournamentID, &m.CategoryID, &m.EntityType, &m.GroupID, &m.BracketID, &m.RoundID,
		&m.Side1EntityID, &m.Side2EntityID, &m.WinnerEntityID, &m.Score, &m.Status,
		&m.RuleOverrides, &snapshot, &m.CompletedAt, &m.CreatedAt,
		&t.ID, &t.Name, &t.CategoryID, &t.Status, &t.DefaultRules,
		&groupID, &groupName, &group,
		&bracketID, &bracketName, &bracket,
		&roundID, &roundBracketRef, &roundNumber, &roundName, &round,
		&roundBracketID, &roundBracketName, &roundBracket,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d with rules: %w", id, err)
	}

	m.RuleSnapshot = snapshot.Snapshot
	m.Tournament = &t
	if groupID.Valid {
		m.Group = &models.Group{ID: int(groupID.Int64), TournamentID: t.ID, Name: groupName.String, RuleOverrides: group}
	}
	if bracketID.Valid {
		m.Bracket = &models.Bracket{ID: int(bracketID.Int64), TournamentID: t.ID, Name: bracketName.String, RuleOverrides: bracket}
	}
	if roundID.Valid {
		m.Round = &models.Round{
			ID:            int(roundID.Int64),
			TournamentID:  t.ID,
			Number:        int(roundNumber.Int64),
			Name:          roundName.String,
			RuleOverrides: round,
		}
		if roundBracketID.Valid {
			bid := int(roundBracketRef.Int64)
			m.Round.BracketID = &bid
			m.Round.Bracket = &models.Bracket{
				ID:            int(roundBracketID.Int64),
				TournamentID:  t.ID,
				Name:          roundBracketName.String,
				RuleOverrides: roundBracket,
			}
		}
	}
	return &m, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("UpdateStatus: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SaveResult(ctx context.Context, exec SQLExecutor, id int, res models.MatchResult) error {
	query := `UPDATE matches SET winner_entity_id = $1, score = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, res.WinnerEntityID, res.Score, id)
	if err != nil {
		return fmt.Errorf("SaveResult: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// SaveSnapshot writes the frozen rules and sets completed_at to the capture time.
func (r *postgresMatchRepository) SaveSnapshot(ctx context.Context, exec SQLExecutor, id int, snapshot models.RuleSnapshot) error {
	query := `UPDATE matches SET rule_snapshot = $1, completed_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, snapshot, snapshot.CapturedAt, id)
	if err != nil {
		return fmt.Errorf("SaveSnapshot: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetOverrides(ctx context.Context, exec SQLExecutor, id int, overrides models.Rules) error {
	query := `UPDATE matches SET rule_overrides = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, overrides, id)
	if err != nil {
		return fmt.Errorf("SetOverrides: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
