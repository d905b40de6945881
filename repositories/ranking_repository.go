package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrRankingEntryNotFound   = errors.New("ranking entry not found")
	ErrRankingCategoryInvalid = errors.New("ranking category conflict or invalid")
)

// RankingRepository stores rankings keyed by (category_id, entity_type, entity_id):
// a player and a pair may share an id.
type RankingRepository interface {
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int) ([]models.RankingEntry, error)
	// UpdateRanks writes every entry's Rank in one statement. Either all ranks
	// change or the call fails.
	UpdateRanks(ctx context.Context, exec SQLExecutor, categoryID int, entries []models.RankingEntry) error
	// UpdateTotals writes points, last tournament date and tournament count.
	UpdateTotals(ctx context.Context, exec SQLExecutor, categoryID int, entries []models.RankingEntry) error
	// ApplyResult adds a win for winnerID and a loss for loserID, creating
	// missing ranking rows.
	ApplyResult(ctx context.Context, exec SQLExecutor, categoryID int, entityType models.EntityType, winnerID, loserID int) error
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int) ([]models.RankingEntry, error) {
	query := `
		SELECT
			rk.category_id, rk.entity_id, rk.entity_type, rk.total_points, rk.wins, rk.losses,
			rk.last_tournament_date, rk.tournament_count, rk.rank,` + entityNameColumns + `
		FROM rankings rk` + entityNameJoins("rk") + `
		WHERE rk.category_id = $1
		ORDER BY rk.rank ASC, rk.entity_type ASC, rk.entity_id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	entries := make([]models.RankingEntry, 0)
	for rows.Next() {
		var (
			e     models.RankingEntry
			names entityNameScan
		)
		dest := append([]interface{}{
			&e.CategoryID, &e.EntityID, &e.EntityType, &e.TotalPoints, &e.Wins, &e.Losses,
			&e.LastTournamentDate, &e.TournamentCount, &e.Rank,
		}, names.dest()...)
		if scanErr := rows.Scan(dest...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", scanErr)
		}
		e.EntityName = names.name(e.EntityType)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ranking rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresRankingRepository) UpdateRanks(ctx context.Context, exec SQLExecutor, categoryID int, entries []models.RankingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	types := make([]string, len(entries))
	ids := make([]int64, len(entries))
	ranks := make([]int64, len(entries))
	for i, e := range entries {
		types[i] = string(e.EntityType)
		ids[i] = int64(e.EntityID)
		ranks[i] = int64(e.Rank)
	}

	query := `
		UPDATE rankings rk
		SET rank = u.rank
		FROM unnest($2::text[], $3::int[], $4::int[]) AS u(entity_type, entity_id, rank)
		WHERE rk.category_id = $1 AND rk.entity_type = u.entity_type AND rk.entity_id = u.entity_id`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, categoryID, pq.Array(types), pq.Array(ids), pq.Array(ranks))
	if err != nil {
		return fmt.Errorf("UpdateRanks: failed to execute query for category %d: %w", categoryID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected != int64(len(entries)) {
		return fmt.Errorf("%w: updated %d of %d ranks in category %d", ErrRankingEntryNotFound, affected, len(entries), categoryID)
	}
	return nil
}

func (r *postgresRankingRepository) UpdateTotals(ctx context.Context, exec SQLExecutor, categoryID int, entries []models.RankingEntry) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE rankings
		SET total_points = $1, last_tournament_date = $2, tournament_count = $3
		WHERE category_id = $4 AND entity_type = $5 AND entity_id = $6`

	for _, e := range entries {
		result, err := executor.ExecContext(ctx, query, e.TotalPoints, e.LastTournamentDate, e.TournamentCount, categoryID, e.EntityType, e.EntityID)
		if err != nil {
			return fmt.Errorf("UpdateTotals: failed for %s %d in category %d: %w", e.EntityType, e.EntityID, categoryID, err)
		}
		if err := checkAffectedRows(result, ErrRankingEntryNotFound); err != nil {
			return fmt.Errorf("UpdateTotals: %s %d: %w", e.EntityType, e.EntityID, err)
		}
	}
	return nil
}

func (r *postgresRankingRepository) ApplyResult(ctx context.Context, exec SQLExecutor, categoryID int, entityType models.EntityType, winnerID, loserID int) error {
	query := `
		INSERT INTO rankings (category_id, entity_id, entity_type, wins, losses)
		VALUES ($1, $3, $2, 1, 0), ($1, $4, $2, 0, 1)
		ON CONFLICT (category_id, entity_type, entity_id) DO UPDATE
		SET wins = rankings.wins + EXCLUDED.wins,
		    losses = rankings.losses + EXCLUDED.losses`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, categoryID, entityType, winnerID, loserID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrRankingCategoryInvalid
		}
		return fmt.Errorf("ApplyResult: failed to execute query for category %d: %w", categoryID, err)
	}
	return nil
}
