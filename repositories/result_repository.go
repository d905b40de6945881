package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

// ResultRepository reads the points each player or pair earned per tournament.
type ResultRepository interface {
	ListByEntity(ctx context.Context, categoryID int, entity models.EntityKey) ([]models.TournamentResult, error)
	ListByCategory(ctx context.Context, categoryID int) ([]models.TournamentResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

const resultColumns = `id, category_id, tournament_id, entity_id, entity_type, points_awarded, finished_at`

func (r *postgresResultRepository) ListByEntity(ctx context.Context, categoryID int, entity models.EntityKey) ([]models.TournamentResult, error) {
	query := `SELECT ` + resultColumns + `
		FROM tournament_results
		WHERE category_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY finished_at DESC, id ASC`
	return r.list(ctx, query, categoryID, entity.Type, entity.ID)
}

func (r *postgresResultRepository) ListByCategory(ctx context.Context, categoryID int) ([]models.TournamentResult, error) {
	query := `SELECT ` + resultColumns + `
		FROM tournament_results
		WHERE category_id = $1
		ORDER BY entity_type ASC, entity_id ASC, finished_at DESC, id ASC`
	return r.list(ctx, query, categoryID)
}

func (r *postgresResultRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TournamentResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament results: %w", err)
	}
	defer rows.Close()

	results := make([]models.TournamentResult, 0)
	for rows.Next() {
		var res models.TournamentResult
		if scanErr := rows.Scan(
			&res.ID, &res.CategoryID, &res.TournamentID, &res.EntityID,
			&res.EntityType, &res.PointsAwarded, &res.FinishedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament result row: %w", scanErr)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament result rows iteration: %w", err)
	}
	return results, nil
}
