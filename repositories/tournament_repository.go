package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// ListEntrants returns the confirmed players or pairs of a tournament with
	// their display names. Seeding scores are left at zero.
	ListEntrants(ctx context.Context, tournamentID int) ([]models.Entrant, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, category_id, start_date, end_date, location,
	status, max_participants, default_rules, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.CategoryID, &t.StartDate, &t.EndDate, &t.Location,
		&t.Status, &t.MaxParticipants, &t.DefaultRules, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListEntrants(ctx context.Context, tournamentID int) ([]models.Entrant, error) {
	query := `
		SELECT e.entity_id, e.entity_type,` + entityNameColumns + `
		FROM tournament_entries e` + entityNameJoins("e") + `
		WHERE e.tournament_id = $1 AND e.status = 'confirmed'
		ORDER BY e.entity_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	entrants := make([]models.Entrant, 0)
	for rows.Next() {
		var (
			e     models.Entrant
			names entityNameScan
		)
		dest := append([]interface{}{&e.EntityID, &e.EntityType}, names.dest()...)
		if scanErr := rows.Scan(dest...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entrant row: %w", scanErr)
		}
		e.Name = names.name(e.EntityType)
		entrants = append(entrants, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entrant rows iteration: %w", err)
	}
	return entrants, nil
}
