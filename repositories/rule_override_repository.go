package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

var (
	ErrOverrideTargetNotFound = errors.New("rule override target not found")
	ErrOverrideLevelInvalid   = errors.New("rule overrides cannot be stored at this level")
)

// RuleOverrideRepository stores the override mappings of the structural levels.
// Match-level overrides live on the match row and go through MatchRepository.
type RuleOverrideRepository interface {
	SetOverrides(ctx context.Context, exec SQLExecutor, level models.RuleLevel, id int, overrides models.Rules) error
}

type postgresRuleOverrideRepository struct {
	db *sql.DB
}

func NewPostgresRuleOverrideRepository(db *sql.DB) RuleOverrideRepository {
	return &postgresRuleOverrideRepository{db: db}
}

var overrideQueries = map[models.RuleLevel]string{
	models.RuleLevelTournament: `UPDATE tournaments SET default_rules = $1 WHERE id = $2`,
	models.RuleLevelGroup:      `UPDATE tournament_groups SET rule_overrides = $1 WHERE id = $2`,
	models.RuleLevelBracket:    `UPDATE brackets SET rule_overrides = $1 WHERE id = $2`,
	models.RuleLevelRound:      `UPDATE rounds SET rule_overrides = $1 WHERE id = $2`,
}

func (r *postgresRuleOverrideRepository) SetOverrides(ctx context.Context, exec SQLExecutor, level models.RuleLevel, id int, overrides models.Rules) error {
	query, ok := overrideQueries[level]
	if !ok {
		return fmt.Errorf("%w: %q", ErrOverrideLevelInvalid, level)
	}
	// Базовый слой турнира присутствует всегда, поэтому NULL там не храним.
	if level == models.RuleLevelTournament && overrides == nil {
		overrides = models.Rules{}
	}

	executor := exec
	if executor == nil {
		executor = r.db
	}
	result, err := executor.ExecContext(ctx, query, overrides, id)
	if err != nil {
		return fmt.Errorf("SetOverrides: failed for %s %d: %w", level, id, err)
	}
	return checkAffectedRows(result, ErrOverrideTargetNotFound)
}
