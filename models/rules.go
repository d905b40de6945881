package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Стандартные ключи правил счёта. Набор не закрыт: организатор может добавить свои.
const (
	RuleFormatType            = "format_type"
	RuleWinningSets           = "winning_sets"
	RuleGamesPerSet           = "games_per_set"
	RuleAdvantage             = "advantage"
	RuleTiebreakAt            = "tiebreak_at"
	RuleTiebreakPoints        = "tiebreak_points"
	RuleFinalSetSuperTiebreak = "final_set_super_tiebreak"
)

// Rules is a flat rule-name to value mapping. A nil Rules means "no override set",
// an empty non-nil Rules means "override set, but it changes nothing".
type Rules map[string]any

// Clone returns a deep copy; nested maps and slices decoded from JSON are copied too.
func (r Rules) Clone() Rules {
	if r == nil {
		return nil
	}
	out := make(Rules, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Rules:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// Value stores Rules as JSONB. A nil map is stored as SQL NULL.
func (r Rules) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	return b, nil
}

func (r *Rules) Scan(src any) error {
	if src == nil {
		*r = nil
		return nil
	}
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("unmarshal rules: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	*r = Rules(m)
	return nil
}

// RuleLevel names one layer of the rule cascade.
type RuleLevel string

const (
	RuleLevelTournament RuleLevel = "tournament"
	RuleLevelGroup      RuleLevel = "group"
	RuleLevelBracket    RuleLevel = "bracket"
	RuleLevelRound      RuleLevel = "round"
	RuleLevelMatch      RuleLevel = "match"
)

func (l RuleLevel) Valid() bool {
	switch l {
	case RuleLevelTournament, RuleLevelGroup, RuleLevelBracket, RuleLevelRound, RuleLevelMatch:
		return true
	}
	return false
}

// CascadeStep records one layer that took part in a resolution.
type CascadeStep struct {
	Level     RuleLevel `json:"level"`
	SourceID  int       `json:"source_id"`
	Overrides Rules     `json:"overrides_applied"`
}

// RuleSnapshot is the frozen copy of the rules in effect when a match was completed.
type RuleSnapshot struct {
	Rules      Rules         `json:"rules"`
	Cascade    []CascadeStep `json:"cascade"`
	CapturedAt time.Time     `json:"captured_at"`
}

func (s RuleSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal rule snapshot: %w", err)
	}
	return b, nil
}

func (s *RuleSnapshot) Scan(src any) error {
	if src == nil {
		return errors.New("rule snapshot is NULL")
	}
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("unmarshal rule snapshot: %w", err)
	}
	return nil
}

// NullRuleSnapshot scans a nullable snapshot column.
type NullRuleSnapshot struct {
	Snapshot *RuleSnapshot
}

func (n *NullRuleSnapshot) Scan(src any) error {
	if src == nil {
		n.Snapshot = nil
		return nil
	}
	var s RuleSnapshot
	if err := s.Scan(src); err != nil {
		return err
	}
	n.Snapshot = &s
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
