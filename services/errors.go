package services

import "errors"

// Общие ошибки сервисного слоя. Типизированные ошибки ядра (brackets, rules)
// проходят через сервисы без изменений.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed   = errors.New("validation failed")
	ErrInvalidMatchResult = errors.New("winner must be one of the match sides")
	ErrMatchSidesMissing  = errors.New("match sides are not set")
	ErrInvalidRuleLevel   = errors.New("invalid rule level")
	ErrOverridesFrozen    = errors.New("rules of a completed match are frozen")

	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrOverrideTargetNotFound = errors.New("rule override target not found")
)
