package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/failures"
)

// Sentinels for errors.Is; every typed error below matches exactly one of them.
var (
	ErrInvalidPlayerCount    = errors.New("invalid player count")
	ErrTemplateNotFound      = errors.New("bracket template not found")
	ErrSeedingConfigNotFound = errors.New("seeding config not found")
	ErrTemplateLoad          = errors.New("bracket templates failed to load")
)

// InvalidPlayerCountError is returned for counts outside [MinPlayers, MaxPlayers]
// or for raw input that is not an integer. Raw is empty when the value came in as int.
type InvalidPlayerCountError struct {
	Value int
	Raw   string
}

func (e *InvalidPlayerCountError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("invalid player count %q: must be an integer between %d and %d", e.Raw, MinPlayers, MaxPlayers)
	}
	return fmt.Sprintf("invalid player count %d: must be between %d and %d", e.Value, MinPlayers, MaxPlayers)
}

func (e *InvalidPlayerCountError) Kind() failures.Kind { return failures.KindInvalidPlayerCount }

func (e *InvalidPlayerCountError) Is(target error) bool { return target == ErrInvalidPlayerCount }

type TemplateNotFoundError struct {
	PlayerCount int
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no bracket template for %d players", e.PlayerCount)
}

func (e *TemplateNotFoundError) Kind() failures.Kind { return failures.KindTemplateNotFound }

func (e *TemplateNotFoundError) Is(target error) bool { return target == ErrTemplateNotFound }

type SeedingConfigNotFoundError struct {
	PlayerCount int
}

func (e *SeedingConfigNotFoundError) Error() string {
	return fmt.Sprintf("no seeding range covers %d players", e.PlayerCount)
}

func (e *SeedingConfigNotFoundError) Kind() failures.Kind { return failures.KindSeedingConfigNotFound }

func (e *SeedingConfigNotFoundError) Is(target error) bool { return target == ErrSeedingConfigNotFound }

// TemplateLoadError wraps the reason the template table could not be loaded.
type TemplateLoadError struct {
	Source string
	Err    error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load bracket templates from %s: %v", e.Source, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

func (e *TemplateLoadError) Kind() failures.Kind { return failures.KindTemplateLoadFailure }

func (e *TemplateLoadError) Is(target error) bool { return target == ErrTemplateLoad }
