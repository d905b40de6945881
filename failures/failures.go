// Package failures defines the stable identifiers shared by the typed errors of the
// bracket, seeding, ranking and rule packages. Callers switch on Kind instead of
// matching messages.
package failures

import "errors"

type Kind string

const (
	KindInvalidPlayerCount    Kind = "INVALID_PLAYER_COUNT"
	KindTemplateNotFound      Kind = "TEMPLATE_NOT_FOUND"
	KindSeedingConfigNotFound Kind = "SEEDING_CONFIG_NOT_FOUND"
	KindTemplateLoadFailure   Kind = "TEMPLATE_LOAD_FAILURE"
	KindMatchNotFound         Kind = "MATCH_NOT_FOUND"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindAlreadyCompleted      Kind = "ALREADY_COMPLETED"
	KindSnapshotMissing       Kind = "SNAPSHOT_MISSING"
)

// Failure is implemented by every typed error of the core.
type Failure interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first Failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f.Kind(), true
	}
	return "", false
}

// IsIntegrityFault reports whether the kind signals broken static data or a broken
// invariant rather than bad caller input.
func (k Kind) IsIntegrityFault() bool {
	switch k {
	case KindTemplateNotFound, KindSeedingConfigNotFound, KindTemplateLoadFailure, KindSnapshotMissing:
		return true
	}
	return false
}
