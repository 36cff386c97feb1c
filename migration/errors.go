package migration

import "errors"

var (
	// ErrMigrationAborted is returned when a sweep stops before copying every
	// legacy key. The completion flag is left unset.
	ErrMigrationAborted = errors.New("migration aborted")

	// ErrTargetRequired is returned by NewSweeper when no target is given.
	ErrTargetRequired = errors.New("migration target is required")

	// ErrLocalStoreRequired is returned by NewSweeper when no local store is given.
	ErrLocalStoreRequired = errors.New("local store is required")
)
