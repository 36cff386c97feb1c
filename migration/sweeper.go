package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
)

// Target receives the migrated values. adapter.Adapter satisfies it.
type Target interface {
	// Init blocks until the target has settled its remote state.
	Init(ctx context.Context) error
	Set(ctx context.Context, key, value string) error
}

// Result summarizes a sweep.
type Result struct {
	// AlreadyComplete is true when the flag was set before the run and
	// nothing was read.
	AlreadyComplete bool

	// Scanned is the number of local keys enumerated.
	Scanned int

	// Migrated is the number of legacy keys rewritten through the target.
	Migrated int
}

// Sweeper performs the one-shot legacy data migration.
type Sweeper struct {
	local         storage.LocalStore
	target        Target
	logger        *slog.Logger
	progressOut   io.Writer
	progressEvery int
}

// NewSweeper creates a sweeper reading from local and writing to target.
func NewSweeper(local storage.LocalStore, target Target, opts ...Option) (*Sweeper, error) {
	if local == nil {
		return nil, ErrLocalStoreRequired
	}
	if target == nil {
		return nil, ErrTargetRequired
	}
	s := &Sweeper{
		local:         local,
		target:        target,
		logger:        slog.Default().With("component", "migration"),
		progressEvery: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Completed reports whether the completion flag is set.
func (s *Sweeper) Completed(ctx context.Context) (bool, error) {
	value, err := s.local.Get(ctx, core.MigrationCompleteKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read migration flag: %w", err)
	}
	return value == core.MigrationCompleteValue, nil
}

// Run performs the sweep unless it already completed. Any read or write
// failure stops the sweep and returns an error wrapping ErrMigrationAborted;
// the flag is then left unset so the next run starts over.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var result Result

	done, err := s.Completed(ctx)
	if err != nil {
		return result, err
	}
	if done {
		result.AlreadyComplete = true
		return result, nil
	}

	if err := s.target.Init(ctx); err != nil {
		return result, fmt.Errorf("%w: target not ready: %w", ErrMigrationAborted, err)
	}

	keys, err := s.local.Keys(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list keys: %w", ErrMigrationAborted, err)
	}
	result.Scanned = len(keys)

	legacy := make([]string, 0, len(keys))
	for _, key := range keys {
		if core.IsLegacyKey(key) {
			legacy = append(legacy, key)
		}
	}

	s.logger.Info("migration started", "keys", len(legacy), "scanned", result.Scanned)
	tracker := newProgress(s.progressOut, len(legacy), s.progressEvery)

	for _, key := range legacy {
		if err := ctx.Err(); err != nil {
			tracker.finish(false)
			return result, fmt.Errorf("%w: %w", ErrMigrationAborted, err)
		}

		value, err := s.local.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			// Removed since enumeration.
			tracker.copiedOne()
			continue
		}
		if err != nil {
			tracker.finish(false)
			return result, fmt.Errorf("%w: read %q: %w", ErrMigrationAborted, key, err)
		}

		if err := s.target.Set(ctx, key, value); err != nil {
			tracker.finish(false)
			return result, fmt.Errorf("%w: write %q: %w", ErrMigrationAborted, key, err)
		}
		result.Migrated++
		tracker.copiedOne()
	}

	if err := s.local.Set(ctx, core.MigrationCompleteKey, core.MigrationCompleteValue); err != nil {
		tracker.finish(false)
		return result, fmt.Errorf("%w: set flag: %w", ErrMigrationAborted, err)
	}
	tracker.finish(true)

	s.logger.Info("migration complete", "migrated", result.Migrated)
	return result, nil
}

// Start runs the sweep on its own goroutine. The outcome is only logged.
// The returned channel is closed when the sweep finishes.
func (s *Sweeper) Start(ctx context.Context) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, err := s.Run(ctx)
		switch {
		case err != nil:
			s.logger.Warn("migration did not complete, will retry on next start",
				"migrated", result.Migrated, "err", err)
		case result.AlreadyComplete:
			s.logger.Debug("migration already complete")
		}
	}()
	return finished
}
