package migration

import (
	"io"
	"log/slog"
)

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "migration")
	}
}

// WithProgress writes a progress line to w while keys are copied.
// every controls how many keys pass between updates.
func WithProgress(w io.Writer, every int) Option {
	return func(s *Sweeper) {
		s.progressOut = w
		s.progressEvery = every
	}
}
