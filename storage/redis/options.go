package redis

import "log/slog"

// Config holds the connection settings.
type Config struct {
	// URL is a redis:// or rediss:// URL. Empty means unconfigured.
	URL string

	// MaxSubscriptions caps concurrent channel listeners.
	// Default: storage.DefaultMaxSubscriptions
	MaxSubscriptions int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "redis-remote")
	}
}
