package mongo

import (
	"log/slog"

	"github.com/poiesic/flofy/storage"
)

const (
	defaultDatabase   = "flofy"
	defaultCollection = "users"
)

// Config holds the connection settings.
type Config struct {
	// URI is the MongoDB connection string. Empty means unconfigured.
	URI string

	// Database defaults to "flofy".
	Database string

	// Collection defaults to "users".
	Collection string

	// MaxSubscriptions caps concurrent change streams.
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
		s.logger = logger.With("component", "mongo-remote")
	}
}

func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.Collection == "" {
		c.Collection = defaultCollection
	}
	if c.MaxSubscriptions < 1 {
		c.MaxSubscriptions = storage.DefaultMaxSubscriptions
	}
	return c
}
