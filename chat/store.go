package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
)

// Store is the key/value surface the accessors need. adapter.Adapter
// satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Option configures an accessor.
type Option func(*accessorConfig)

type accessorConfig struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *accessorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newAccessorConfig(opts []Option) accessorConfig {
	cfg := accessorConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = cfg.logger.With("component", "chat")
	return cfg
}

// loadJSON reads key and decodes it into a T. A missing key, a JSON null or
// an undecodable value yields empty(). Only store failures are returned.
func loadJSON[T any](ctx context.Context, store Store, logger *slog.Logger, key string, empty func() T) (T, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return empty(), nil
	}
	if err != nil {
		return empty(), fmt.Errorf("load %q: %w", key, err)
	}

	if strings.TrimSpace(raw) == "null" {
		return empty(), nil
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logger.Warn("discarding undecodable value", "key", key, "err", fmt.Errorf("%w: %w", core.ErrDecode, err))
		return empty(), nil
	}
	return value, nil
}

func saveJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}
