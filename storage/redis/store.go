package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	goredis "github.com/redis/go-redis/v9"
)

// setFieldScript writes one storage field, stamps lastUpdated with the
// server clock and announces the key, all atomically.
//
// KEYS[1] document hash, KEYS[2] change channel
// ARGV[1] hash field, ARGV[2] value, ARGV[3] storage key
var setFieldScript = goredis.NewScript(`
local t = redis.call('TIME')
local ms = t[1] * 1000 + math.floor(t[2] / 1000)
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2], 'lastUpdated', ms)
redis.call('PUBLISH', KEYS[2], ARGV[3])
return ms
`)

// ensureScript creates the hash with a server-time lastUpdated if missing.
var ensureScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local t = redis.call('TIME')
redis.call('HSET', KEYS[1], 'lastUpdated', t[1] * 1000 + math.floor(t[2] / 1000))
return 1
`)

// Store implements storage.RemoteStore for Redis.
type Store struct {
	client   *goredis.Client
	watchers *storage.Watchers
	logger   *slog.Logger
}

var _ storage.RemoteStore = (*Store)(nil)

// Open creates a Store. With an empty URL it returns an unconfigured store,
// which reports Configured() == false and fails every call with
// storage.ErrRemoteNotConfigured. Connections are made lazily; use Ping to
// check reachability.
func Open(cfg Config, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default().With("component", "redis-remote")}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.URL == "" {
		return s, nil
	}

	redisOpts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis remote: invalid URL: %w", err)
	}
	watchers, err := storage.NewWatchers(cfg.MaxSubscriptions, s.logger)
	if err != nil {
		return nil, err
	}

	s.client = goredis.NewClient(redisOpts)
	s.watchers = watchers
	return s, nil
}

// Configured reports whether a URL was given.
func (s *Store) Configured() bool {
	return s.client != nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// EnsureUserDocument creates the user's hash if it does not exist.
func (s *Store) EnsureUserDocument(ctx context.Context, userID string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := ensureScript.Run(ctx, s.client, []string{docKey(userID)}).Err(); err != nil {
		return unavailable("ensure document", err)
	}
	return nil
}

// SetField upserts the field and publishes the change.
func (s *Store) SetField(ctx context.Context, userID, key, value string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	err := setFieldScript.Run(ctx, s.client,
		[]string{docKey(userID), channelKey(userID)},
		storageField(key), value, key,
	).Err()
	if err != nil {
		return unavailable("set field", err)
	}
	return nil
}

// GetField returns the stored field.
func (s *Store) GetField(ctx context.Context, userID, key string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	value, err := s.client.HGet(ctx, docKey(userID), storageField(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", unavailable("get field", err)
	}
	return value, nil
}

// Document reads the whole user document.
func (s *Store) Document(ctx context.Context, userID string) (core.Document, error) {
	if err := s.check(); err != nil {
		return core.Document{}, err
	}
	fields, err := s.client.HGetAll(ctx, docKey(userID)).Result()
	if err != nil {
		return core.Document{}, unavailable("read document", err)
	}
	if len(fields) == 0 {
		return core.Document{}, storage.ErrNotFound
	}
	return decodeDocument(userID, fields), nil
}

// decodeDocument converts a hash into a core.Document.
func decodeDocument(userID string, fields map[string]string) core.Document {
	doc := core.Document{UserID: userID, Storage: make(map[string]string, len(fields))}
	for field, value := range fields {
		if key, ok := parseStorageField(field); ok {
			doc.Storage[key] = value
			continue
		}
		if field == lastUpdatedField {
			if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
				doc.LastUpdated = time.UnixMilli(ms).UTC()
			}
		}
	}
	return doc
}

// Subscribe listens on the user's change channel and re-reads the document
// on every message. ctx bounds the SUBSCRIBE handshake only.
func (s *Store) Subscribe(ctx context.Context, userID string, onChange storage.ChangeHandler) (storage.Subscription, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	pubsub := s.client.Subscribe(ctx, channelKey(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, unavailable("subscribe", err)
	}

	logger := s.logger.With("user", userID)
	closePubSub := func() {
		if err := pubsub.Close(); err != nil {
			logger.Debug("failed to close subscription", "err", err)
		}
	}

	return s.watchers.Start(func(ctx context.Context) {
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				doc, err := s.Document(ctx, userID)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("failed to read changed document", "key", msg.Payload, "err", err)
					}
					continue
				}
				onChange(doc)
			}
		}
	}, closePubSub)
}

// Close stops all subscriptions and closes the client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	s.watchers.Close()
	if err := s.client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

func (s *Store) check() error {
	if s.client == nil {
		return fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, storage.ErrRemoteNotConfigured)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", storage.ErrRemoteUnavailable, op, err)
}
