package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// userDocument is the stored shape of a core.Document.
type userDocument struct {
	ID          string            `bson:"_id"`
	Storage     map[string]string `bson:"storage"`
	LastUpdated time.Time         `bson:"lastUpdated"`
}

func (d *userDocument) toDocument() core.Document {
	doc := core.Document{
		UserID:      d.ID,
		Storage:     make(map[string]string, len(d.Storage)),
		LastUpdated: d.LastUpdated.UTC(),
	}
	for field, value := range d.Storage {
		doc.Storage[unescapeField(field)] = value
	}
	return doc
}

// Store implements storage.RemoteStore for MongoDB.
type Store struct {
	client   *mongo.Client
	coll     *mongo.Collection
	watchers *storage.Watchers
	logger   *slog.Logger
}

var _ storage.RemoteStore = (*Store)(nil)

// Open creates a Store. With an empty URI it returns an unconfigured store,
// which reports Configured() == false and fails every call with
// storage.ErrRemoteNotConfigured. Connecting is lazy; use Ping to check
// reachability.
func Open(cfg Config, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default().With("component", "mongo-remote")}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.URI == "" {
		return s, nil
	}
	cfg = cfg.withDefaults()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	watchers, err := storage.NewWatchers(cfg.MaxSubscriptions, s.logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s.client = client
	s.coll = client.Database(cfg.Database).Collection(cfg.Collection)
	s.watchers = watchers
	return s, nil
}

// Configured reports whether a connection URI was given.
func (s *Store) Configured() bool {
	return s.client != nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.client.Ping(ctx, nil); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// EnsureUserDocument creates an empty document for userID if none exists.
func (s *Store) EnsureUserDocument(ctx context.Context, userID string) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"storage":     bson.M{},
			"lastUpdated": time.Now().UTC(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return unavailable("ensure document", err)
	}
	return nil
}

// SetField upserts storage[key] and stamps lastUpdated with server time.
func (s *Store) SetField(ctx context.Context, userID, key, value string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{storagePath(key): value},
			"$currentDate": bson.M{"lastUpdated": true},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return unavailable("set field", err)
	}
	return nil
}

// GetField returns storage[key] of userID's document.
func (s *Store) GetField(ctx context.Context, userID, key string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	var doc userDocument
	err := s.coll.FindOne(ctx,
		bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{storagePath(key): 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", unavailable("get field", err)
	}
	value, ok := doc.Storage[escapeField(key)]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// changeEvent is the part of a change stream event Subscribe needs.
type changeEvent struct {
	OperationType string        `bson:"operationType"`
	FullDocument  *userDocument `bson:"fullDocument"`
}

// Subscribe opens a change stream on userID's document. ctx bounds opening
// the stream only.
func (s *Store) Subscribe(ctx context.Context, userID string, onChange storage.ChangeHandler) (storage.Subscription, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: userID}}}},
	}
	stream, err := s.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, unavailable("watch", err)
	}

	logger := s.logger.With("user", userID)
	closeStream := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stream.Close(closeCtx); err != nil {
			logger.Debug("failed to close change stream", "err", err)
		}
	}

	return s.watchers.Start(func(ctx context.Context) {
		for stream.Next(ctx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				logger.Warn("undecodable change event", "err", err)
				continue
			}
			if event.FullDocument == nil {
				// Deletes carry no document.
				logger.Debug("skipping change without document", "op", event.OperationType)
				continue
			}
			onChange(event.FullDocument.toDocument())
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logger.Error("change stream ended", "err", err)
		}
	}, closeStream)
}

// Close stops all subscriptions and disconnects.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	s.watchers.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("disconnect from MongoDB: %w", err)
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
	return fmt.Errorf("%w: mongo %s: %w", storage.ErrRemoteUnavailable, op, err)
}
