// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package flofy wires the local store, an optional remote store, the storage
// adapter, the migration sweeper and the chat accessors into one Client.
package flofy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/flofy/adapter"
	"github.com/poiesic/flofy/ai"
	"github.com/poiesic/flofy/ai/openai"
	"github.com/poiesic/flofy/chat"
	"github.com/poiesic/flofy/config"
	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/migration"
	"github.com/poiesic/flofy/storage"
	"github.com/poiesic/flofy/storage/badger"
	"github.com/poiesic/flofy/storage/mongo"
	"github.com/poiesic/flofy/storage/redis"
	"github.com/prometheus/client_golang/prometheus"
)

// Client owns every storage component for one device.
type Client struct {
	cfg      config.Config
	backend  *badger.Backend
	local    *badger.LocalStore
	remote   storage.RemoteStore
	adapter  *adapter.Adapter
	sweeper  *migration.Sweeper
	logger   *slog.Logger
	provider ai.AIProvider

	providerMu sync.Mutex

	autoMigrate   bool
	migrateMu     sync.Mutex
	migrateCancel context.CancelFunc
	migrated      <-chan struct{}
	closed        bool
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	remote      storage.RemoteStore
	provider    ai.AIProvider
	registerer  prometheus.Registerer
	logger      *slog.Logger
	inMemory    bool
	autoMigrate bool
	progressOut io.Writer
	adapterOpts []adapter.Option
}

// WithRemote uses remote instead of the backend named by the config.
func WithRemote(remote storage.RemoteStore) Option {
	return func(o *clientOptions) {
		o.remote = remote
	}
}

// WithProvider uses provider for summaries instead of one built from the
// AI config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *clientOptions) {
		o.provider = provider
	}
}

// WithRegisterer registers adapter metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *clientOptions) {
		o.registerer = reg
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithInMemory keeps the local store in memory. Used by tests.
func WithInMemory() Option {
	return func(o *clientOptions) {
		o.inMemory = true
	}
}

// WithAutoMigrate starts the migration sweep in the background the first time
// the client initializes. Close stops a sweep still in flight.
func WithAutoMigrate() Option {
	return func(o *clientOptions) {
		o.autoMigrate = true
	}
}

// WithMigrationProgress reports migration progress to w.
func WithMigrationProgress(w io.Writer) Option {
	return func(o *clientOptions) {
		o.progressOut = w
	}
}

// WithAdapterOptions passes extra options to the storage adapter.
func WithAdapterOptions(opts ...adapter.Option) Option {
	return func(o *clientOptions) {
		o.adapterOpts = append(o.adapterOpts, opts...)
	}
}

// New opens the local store and builds the rest of the stack from cfg.
// Nothing touches the remote store until the first operation.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	backend, err := badger.OpenBackend(cfg.DataDir, options.inMemory)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	local := badger.NewLocalStore(backend)

	remote := options.remote
	if remote == nil {
		remote, err = openRemote(cfg, logger)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	adapterOpts := []adapter.Option{
		adapter.WithLogger(logger),
		adapter.WithUserID(cfg.UserID),
		adapter.WithRetryPolicy(cfg.RetryPolicy()),
		adapter.WithRemoteTimeout(cfg.RemoteTimeout),
	}
	if options.registerer != nil {
		adapterOpts = append(adapterOpts, adapter.WithMetrics(adapter.NewMetrics(options.registerer)))
	}
	adapterOpts = append(adapterOpts, options.adapterOpts...)

	adp, err := adapter.New(local, remote, adapterOpts...)
	if err != nil {
		closeRemote(remote, logger)
		backend.Close()
		return nil, err
	}

	sweeperOpts := []migration.Option{migration.WithLogger(logger)}
	if options.progressOut != nil {
		sweeperOpts = append(sweeperOpts, migration.WithProgress(options.progressOut, 1))
	}
	sweeper, err := migration.NewSweeper(local, adp, sweeperOpts...)
	if err != nil {
		closeRemote(remote, logger)
		backend.Close()
		return nil, err
	}

	return &Client{
		cfg:      cfg,
		backend:  backend,
		local:    local,
		remote:   remote,
		adapter:  adp,
		sweeper:  sweeper,
		logger:   logger,
		provider: options.provider,

		autoMigrate: options.autoMigrate,
	}, nil
}

// openRemote returns the configured remote, or nil for RemoteNone.
func openRemote(cfg config.Config, logger *slog.Logger) (storage.RemoteStore, error) {
	switch cfg.Remote {
	case config.RemoteMongo:
		store, err := mongo.Open(mongo.Config{
			URI:              cfg.Mongo.URI,
			Database:         cfg.Mongo.Database,
			MaxSubscriptions: cfg.MaxSubscriptions,
		}, mongo.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.RemoteRedis:
		store, err := redis.Open(redis.Config{
			URL:              cfg.Redis.URL,
			MaxSubscriptions: cfg.MaxSubscriptions,
		}, redis.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, nil
}

func closeRemote(remote storage.RemoteStore, logger *slog.Logger) {
	if remote == nil {
		return
	}
	if err := remote.Close(); err != nil {
		logger.Error("error closing remote store", "err", err)
	}
}

// Adapter returns the storage adapter.
func (c *Client) Adapter() *adapter.Adapter {
	return c.adapter
}

// Local returns the local store.
func (c *Client) Local() storage.LocalStore {
	return c.local
}

// Sweeper returns the migration sweeper.
func (c *Client) Sweeper() *migration.Sweeper {
	return c.sweeper
}

// Init settles the adapter. Optional; every operation initializes lazily.
// With WithAutoMigrate, the first successful Init starts the sweep.
func (c *Client) Init(ctx context.Context) error {
	if err := c.adapter.Init(ctx); err != nil {
		return err
	}
	if c.autoMigrate {
		c.startAutoMigration()
	}
	return nil
}

func (c *Client) startAutoMigration() {
	c.migrateMu.Lock()
	defer c.migrateMu.Unlock()
	if c.migrated != nil || c.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.migrateCancel = cancel
	c.migrated = c.sweeper.Start(ctx)
	c.logger.Debug("background migration started")
}

// MigrationDone returns a channel closed when the automatic sweep finishes.
// Nil until the sweep has started.
func (c *Client) MigrationDone() <-chan struct{} {
	c.migrateMu.Lock()
	defer c.migrateMu.Unlock()
	return c.migrated
}

// Migrate runs the legacy migration sweep in the foreground.
func (c *Client) Migrate(ctx context.Context) (migration.Result, error) {
	return c.sweeper.Run(ctx)
}

// StartMigration runs the sweep in the background. The returned channel is
// closed when it finishes.
func (c *Client) StartMigration(ctx context.Context) <-chan struct{} {
	return c.sweeper.Start(ctx)
}

// userID initializes the adapter and returns the resolved user id.
func (c *Client) userID(ctx context.Context) (string, error) {
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	return c.adapter.UserID(), nil
}

// History returns the transcript accessor for the resolved user.
func (c *Client) History(ctx context.Context) (*chat.History, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return chat.NewHistory(c.adapter, userID, chat.WithLogger(c.logger))
}

// Summary returns the rolling summary accessor for the resolved user.
func (c *Client) Summary(ctx context.Context) (*chat.Summary, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return chat.NewSummary(c.adapter, userID, chat.WithLogger(c.logger))
}

// CRMConversations returns the CRM conversation list accessor.
func (c *Client) CRMConversations() (*chat.Conversations, error) {
	return chat.NewConversations(c.adapter, core.CRMConversationsKey, chat.WithLogger(c.logger))
}

// FlofyConversations returns the widget conversation list accessor.
func (c *Client) FlofyConversations() (*chat.Conversations, error) {
	return chat.NewConversations(c.adapter, core.FlofyConversationsKey, chat.WithLogger(c.logger))
}

// Compactor returns a rolling-summary compactor for the resolved user.
// The AI provider is created on first use.
func (c *Client) Compactor(ctx context.Context) (*chat.Compactor, error) {
	provider, err := c.aiProvider()
	if err != nil {
		return nil, err
	}
	history, err := c.History(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := c.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return chat.NewCompactor(history, summary, provider.Summarizer(),
		chat.WithKeepRecent(c.cfg.AI.KeepRecent),
		chat.WithThreshold(c.cfg.AI.Threshold),
		chat.WithCompactorLogger(c.logger),
	)
}

func (c *Client) aiProvider() (ai.AIProvider, error) {
	c.providerMu.Lock()
	defer c.providerMu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	provider, err := openai.NewProvider(c.cfg.SummarizerConfig())
	if err != nil {
		return nil, fmt.Errorf("create AI provider: %w", err)
	}
	c.provider = provider
	return provider, nil
}

// Close releases the AI provider, the remote store and the local store.
func (c *Client) Close() error {
	c.migrateMu.Lock()
	c.closed = true
	cancel, migrated := c.migrateCancel, c.migrated
	c.migrateMu.Unlock()
	if cancel != nil {
		cancel()
		<-migrated
	}

	c.providerMu.Lock()
	if c.provider != nil {
		if err := c.provider.Close(); err != nil {
			c.logger.Error("error closing AI provider", "err", err)
		}
	}
	c.providerMu.Unlock()

	closeRemote(c.remote, c.logger)

	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
