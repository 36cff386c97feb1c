// Package config loads flofy settings from FLOFY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/poiesic/flofy/adapter"
	"github.com/poiesic/flofy/ai"
)

// Remote backends.
const (
	RemoteNone  = "none"
	RemoteMongo = "mongo"
	RemoteRedis = "redis"
)

// ErrUnknownRemote is returned by Validate for an unsupported FLOFY_REMOTE.
var ErrUnknownRemote = errors.New("unknown remote backend")

// Config is the full runtime configuration.
type Config struct {
	// DataDir holds the local Badger database.
	DataDir string `env:"FLOFY_DATA_DIR" envDefault:"./flofy-data"`

	// Remote selects the remote backend: none, mongo or redis. A selected
	// backend without connection settings runs local-only.
	Remote string `env:"FLOFY_REMOTE" envDefault:"none"`

	// UserID names the remote document. Empty falls back to the stored
	// userId key, then to the anonymous document.
	UserID string `env:"FLOFY_USER_ID"`

	// RemoteTimeout bounds each remote call. Zero leaves calls unbounded.
	RemoteTimeout time.Duration `env:"FLOFY_REMOTE_TIMEOUT" envDefault:"0s"`

	RetryMaxAttempts int           `env:"FLOFY_RETRY_MAX_ATTEMPTS" envDefault:"1"`
	RetryDelay       time.Duration `env:"FLOFY_RETRY_DELAY"        envDefault:"250ms"`
	MaxSubscriptions int           `env:"FLOFY_MAX_SUBSCRIPTIONS"  envDefault:"64"`

	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `env:"FLOFY_METRICS_ADDR"`

	Mongo  MongoConfig
	Redis  RedisConfig
	AI     AIConfig
	Notify NotifyConfig
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string `env:"FLOFY_MONGO_URI"`
	Database string `env:"FLOFY_MONGO_DATABASE" envDefault:"flofy"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL string `env:"FLOFY_REDIS_URL"`
}

// AIConfig holds summarizer settings.
type AIConfig struct {
	Host            string `env:"FLOFY_AI_HOST"              envDefault:"http://localhost:11434/v1"`
	Model           string `env:"FLOFY_AI_MODEL"             envDefault:"qwen2.5:3b"`
	Token           string `env:"FLOFY_AI_TOKEN"             envDefault:"none"`
	MaxSummaryWords int    `env:"FLOFY_AI_MAX_SUMMARY_WORDS" envDefault:"150"`
	KeepRecent      int    `env:"FLOFY_HISTORY_KEEP_RECENT"  envDefault:"20"`
	Threshold       int    `env:"FLOFY_HISTORY_THRESHOLD"    envDefault:"10"`
}

// NotifyConfig holds verification email settings.
type NotifyConfig struct {
	Addr           string `env:"FLOFY_NOTIFY_ADDR"       envDefault:":8080"`
	SendGridAPIKey string `env:"FLOFY_SENDGRID_API_KEY"`
	SendGridHost   string `env:"FLOFY_SENDGRID_HOST"     envDefault:"https://api.sendgrid.com"`
	FromEmail      string `env:"FLOFY_NOTIFY_FROM_EMAIL" envDefault:"no-reply@flofy.app"`
	FromName       string `env:"FLOFY_NOTIFY_FROM_NAME"  envDefault:"Flofy"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges. Missing remote connection settings are not
// an error; the adapter runs local-only in that case.
func (c *Config) Validate() error {
	switch c.Remote {
	case RemoteNone, RemoteMongo, RemoteRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRemote, c.Remote)
	}
	if c.DataDir == "" {
		return errors.New("config: FLOFY_DATA_DIR is required")
	}
	if c.RemoteTimeout < 0 {
		return errors.New("config: FLOFY_REMOTE_TIMEOUT must not be negative")
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("config: FLOFY_RETRY_MAX_ATTEMPTS: %w", err)
	}
	if c.RetryDelay < 0 {
		return errors.New("config: FLOFY_RETRY_DELAY must not be negative")
	}
	return nil
}

// RemoteConfigured reports whether the selected backend has connection
// settings.
func (c *Config) RemoteConfigured() bool {
	switch c.Remote {
	case RemoteMongo:
		return c.Mongo.URI != ""
	case RemoteRedis:
		return c.Redis.URL != ""
	}
	return false
}

// RetryPolicy returns the adapter retry policy.
func (c *Config) RetryPolicy() adapter.RetryPolicy {
	return adapter.RetryPolicy{MaxAttempts: c.RetryMaxAttempts, BaseDelay: c.RetryDelay}
}

// SummarizerConfig returns the ai package configuration.
func (c *Config) SummarizerConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.AI.Host),
		ai.WithModel(c.AI.Model),
		ai.WithToken(c.AI.Token),
		ai.WithMaxSummaryWords(c.AI.MaxSummaryWords),
	)
}
