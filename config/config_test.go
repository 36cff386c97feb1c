package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./flofy-data", cfg.DataDir)
	assert.Equal(t, RemoteNone, cfg.Remote)
	assert.Zero(t, cfg.RemoteTimeout)
	assert.Equal(t, 1, cfg.RetryMaxAttempts)
	assert.Equal(t, "flofy", cfg.Mongo.Database)
	assert.Equal(t, 20, cfg.AI.KeepRecent)
	assert.Equal(t, ":8080", cfg.Notify.Addr)
	assert.False(t, cfg.RemoteConfigured())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("FLOFY_REMOTE", "mongo")
	t.Setenv("FLOFY_MONGO_URI", "mongodb://db:27017")
	t.Setenv("FLOFY_USER_ID", "u1")
	t.Setenv("FLOFY_REMOTE_TIMEOUT", "3s")
	t.Setenv("FLOFY_RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("FLOFY_AI_MODEL", "gpt-4o-mini")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RemoteMongo, cfg.Remote)
	assert.True(t, cfg.RemoteConfigured())
	assert.Equal(t, "u1", cfg.UserID)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)

	policy := cfg.RetryPolicy()
	assert.Equal(t, 4, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.BaseDelay)

	aiCfg := cfg.SummarizerConfig()
	assert.Equal(t, "gpt-4o-mini", aiCfg.Model)
	require.NoError(t, aiCfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("parse error", func(t *testing.T) {
		t.Setenv("FLOFY_RETRY_MAX_ATTEMPTS", "many")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("unknown remote", func(t *testing.T) {
		t.Setenv("FLOFY_REMOTE", "firebase")
		_, err := Load()
		assert.ErrorIs(t, err, ErrUnknownRemote)
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("FLOFY_RETRY_MAX_ATTEMPTS", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FLOFY_RETRY_MAX_ATTEMPTS")
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("FLOFY_REMOTE_TIMEOUT", "-1s")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestRemoteConfigured_Redis(t *testing.T) {
	cfg := Config{Remote: RemoteRedis}
	assert.False(t, cfg.RemoteConfigured())
	cfg.Redis.URL = "redis://localhost:6379"
	assert.True(t, cfg.RemoteConfigured())
}
