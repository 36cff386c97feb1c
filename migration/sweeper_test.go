package migration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/flofy/adapter"
	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage/badger"
	"github.com/poiesic/flofy/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Target = (*adapter.Adapter)(nil)

// failingTarget wraps a Target and fails writes once failAfter writes have
// succeeded. A negative failAfter never fails.
type failingTarget struct {
	Target
	mu        sync.Mutex
	failAfter int
	written   []string
}

func (f *failingTarget) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.written) >= f.failAfter {
		return errors.New("connection reset")
	}
	if err := f.Target.Set(ctx, key, value); err != nil {
		return err
	}
	f.written = append(f.written, key)
	return nil
}

type fixture struct {
	local  *badger.LocalStore
	remote *mock.MockRemote
	adp    *adapter.Adapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, backend, err := badger.NewMemoryLocalStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	remote := mock.NewMockRemote()
	adp, err := adapter.New(local, remote, adapter.WithUserID("u1"))
	require.NoError(t, err)
	return &fixture{local: local, remote: remote, adp: adp}
}

// seedLegacy writes five legacy keys and two unrelated ones.
func (f *fixture) seedLegacy(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()
	legacy := map[string]string{
		"chatHistory_u1":        `[{"role":"user","content":"hi"}]`,
		"chatHistory_anonymous": `[]`,
		"chatSummary_u1":        `{"text":"greeting"}`,
		"crm_conversations":     `[]`,
		"flofy_conversations":   `[{"id":"c1"}]`,
	}
	for k, v := range legacy {
		require.NoError(t, f.local.Set(ctx, k, v))
	}
	require.NoError(t, f.local.Set(ctx, "theme", "dark"))
	require.NoError(t, f.local.Set(ctx, core.UserIDKey, "u1"))

	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	return keys
}

func TestNewSweeper_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := NewSweeper(nil, f.adp)
	assert.ErrorIs(t, err, ErrLocalStoreRequired)
	_, err = NewSweeper(f.local, nil)
	assert.ErrorIs(t, err, ErrTargetRequired)
}

func TestRun_CopiesLegacyKeysAndSetsFlag(t *testing.T) {
	f := newFixture(t)
	legacy := f.seedLegacy(t)
	ctx := context.Background()

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.AlreadyComplete)
	assert.Equal(t, 5, result.Migrated)
	assert.Equal(t, 7, result.Scanned)

	for _, k := range legacy {
		_, ok := f.remote.Field("u1", k)
		assert.True(t, ok, "remote missing %s", k)
	}
	_, ok := f.remote.Field("u1", "theme")
	assert.False(t, ok, "non-legacy keys are not migrated")

	done, err := s.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

// Idempotence: once the flag is set, a second run reads and writes nothing.
func TestProperty_MigrationIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	ctx := context.Background()

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	_, err = s.Run(ctx)
	require.NoError(t, err)
	writes := len(f.remote.Writes())

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.AlreadyComplete)
	assert.Zero(t, result.Migrated)
	assert.Len(t, f.remote.Writes(), writes)
}

// Abort: a failure after 2 of 5 writes leaves the flag unset and every local
// value untouched, and the next run copies all 5 again.
func TestProperty_MigrationAbortThenRetry(t *testing.T) {
	f := newFixture(t)
	keys := f.seedLegacy(t)
	ctx := context.Background()

	before := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := f.local.Get(ctx, key)
		require.NoError(t, err)
		before[key] = value
	}

	target := &failingTarget{Target: f.adp, failAfter: 2}
	s, err := NewSweeper(f.local, target)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationAborted)
	assert.Equal(t, 2, result.Migrated)

	done, err := s.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.Len(t, before, 5)
	for key, want := range before {
		value, err := f.local.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, want, value, key)
	}

	target.failAfter = -1
	target.written = nil
	result, err = s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Migrated)
	assert.Len(t, target.written, 5)

	done, err = s.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRun_FlagPresetSkipsSweep(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	ctx := context.Background()
	require.NoError(t, f.local.Set(ctx, core.MigrationCompleteKey, core.MigrationCompleteValue))

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.AlreadyComplete)
	assert.Empty(t, f.remote.Writes())
	assert.Equal(t, adapter.StateUninitialized, f.adp.State(), "flag check happens before readiness")
}

func TestRun_LocalOnlyTargetStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	f.remote.SetConfigured(false)
	ctx := context.Background()

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Migrated)
	assert.Len(t, f.adp.Pending(), 5, "writes queue while local-only")
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	require.NoError(t, f.adp.Init(context.Background()))

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, ErrMigrationAborted)
	assert.ErrorIs(t, err, context.Canceled)

	done, err := s.Completed(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
}

func TestStart_LogsAndFinishes(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)

	s, err := NewSweeper(f.local, f.adp)
	require.NoError(t, err)

	<-s.Start(context.Background())

	done, err := s.Completed(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStart_FailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)

	s, err := NewSweeper(f.local, &failingTarget{Target: f.adp, failAfter: 0})
	require.NoError(t, err)

	<-s.Start(context.Background())

	done, err := s.Completed(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRun_Progress(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)

	var buf bytes.Buffer
	s, err := NewSweeper(f.local, f.adp, WithProgress(&buf, 2))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Migrating: 2/5 keys")
	assert.Contains(t, output, "5/5 keys (100.0%)")
	assert.Contains(t, output, "\n")
}

func TestRun_ProgressAborted(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)

	var buf bytes.Buffer
	s, err := NewSweeper(f.local, &failingTarget{Target: f.adp, failAfter: 3}, WithProgress(&buf, 10))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), fmt.Sprintf("%d/%d keys", 3, 5))
	assert.Contains(t, buf.String(), "(aborted)")
}
