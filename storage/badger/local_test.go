package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, backend, err := NewMemoryLocalStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return store
}

func TestLocalStore_SetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "chatHistory_u1", `[]`))

	value, err := store.Get(ctx, "chatHistory_u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)
}

func TestLocalStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v1"))
	require.NoError(t, store.Set(ctx, "k", "v2"))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestLocalStore_EmptyValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", ""))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestLocalStore_EmptyKey(t *testing.T) {
	store := newTestStore(t)
	err := store.Set(context.Background(), "", "v")
	assert.ErrorIs(t, err, core.ErrEmptyKey)
}

func TestLocalStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Remove(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("missing key is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Remove(ctx, "never-written"))
	})
}

func TestLocalStore_Keys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, k := range []string{"crm_conversations", "chatHistory_b", "chatHistory_a", "userId"} {
		require.NoError(t, store.Set(ctx, k, "x"))
	}

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chatHistory_a", "chatHistory_b", "crm_conversations", "userId"}, keys)
}

func TestLocalStore_KeysCanceled(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(context.Background(), "k", "v"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Keys(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_Record(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	require.NoError(t, store.Set(context.Background(), "k", "v"))

	record, err := store.Record(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", record.Value)
	assert.True(t, fixed.Equal(record.WrittenAt))
}

func TestLocalStore_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	store := NewLocalStore(backend)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("chatSummary_%d", i), fmt.Sprintf("s%d", i)))
	}
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	store = NewLocalStore(backend)

	value, err := store.Get(ctx, "chatSummary_1")
	require.NoError(t, err)
	assert.Equal(t, "s1", value)
}

func TestLocalStore_Closed(t *testing.T) {
	store, backend, err := NewMemoryLocalStore()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), storage.ErrStorageClosed)
}
