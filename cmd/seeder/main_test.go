package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := transcript(linesFromSlice([]string{"hi", "", "hello", "bye"}), now)

	require.Len(t, messages, 3)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)
	assert.Equal(t, core.RoleUser, messages[2].Role)
	assert.Equal(t, now, messages[2].Timestamp)
	assert.Equal(t, now.Add(-2*time.Minute), messages[0].Timestamp)
}

func TestLinesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	source, err := linesFromFile(path)
	require.NoError(t, err)
	var got []string
	for line := range source {
		got = append(got, line)
	}
	assert.Equal(t, []string{"one", "two"}, got)

	_, err = linesFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	local, backend, err := badger.NewMemoryLocalStore()
	require.NoError(t, err)
	defer backend.Close()

	messages := transcript(linesFromSlice(lines), time.Now().UTC())
	require.NoError(t, seed(ctx, local, "u1", messages))

	keys, err := local.Keys(ctx)
	require.NoError(t, err)
	legacy := 0
	for _, key := range keys {
		if core.IsLegacyKey(key) {
			legacy++
		}
	}
	assert.Equal(t, 4, legacy)

	user, err := local.Get(ctx, core.UserIDKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", user)
}
