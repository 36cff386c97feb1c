package mock

import (
	"context"
	"testing"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRemote_SetGet(t *testing.T) {
	remote := NewMockRemote()
	ctx := context.Background()

	_, err := remote.GetField(ctx, "u1", "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, remote.EnsureUserDocument(ctx, "u1"))
	assert.True(t, remote.HasDocument("u1"))

	_, err = remote.GetField(ctx, "u1", "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, remote.SetField(ctx, "u1", "k", "v"))
	value, err := remote.GetField(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
	assert.Equal(t, []core.Entry{{Key: "k", Value: "v"}}, remote.Writes())
}

func TestMockRemote_FailAll(t *testing.T) {
	remote := NewMockRemote()
	ctx := context.Background()
	remote.FailAll()

	assert.ErrorIs(t, remote.EnsureUserDocument(ctx, "u1"), storage.ErrRemoteUnavailable)
	assert.ErrorIs(t, remote.SetField(ctx, "u1", "k", "v"), storage.ErrRemoteUnavailable)
	_, err := remote.GetField(ctx, "u1", "k")
	assert.ErrorIs(t, err, storage.ErrRemoteUnavailable)
	assert.Empty(t, remote.Writes())
	assert.Equal(t, 1, remote.SetCalls())

	remote.Recover()
	assert.NoError(t, remote.SetField(ctx, "u1", "k", "v"))
	assert.Equal(t, 2, remote.SetCalls())
}

func TestMockRemote_Subscribe(t *testing.T) {
	remote := NewMockRemote()
	ctx := context.Background()

	var seen []string
	sub, err := remote.Subscribe(ctx, "u1", func(doc core.Document) {
		seen = append(seen, doc.Storage["k"])
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())

	require.NoError(t, remote.SetField(ctx, "u1", "k", "a"))
	require.NoError(t, remote.SetField(ctx, "u2", "k", "ignored"))
	remote.SimulateRemoteWrite("u1", "k", "b")

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Len(t, remote.Writes(), 2)

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, remote.SubscriberCount())

	require.NoError(t, remote.SetField(ctx, "u1", "k", "c"))
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMockRemote_Closed(t *testing.T) {
	remote := NewMockRemote()
	require.NoError(t, remote.Close())

	err := remote.SetField(context.Background(), "u1", "k", "v")
	assert.ErrorIs(t, err, storage.ErrRemoteUnavailable)
}
