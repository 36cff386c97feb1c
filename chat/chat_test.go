package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/flofy/adapter"
	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage/badger"
	"github.com/poiesic/flofy/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *badger.LocalStore {
	t.Helper()
	local, backend, err := badger.NewMemoryLocalStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return local
}

// brokenStore fails every call with err.
type brokenStore struct{ err error }

func (b brokenStore) Get(context.Context, string) (string, error) { return "", b.err }
func (b brokenStore) Set(context.Context, string, string) error   { return b.err }

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// Decode-safety: malformed stored JSON reads as the documented empty default.
func TestProperty_DecodeSafety(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger, logs := bufferLogger()

	history, err := NewHistory(store, "u1", WithLogger(logger))
	require.NoError(t, err)
	summary, err := NewSummary(store, "u1", WithLogger(logger))
	require.NoError(t, err)
	convs, err := NewConversations(store, core.CRMConversationsKey, WithLogger(logger))
	require.NoError(t, err)

	for _, key := range []string{history.Key(), summary.Key(), convs.Key()} {
		require.NoError(t, store.Set(ctx, key, "{not json"))
	}

	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	sum, err := summary.Load(ctx)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	list, err := convs.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	assert.Contains(t, logs.String(), core.ErrDecode.Error())
}

func TestLoad_MissingKeyIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger, logs := bufferLogger()

	history, err := NewHistory(store, "u1", WithLogger(logger))
	require.NoError(t, err)
	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, logs.String(), "a missing key is not a decode failure")
}

func TestLoad_NullIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	history, err := NewHistory(store, "u1")
	require.NoError(t, err)
	convs, err := NewConversations(store, core.CRMConversationsKey)
	require.NoError(t, err)
	summary, err := NewSummary(store, "u1")
	require.NoError(t, err)
	for _, key := range []string{history.Key(), convs.Key(), summary.Key()} {
		require.NoError(t, store.Set(ctx, key, " null"))
	}

	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	list, err := convs.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	sum, err := summary.Load(ctx)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestLoad_StoreErrorIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	history, err := NewHistory(brokenStore{err: boom}, "u1")
	require.NoError(t, err)

	_, err = history.Load(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = history.Append(context.Background(), core.ChatMessage{Role: core.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, boom)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	history, err := NewHistory(store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "chatHistory_u1", history.Key())

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	history.now = func() time.Time { return fixed }

	n, err := history.Append(ctx,
		core.ChatMessage{Role: core.RoleUser, Content: "Hi"},
		core.ChatMessage{Role: core.RoleAssistant, Content: "Hello!", Timestamp: fixed.Add(time.Second)},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = history.Append(ctx, core.ChatMessage{Role: core.RoleUser, Content: "Prices?"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.True(t, fixed.Equal(msgs[0].Timestamp))
	assert.True(t, fixed.Add(time.Second).Equal(msgs[1].Timestamp))
	assert.Equal(t, "Prices?", msgs[2].Content)

	raw, err := store.Get(ctx, "chatHistory_u1")
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "user", decoded[0]["role"])

	require.NoError(t, history.Clear(ctx))
	raw, err = store.Get(ctx, "chatHistory_u1")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestHistory_AppendValidates(t *testing.T) {
	ctx := context.Background()
	history, err := NewHistory(newStore(t), "u1")
	require.NoError(t, err)

	_, err = history.Append(ctx, core.ChatMessage{Role: core.RoleUser, Content: ""})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	_, err = history.Append(ctx,
		core.ChatMessage{Role: core.RoleUser, Content: "ok"},
		core.ChatMessage{Role: "bot", Content: "nope"},
	)
	assert.ErrorIs(t, err, core.ErrInvalidRole)

	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs, "a rejected batch writes nothing")
}

func TestHistory_AppendDoesNotMutateInput(t *testing.T) {
	history, err := NewHistory(newStore(t), "u1")
	require.NoError(t, err)

	batch := []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}
	_, err = history.Append(context.Background(), batch...)
	require.NoError(t, err)
	assert.True(t, batch[0].Timestamp.IsZero())
}

func TestHistory_UserIDResolution(t *testing.T) {
	history, err := NewHistory(newStore(t), "  ")
	require.NoError(t, err)
	assert.Equal(t, "chatHistory_anonymous", history.Key())

	_, err = NewHistory(newStore(t), "bad\x00id")
	assert.ErrorIs(t, err, core.ErrInvalidUserID)

	_, err = NewSummary(newStore(t), "bad\x00id")
	assert.ErrorIs(t, err, core.ErrInvalidUserID)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	summary, err := NewSummary(store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "chatSummary_u1", summary.Key())

	want := core.ChatSummary{
		Text:         "Visitor asked about pricing.",
		MessageCount: 12,
		UpdatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, summary.Save(ctx, want))

	got, err := summary.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, want.MessageCount, got.MessageCount)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, summary.Clear(ctx))
	got, err = summary.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestConversations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	convs, err := NewConversations(store, core.FlofyConversationsKey)
	require.NoError(t, err)

	first, err := convs.Upsert(ctx, core.Conversation{ID: "c1", UserID: "u1", Title: "Pricing"})
	require.NoError(t, err)
	assert.False(t, first.UpdatedAt.IsZero())

	derived, err := convs.Upsert(ctx, core.Conversation{UserID: "u2", Title: "Returns"})
	require.NoError(t, err)
	assert.Equal(t, core.IDFromContent("u2\x00Returns").String(), derived.ID)

	_, err = convs.Upsert(ctx, core.Conversation{ID: "c1", UserID: "u1", Title: "Pricing", LastMessage: "thanks"})
	require.NoError(t, err)

	list, err := convs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID, "upsert moves the entry to the front")
	assert.Equal(t, "thanks", list[0].LastMessage)
	assert.Equal(t, derived.ID, list[1].ID)

	removed, err := convs.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = convs.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = convs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, convs.Save(ctx, nil))
	raw, err := store.Get(ctx, core.FlofyConversationsKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestNewConversations_RejectsOtherKeys(t *testing.T) {
	_, err := NewConversations(newStore(t), "chatHistory_u1")
	assert.ErrorIs(t, err, ErrUnknownListKey)
}

func TestAccessorsThroughAdapter(t *testing.T) {
	ctx := context.Background()
	remote := mock.NewMockRemote()
	adp, err := adapter.New(newStore(t), remote, adapter.WithUserID("u1"))
	require.NoError(t, err)

	history, err := NewHistory(adp, adp.UserID())
	require.NoError(t, err)
	// UserID is empty before initialization, so the accessor resolves to the
	// anonymous transcript; use an explicit id for the per-user one.
	assert.Equal(t, "chatHistory_anonymous", history.Key())

	history, err = NewHistory(adp, "u1")
	require.NoError(t, err)
	_, err = history.Append(ctx, core.ChatMessage{Role: core.RoleUser, Content: "hello"})
	require.NoError(t, err)

	raw, ok := remote.Field("u1", "chatHistory_u1")
	require.True(t, ok)
	assert.Contains(t, raw, `"content":"hello"`)

	remote.SimulateRemoteWrite("u1", "chatHistory_u1", "garbage")
	msgs, err := history.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs, "remote-won garbage still decodes to the empty default")
}
