package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/flofy/core"
)

// History is the transcript of one user, stored under chatHistory_<userID>.
// Its empty default is an empty slice.
type History struct {
	store  Store
	key    string
	logger *slog.Logger
	now    func() time.Time
}

// NewHistory returns the transcript accessor for userID. A blank user id
// maps to the anonymous transcript.
func NewHistory(store Store, userID string, opts ...Option) (*History, error) {
	resolved, err := core.ResolveUserID(userID)
	if err != nil {
		return nil, err
	}
	cfg := newAccessorConfig(opts)
	return &History{
		store:  store,
		key:    core.ChatHistoryKey(resolved),
		logger: cfg.logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Key returns the storage key.
func (h *History) Key() string { return h.key }

// Load returns the stored transcript, oldest message first.
func (h *History) Load(ctx context.Context) ([]core.ChatMessage, error) {
	return loadJSON(ctx, h.store, h.logger, h.key, func() []core.ChatMessage {
		return []core.ChatMessage{}
	})
}

// Save replaces the transcript.
func (h *History) Save(ctx context.Context, messages []core.ChatMessage) error {
	if messages == nil {
		messages = []core.ChatMessage{}
	}
	return saveJSON(ctx, h.store, h.key, messages)
}

// Append validates messages, stamps any without a timestamp and adds them to
// the end of the transcript. Returns the new transcript length.
func (h *History) Append(ctx context.Context, messages ...core.ChatMessage) (int, error) {
	messages = slices.Clone(messages)
	for i := range messages {
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = h.now()
		}
		if err := core.ValidateChatMessage(&messages[i]); err != nil {
			return 0, fmt.Errorf("message %d: %w", i, err)
		}
	}

	current, err := h.Load(ctx)
	if err != nil {
		return 0, err
	}
	current = append(current, messages...)
	if err := h.Save(ctx, current); err != nil {
		return 0, err
	}
	return len(current), nil
}

// Clear stores an empty transcript. The key itself is kept so the cleared
// state reaches the remote document.
func (h *History) Clear(ctx context.Context) error {
	return h.Save(ctx, nil)
}
