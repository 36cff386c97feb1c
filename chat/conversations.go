package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/flofy/core"
)

// ErrUnknownListKey is returned by NewConversations for keys that do not
// hold a conversation list.
var ErrUnknownListKey = errors.New("not a conversation list key")

// Conversations is a shared conversation list stored under
// crm_conversations or flofy_conversations, newest first. Its empty default
// is an empty slice.
type Conversations struct {
	store  Store
	key    string
	logger *slog.Logger
	now    func() time.Time
}

// NewConversations returns the accessor for the list stored under key, which
// must be core.CRMConversationsKey or core.FlofyConversationsKey.
func NewConversations(store Store, key string, opts ...Option) (*Conversations, error) {
	if key != core.CRMConversationsKey && key != core.FlofyConversationsKey {
		return nil, fmt.Errorf("%w: %q", ErrUnknownListKey, key)
	}
	cfg := newAccessorConfig(opts)
	return &Conversations{
		store:  store,
		key:    key,
		logger: cfg.logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Key returns the storage key.
func (c *Conversations) Key() string { return c.key }

// List returns the stored conversations.
func (c *Conversations) List(ctx context.Context) ([]core.Conversation, error) {
	return loadJSON(ctx, c.store, c.logger, c.key, func() []core.Conversation {
		return []core.Conversation{}
	})
}

// Save replaces the list.
func (c *Conversations) Save(ctx context.Context, list []core.Conversation) error {
	if list == nil {
		list = []core.Conversation{}
	}
	return saveJSON(ctx, c.store, c.key, list)
}

// Upsert stores conv at the front of the list, replacing any entry with the
// same id. A blank id is derived from the user id and title; a zero
// UpdatedAt is set to now. Returns the stored conversation.
func (c *Conversations) Upsert(ctx context.Context, conv core.Conversation) (core.Conversation, error) {
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = c.now()
	}
	if strings.TrimSpace(conv.ID) == "" {
		conv.ID = core.IDFromContent(conv.UserID + "\x00" + conv.Title).String()
	}

	list, err := c.List(ctx)
	if err != nil {
		return conv, err
	}
	list = slices.DeleteFunc(list, func(existing core.Conversation) bool {
		return existing.ID == conv.ID
	})
	list = slices.Insert(list, 0, conv)

	if err := c.Save(ctx, list); err != nil {
		return conv, err
	}
	return conv, nil
}

// Delete removes the conversation with id. Reports whether it was present.
func (c *Conversations) Delete(ctx context.Context, id string) (bool, error) {
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	before := len(list)
	list = slices.DeleteFunc(list, func(existing core.Conversation) bool {
		return existing.ID == id
	})
	if len(list) == before {
		return false, nil
	}
	return true, c.Save(ctx, list)
}
