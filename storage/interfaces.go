package storage

import (
	"context"

	"github.com/poiesic/flofy/core"
)

// LocalStore is durable key/value storage local to one device.
// Implementations must be thread-safe and support concurrent access.
type LocalStore interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns every stored key in ascending byte order.
	Keys(ctx context.Context) ([]string, error)
}

// ChangeHandler receives the full remote document after each remote change.
type ChangeHandler func(doc core.Document)

// Subscription is a live registration returned by RemoteStore.Subscribe.
type Subscription interface {
	// ID identifies the subscription in logs.
	ID() string

	// Unsubscribe stops delivery. It blocks until the handler is no longer
	// running and is safe to call more than once.
	Unsubscribe()
}

// RemoteStore reads and writes fields of a per-user remote document.
// Implementations must not retry internally; failures are wrapped in
// ErrRemoteUnavailable.
type RemoteStore interface {
	// Configured reports whether the backend has the settings it needs.
	// An unconfigured backend must never be treated as active.
	Configured() bool

	// EnsureUserDocument creates an empty document for userID if none exists.
	// Idempotent.
	EnsureUserDocument(ctx context.Context, userID string) error

	// SetField upserts document[userID].storage[key] = value and refreshes
	// the document's lastUpdated timestamp.
	SetField(ctx context.Context, userID, key, value string) error

	// GetField returns document[userID].storage[key].
	// Returns ErrNotFound if the document or the field is absent.
	GetField(ctx context.Context, userID, key string) (string, error)

	// Subscribe registers onChange for every remote change to userID's
	// document. Handlers run in server-observed write order. There is no
	// ordering guarantee relative to local writes by the same client.
	// ctx bounds setup only; delivery continues until Unsubscribe or Close.
	Subscribe(ctx context.Context, userID string, onChange ChangeHandler) (Subscription, error)

	// Close releases connections and stops all subscriptions.
	Close() error
}
