package mock

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
)

// MockRemote is a test double for storage.RemoteStore.
// It allows custom behavior injection via function fields.
type MockRemote struct {
	// EnsureFunc is called by EnsureUserDocument before the default behavior.
	// A non-nil error is returned to the caller.
	EnsureFunc func(ctx context.Context, userID string) error

	// SetFunc is called by SetField before the write is applied.
	// A non-nil error aborts the write.
	SetFunc func(ctx context.Context, userID, key, value string) error

	// GetFunc is called by GetField before the lookup.
	// A non-nil error is returned to the caller.
	GetFunc func(ctx context.Context, userID, key string) error

	mu          sync.Mutex
	configured  bool
	docs        map[string]*core.Document
	writes      []core.Entry
	subs        map[string]*subscription
	nextSubID   int
	ensureCalls int
	setCalls    int
	getCalls    int
	closed      bool
	now         func() time.Time
}

var _ storage.RemoteStore = (*MockRemote)(nil)

// NewMockRemote creates a configured, reachable mock remote.
// Note: Returns concrete type to allow test assertions.
func NewMockRemote() *MockRemote {
	return &MockRemote{
		configured: true,
		docs:       make(map[string]*core.Document),
		subs:       make(map[string]*subscription),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Unavailable returns an error wrapping storage.ErrRemoteUnavailable.
// Handy as the return value of an injected function.
func Unavailable(op string) error {
	return fmt.Errorf("%w: mock %s failed", storage.ErrRemoteUnavailable, op)
}

// SetConfigured changes what Configured reports.
func (m *MockRemote) SetConfigured(configured bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = configured
}

// FailAll makes every operation fail with ErrRemoteUnavailable until
// Recover is called.
func (m *MockRemote) FailAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureFunc = func(context.Context, string) error { return Unavailable("ensure") }
	m.SetFunc = func(context.Context, string, string, string) error { return Unavailable("set") }
	m.GetFunc = func(context.Context, string, string) error { return Unavailable("get") }
}

// Recover clears all injected failures.
func (m *MockRemote) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureFunc = nil
	m.SetFunc = nil
	m.GetFunc = nil
}

// Configured reports the configured flag.
func (m *MockRemote) Configured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured
}

// EnsureUserDocument creates an empty document if needed.
func (m *MockRemote) EnsureUserDocument(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.ensureCalls++
	fn := m.EnsureFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, userID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, storage.ErrStorageClosed)
	}
	if _, ok := m.docs[userID]; !ok {
		m.docs[userID] = &core.Document{UserID: userID, Storage: map[string]string{}, LastUpdated: m.now()}
	}
	return nil
}

// SetField upserts a field and records the write.
func (m *MockRemote) SetField(ctx context.Context, userID, key, value string) error {
	m.mu.Lock()
	m.setCalls++
	fn := m.SetFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, userID, key, value); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, err)
	}

	doc, handlers, err := m.apply(userID, key, value, true)
	if err != nil {
		return err
	}
	for _, h := range handlers {
		h(doc)
	}
	return nil
}

// GetField returns a stored field.
func (m *MockRemote) GetField(ctx context.Context, userID, key string) (string, error) {
	m.mu.Lock()
	m.getCalls++
	fn := m.GetFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, userID, key); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, storage.ErrStorageClosed)
	}
	doc, ok := m.docs[userID]
	if !ok {
		return "", storage.ErrNotFound
	}
	value, ok := doc.Storage[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Subscribe registers onChange for userID. Handlers run synchronously on the
// writing goroutine, in write order.
func (m *MockRemote) Subscribe(ctx context.Context, userID string, onChange storage.ChangeHandler) (storage.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, storage.ErrStorageClosed)
	}
	m.nextSubID++
	sub := &subscription{
		id:     "mock-" + strconv.Itoa(m.nextSubID),
		userID: userID,
		fn:     onChange,
		remote: m,
	}
	m.subs[sub.id] = sub
	return sub, nil
}

// Close marks the remote closed and drops subscriptions.
func (m *MockRemote) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.subs)
	return nil
}

// SimulateRemoteWrite applies a write as if another device made it. It is
// not recorded in Writes but does notify subscribers.
func (m *MockRemote) SimulateRemoteWrite(userID, key, value string) {
	doc, handlers, err := m.apply(userID, key, value, false)
	if err != nil {
		return
	}
	for _, h := range handlers {
		h(doc)
	}
}

// apply writes the field and returns a document snapshot plus the handlers
// to notify.
func (m *MockRemote) apply(userID, key, value string, record bool) (core.Document, []storage.ChangeHandler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return core.Document{}, nil, fmt.Errorf("%w: %w", storage.ErrRemoteUnavailable, storage.ErrStorageClosed)
	}
	doc, ok := m.docs[userID]
	if !ok {
		doc = &core.Document{UserID: userID, Storage: map[string]string{}}
		m.docs[userID] = doc
	}
	doc.Storage[key] = value
	doc.LastUpdated = m.now()
	if record {
		m.writes = append(m.writes, core.Entry{Key: key, Value: value})
	}

	snapshot := core.Document{UserID: userID, Storage: maps.Clone(doc.Storage), LastUpdated: doc.LastUpdated}
	var handlers []storage.ChangeHandler
	for _, sub := range m.subs {
		if sub.userID == userID {
			handlers = append(handlers, sub.fn)
		}
	}
	return snapshot, handlers, nil
}

// Writes returns the confirmed SetField calls in order.
func (m *MockRemote) Writes() []core.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Entry(nil), m.writes...)
}

// Field returns a stored field without counting as a GetField call.
func (m *MockRemote) Field(userID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return "", false
	}
	return doc.Field(key)
}

// HasDocument reports whether a document exists for userID.
func (m *MockRemote) HasDocument(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[userID]
	return ok
}

// EnsureCalls returns the number of EnsureUserDocument calls.
func (m *MockRemote) EnsureCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureCalls
}

// SetCalls returns the number of SetField calls, including failed ones.
func (m *MockRemote) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCalls
}

// GetCalls returns the number of GetField calls, including failed ones.
func (m *MockRemote) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// SubscriberCount returns the number of live subscriptions.
func (m *MockRemote) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

type subscription struct {
	id     string
	userID string
	fn     storage.ChangeHandler
	remote *MockRemote
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Unsubscribe() {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	delete(s.remote.subs, s.id)
}
