package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
)

// Adapter reconciles a local store with an optional remote store.
// It is safe for concurrent use.
type Adapter struct {
	local          storage.LocalStore
	remote         storage.RemoteStore
	retry          RetryPolicy
	remoteTimeout  time.Duration
	explicitUserID string
	metrics        *Metrics
	logger         *slog.Logger
	now            func() time.Time
	onApply        func(core.Entry)

	mu      sync.Mutex
	state   State
	userID  string
	online  bool
	pending pendingQueue
	ready   chan struct{}

	// writeMu serializes remote writes so a drain cannot land an older
	// queued value after a newer direct write of the same key.
	writeMu sync.Mutex
}

// New creates an adapter. remote may be nil, in which case the adapter
// settles on StateLocalOnly.
func New(local storage.LocalStore, remote storage.RemoteStore, opts ...Option) (*Adapter, error) {
	if local == nil {
		return nil, ErrLocalStoreRequired
	}

	a := &Adapter{
		local:  local,
		remote: remote,
		retry:  DefaultRetryPolicy(),
		logger: slog.Default().With("component", "adapter"),
		now:    func() time.Time { return time.Now().UTC() },
		online: true,
		ready:  make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Init runs initialization if it has not happened yet and waits for it to
// settle. Calling Init is optional; every public operation does it lazily.
func (a *Adapter) Init(ctx context.Context) error {
	return a.ensureInit(ctx)
}

// Ready returns a channel closed once initialization has settled.
func (a *Adapter) Ready() <-chan struct{} {
	return a.ready
}

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// UserID returns the resolved remote document id. Empty until initialized.
func (a *Adapter) UserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// Online reports the last connectivity signal.
func (a *Adapter) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.online
}

// Pending returns a snapshot of the unconfirmed writes, oldest first.
func (a *Adapter) Pending() []core.PendingEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.snapshot()
}

// Set stores value under key. The local write always happens first and is
// the only failure reported. Remote failures queue the write for a later
// drain.
func (a *Adapter) Set(ctx context.Context, key, value string) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	if err := a.local.Set(ctx, key, value); err != nil {
		return fmt.Errorf("local set %q: %w", key, err)
	}

	if err := a.ensureInit(ctx); err != nil {
		a.enqueue(key, value)
		return nil
	}

	state, userID, online := a.snapshot()
	if state != StateRemoteActive || !online {
		a.enqueue(key, value)
		return nil
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if err := a.remoteSet(ctx, userID, key, value); err != nil {
		a.logger.Warn("remote write failed, queued for retry", "key", key, "err", err)
		a.enqueue(key, value)
		return nil
	}

	// A confirmed newer write supersedes anything still queued for the key.
	a.mu.Lock()
	if dropped := a.pending.dropKey(key); dropped > 0 {
		a.logger.Debug("dropped superseded pending writes", "key", key, "count", dropped)
	}
	a.metrics.pending(a.pending.len())
	a.mu.Unlock()
	return nil
}

// Get returns the value for key. While the remote is active and reachable, a
// remote value that differs from the local one overwrites the local copy and
// is returned. Keys with unconfirmed local writes keep their local value.
// Returns storage.ErrNotFound when neither store has the key.
func (a *Adapter) Get(ctx context.Context, key string) (string, error) {
	localValue, err := a.local.Get(ctx, key)
	localFound := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("local get %q: %w", key, err)
	}

	fallback := func() (string, error) {
		if !localFound {
			return "", storage.ErrNotFound
		}
		return localValue, nil
	}

	if err := a.ensureInit(ctx); err != nil {
		return fallback()
	}
	state, userID, online := a.snapshot()
	if state != StateRemoteActive || !online {
		return fallback()
	}

	remoteValue, err := a.remoteGet(ctx, userID, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("remote read failed, using local value", "key", key, "err", err)
		}
		return fallback()
	}
	if localFound && remoteValue == localValue {
		return localValue, nil
	}

	if a.hasPending(key) {
		a.logger.Debug("keeping unconfirmed local value", "key", key)
		return fallback()
	}

	if err := a.local.Set(ctx, key, remoteValue); err != nil {
		a.logger.Error("failed to store remote value locally", "key", key, "err", err)
	} else {
		a.metrics.reconciled()
	}
	return remoteValue, nil
}

// Remove deletes key from the local store only. Remote deletion is not
// supported.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.local.Remove(ctx, key); err != nil {
		return fmt.Errorf("local remove %q: %w", key, err)
	}
	return nil
}

// SetOnline feeds the connectivity signal. A transition from offline to
// online drains the pending queue before returning.
func (a *Adapter) SetOnline(ctx context.Context, online bool) {
	a.mu.Lock()
	wasOnline := a.online
	a.online = online
	a.mu.Unlock()

	if online == wasOnline {
		return
	}
	a.logger.Info("connectivity changed", "online", online)
	if !online {
		return
	}

	if err := a.ensureInit(ctx); err != nil {
		return
	}
	if n, err := a.Drain(ctx); err != nil {
		a.logger.Warn("drain stopped", "drained", n, "remaining", len(a.Pending()), "err", err)
	} else if n > 0 {
		a.logger.Info("drained pending writes", "count", n)
	}
}

// WatchConnectivity applies every value received on signals via SetOnline
// until signals is closed or ctx is done.
func (a *Adapter) WatchConnectivity(ctx context.Context, signals <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-signals:
			if !ok {
				return
			}
			a.SetOnline(ctx, online)
		}
	}
}

// Drain writes pending entries to the remote, oldest first. It stops at the
// first failure and leaves the remaining entries queued. Returns the number
// of entries confirmed. Does nothing unless the remote is active.
func (a *Adapter) Drain(ctx context.Context) (int, error) {
	if err := a.ensureInit(ctx); err != nil {
		return 0, err
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	state, userID, _ := a.snapshot()
	if state != StateRemoteActive {
		return 0, nil
	}

	drained := 0
	for {
		a.mu.Lock()
		entry, ok := a.pending.front()
		a.mu.Unlock()
		if !ok {
			return drained, nil
		}

		if err := a.remoteSet(ctx, userID, entry.Key, entry.Value); err != nil {
			return drained, fmt.Errorf("drain %q: %w", entry.Key, err)
		}

		// Only enqueue appends and only writeMu holders remove, so the front
		// is still the entry just written.
		a.mu.Lock()
		a.pending.popFront()
		a.metrics.pending(a.pending.len())
		a.mu.Unlock()
		a.metrics.drained()
		drained++
	}
}

// Follow subscribes to the user's remote document and copies every changed
// field into the local store. Fields with unconfirmed local writes are left
// alone.
func (a *Adapter) Follow(ctx context.Context) (storage.Subscription, error) {
	if err := a.ensureInit(ctx); err != nil {
		return nil, err
	}
	state, userID, _ := a.snapshot()
	if state != StateRemoteActive {
		return nil, ErrNotRemoteActive
	}

	localCtx := context.WithoutCancel(ctx)
	return a.remote.Subscribe(ctx, userID, func(doc core.Document) {
		for key, value := range doc.Storage {
			if a.hasPending(key) {
				continue
			}
			current, err := a.local.Get(localCtx, key)
			if err == nil && current == value {
				continue
			}
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				a.logger.Error("failed to read local value", "key", key, "err", err)
				continue
			}
			if err := a.local.Set(localCtx, key, value); err != nil {
				a.logger.Error("failed to apply remote change", "key", key, "err", err)
				continue
			}
			a.metrics.reconciled()
			a.logger.Debug("applied remote change", "key", key, "fingerprint", core.IDFromContent(value).String())
			if a.onApply != nil {
				a.onApply(core.Entry{Key: key, Value: value})
			}
		}
	})
}

// ensureInit moves the adapter out of StateUninitialized and waits for the
// outcome. Initialization runs detached from ctx, so a canceled caller stops
// waiting without deciding the state for everyone else.
func (a *Adapter) ensureInit(ctx context.Context) error {
	a.mu.Lock()
	switch {
	case a.state.settled():
		a.mu.Unlock()
		return nil
	case a.state == StateUninitialized:
		a.state = StateInitializing
		go a.settle(context.WithoutCancel(ctx))
	}
	a.mu.Unlock()

	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) settle(ctx context.Context) {
	state, userID := a.initialize(ctx)

	a.mu.Lock()
	a.state = state
	a.userID = userID
	a.mu.Unlock()

	a.metrics.state(state)
	a.logger.Info("storage adapter initialized", "state", state.String(), "user", userID)
	close(a.ready)
}

// initialize resolves the user id and decides between remote-active and
// local-only.
func (a *Adapter) initialize(ctx context.Context) (State, string) {
	userID := a.resolveUserID(ctx)

	if a.remote == nil {
		a.logger.Info("no remote store, running local-only")
		return StateLocalOnly, userID
	}
	if !a.remote.Configured() {
		a.logger.Warn("remote store not configured, running local-only")
		return StateLocalOnly, userID
	}

	err := a.retry.Do(ctx, func() error {
		callCtx, cancel := a.remoteContext(ctx)
		defer cancel()
		err := a.remote.EnsureUserDocument(callCtx, userID)
		a.metrics.remoteCall("ensure", err)
		return err
	})
	if err != nil {
		a.logger.Warn("remote setup failed, running local-only", "user", userID, "err", err)
		return StateLocalOnly, userID
	}
	return StateRemoteActive, userID
}

func (a *Adapter) resolveUserID(ctx context.Context) string {
	candidate := a.explicitUserID
	if candidate == "" {
		stored, err := a.local.Get(ctx, core.UserIDKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("failed to read stored user id", "err", err)
		}
		candidate = stored
	}
	userID, err := core.ResolveUserID(candidate)
	if err != nil {
		a.logger.Warn("unusable user id, using anonymous document", "err", err)
		return core.AnonymousUserID
	}
	return userID
}

func (a *Adapter) remoteSet(ctx context.Context, userID, key, value string) error {
	return a.retry.Do(ctx, func() error {
		callCtx, cancel := a.remoteContext(ctx)
		defer cancel()
		err := a.remote.SetField(callCtx, userID, key, value)
		a.metrics.remoteCall("set", err)
		return err
	})
}

func (a *Adapter) remoteGet(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := a.retry.Do(ctx, func() error {
		callCtx, cancel := a.remoteContext(ctx)
		defer cancel()
		var err error
		value, err = a.remote.GetField(callCtx, userID, key)
		if errors.Is(err, storage.ErrNotFound) {
			a.metrics.remoteCall("get", nil)
		} else {
			a.metrics.remoteCall("get", err)
		}
		return err
	})
	return value, err
}

func (a *Adapter) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.remoteTimeout > 0 {
		return context.WithTimeout(ctx, a.remoteTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *Adapter) enqueue(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending.push(core.PendingEntry{
		Entry:      core.Entry{Key: key, Value: value},
		CapturedAt: a.now(),
	})
	a.metrics.pending(a.pending.len())
}

func (a *Adapter) hasPending(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.hasKey(key)
}

func (a *Adapter) snapshot() (State, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.userID, a.online
}
