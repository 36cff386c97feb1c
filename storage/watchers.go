package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// DefaultMaxSubscriptions is the watcher pool size used when none is given.
const DefaultMaxSubscriptions = 64

// Watchers runs long-lived subscription loops on a bounded goroutine pool.
// Remote store implementations use it to back Subscribe.
type Watchers struct {
	pool   *ants.Pool
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string]*watch
	closed bool
}

// NewWatchers creates a pool that runs at most max loops at once.
// A max below 1 selects DefaultMaxSubscriptions.
func NewWatchers(max int, logger *slog.Logger) (*Watchers, error) {
	if max < 1 {
		max = DefaultMaxSubscriptions
	}
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(max, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Watchers{
		pool:   pool,
		logger: logger,
		subs:   make(map[string]*watch),
	}, nil
}

// Start runs loop on the pool. loop must return promptly once its context is
// canceled. cleanup, if non-nil, runs after loop returns, or immediately if
// the loop could not be started.
//
// Returns ErrTooManySubscriptions when the pool is full and ErrStorageClosed
// after Close.
func (w *Watchers) Start(loop func(ctx context.Context), cleanup func()) (Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &watch{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		owner:  w,
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		cancel()
		if cleanup != nil {
			cleanup()
		}
		return nil, ErrStorageClosed
	}
	w.subs[sub.id] = sub
	w.mu.Unlock()

	err := w.pool.Submit(func() {
		defer close(sub.done)
		defer w.forget(sub.id)
		if cleanup != nil {
			defer cleanup()
		}
		loop(ctx)
	})
	if err != nil {
		w.forget(sub.id)
		cancel()
		if cleanup != nil {
			cleanup()
		}
		if errors.Is(err, ants.ErrPoolOverload) {
			return nil, ErrTooManySubscriptions
		}
		return nil, fmt.Errorf("start watcher: %w", err)
	}

	w.logger.Debug("watcher started", "subscription", sub.id, "running", w.Running())
	return sub, nil
}

// Running returns the number of live subscriptions. A loop that returns on
// its own stops counting once it exits.
func (w *Watchers) Running() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Close stops every loop, waits for them to exit and releases the pool.
func (w *Watchers) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	subs := make([]*watch, 0, len(w.subs))
	for _, sub := range w.subs {
		subs = append(subs, sub)
	}
	w.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	w.pool.Release()
}

func (w *Watchers) forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subs, id)
}

type watch struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	owner  *Watchers
	once   sync.Once
}

func (s *watch) ID() string { return s.id }

// Unsubscribe cancels the loop and waits for it to exit. It must not be
// called from inside the loop's change handler.
func (s *watch) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.owner.forget(s.id)
		s.owner.logger.Debug("watcher stopped", "subscription", s.id)
	})
}
