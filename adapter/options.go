package adapter

import (
	"log/slog"
	"time"

	"github.com/poiesic/flofy/core"
)

// Option configures an Adapter.
type Option func(*Adapter) error

// WithUserID sets the remote document id explicitly.
// Default: the local "userId" key, then core.AnonymousUserID.
func WithUserID(userID string) Option {
	return func(a *Adapter) error {
		a.explicitUserID = userID
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "adapter")
		return nil
	}
}

// WithRetryPolicy sets the policy applied to every remote call.
// Default is DefaultRetryPolicy: one attempt, no backoff.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(a *Adapter) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		a.retry = policy
		return nil
	}
}

// WithRemoteTimeout bounds each remote call. Zero, the default, leaves remote
// calls unbounded apart from the caller's context.
func WithRemoteTimeout(timeout time.Duration) Option {
	return func(a *Adapter) error {
		if timeout < 0 {
			return ErrInvalidTimeout
		}
		a.remoteTimeout = timeout
		return nil
	}
}

// WithOnline sets the initial connectivity. Default is online.
func WithOnline(online bool) Option {
	return func(a *Adapter) error {
		a.online = online
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) error {
		a.metrics = m
		return nil
	}
}

// WithClock overrides the time source used for pending entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) error {
		if now != nil {
			a.now = now
		}
		return nil
	}
}

// WithOnApply registers fn to run after Follow copies a remote change into
// the local store. fn runs on the subscription goroutine.
func WithOnApply(fn func(core.Entry)) Option {
	return func(a *Adapter) error {
		a.onApply = fn
		return nil
	}
}
