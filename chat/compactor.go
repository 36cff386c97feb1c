package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/flofy/ai"
	"github.com/poiesic/flofy/core"
)

var (
	// ErrInvalidKeepRecent is returned when keepRecent is < 1.
	ErrInvalidKeepRecent = errors.New("keepRecent must be greater than 0")

	// ErrInvalidThreshold is returned when threshold is < 1.
	ErrInvalidThreshold = errors.New("threshold must be greater than 0")

	// ErrHistoryRewritten is returned when the summarized messages are no
	// longer at the head of the transcript once the summary is ready.
	ErrHistoryRewritten = errors.New("history rewritten during compaction")
)

// Compactor keeps a transcript short by folding its oldest messages into the
// rolling summary.
type Compactor struct {
	history    *History
	summary    *Summary
	summarizer ai.Summarizer
	keepRecent int
	threshold  int
	logger     *slog.Logger
	now        func() time.Time
}

// CompactorOption configures a Compactor.
type CompactorOption func(*Compactor) error

// WithKeepRecent sets how many of the newest messages survive a compaction.
// Default: 20
func WithKeepRecent(n int) CompactorOption {
	return func(c *Compactor) error {
		if n < 1 {
			return ErrInvalidKeepRecent
		}
		c.keepRecent = n
		return nil
	}
}

// WithThreshold sets how many messages beyond keepRecent must accumulate
// before a compaction runs. Default: 10
func WithThreshold(n int) CompactorOption {
	return func(c *Compactor) error {
		if n < 1 {
			return ErrInvalidThreshold
		}
		c.threshold = n
		return nil
	}
}

// WithCompactorLogger sets a custom logger.
func WithCompactorLogger(logger *slog.Logger) CompactorOption {
	return func(c *Compactor) error {
		if logger != nil {
			c.logger = logger.With("component", "compactor")
		}
		return nil
	}
}

// NewCompactor creates a compactor over a user's history and summary.
func NewCompactor(history *History, summary *Summary, summarizer ai.Summarizer, opts ...CompactorOption) (*Compactor, error) {
	c := &Compactor{
		history:    history,
		summary:    summary,
		summarizer: summarizer,
		keepRecent: 20,
		threshold:  10,
		logger:     slog.Default().With("component", "compactor"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compact summarizes the overflow when the transcript is longer than
// keepRecent+threshold. Reports whether a compaction happened.
//
// The summary is saved before the transcript is trimmed, so a failure
// between the two writes never loses messages.
func (c *Compactor) Compact(ctx context.Context) (bool, error) {
	messages, err := c.history.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(messages) <= c.keepRecent+c.threshold {
		return false, nil
	}
	return true, c.fold(ctx, messages, len(messages)-c.keepRecent)
}

// Force summarizes everything except the newest keepRecent messages,
// ignoring the threshold. Reports whether there was anything to fold.
func (c *Compactor) Force(ctx context.Context) (bool, error) {
	messages, err := c.history.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(messages) <= c.keepRecent {
		return false, nil
	}
	return true, c.fold(ctx, messages, len(messages)-c.keepRecent)
}

func (c *Compactor) fold(ctx context.Context, messages []core.ChatMessage, cut int) error {
	previous, err := c.summary.Load(ctx)
	if err != nil {
		return err
	}

	overflow := messages[:cut]
	text, err := c.summarizer.Summarize(ctx, previous.Text, overflow)
	if err != nil {
		return fmt.Errorf("summarize %d messages: %w", len(overflow), err)
	}

	// Messages appended while the summarizer ran are kept.
	current, err := c.history.Load(ctx)
	if err != nil {
		return err
	}
	if len(current) < cut || !slices.EqualFunc(current[:cut], overflow, sameMessage) {
		return ErrHistoryRewritten
	}

	next := core.ChatSummary{
		Text:         text,
		MessageCount: previous.MessageCount + len(overflow),
		UpdatedAt:    c.now(),
	}
	if err := c.summary.Save(ctx, next); err != nil {
		return err
	}
	if err := c.history.Save(ctx, current[cut:]); err != nil {
		return err
	}

	c.logger.Info("compacted transcript",
		"key", c.history.Key(),
		"folded", len(overflow),
		"kept", len(current)-cut,
		"total_summarized", next.MessageCount)
	return nil
}

func sameMessage(a, b core.ChatMessage) bool {
	return a.Role == b.Role && a.Content == b.Content && a.Timestamp.Equal(b.Timestamp)
}
