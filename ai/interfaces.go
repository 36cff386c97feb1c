package ai

import (
	"context"

	"github.com/poiesic/flofy/core"
)

// Summarizer condenses chat messages into a short prose summary.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize folds messages into previous, which may be empty, and returns
	// the new summary. Returns ErrNothingToSummarize when messages is empty.
	Summarize(ctx context.Context, previous string, messages []core.ChatMessage) (string, error)
}

// AIProvider aggregates the AI services flofy uses.
// Implementations must be thread-safe for concurrent use.
type AIProvider interface {
	// Summarizer returns the summarization service.
	Summarizer() Summarizer

	// Close releases any resources held by the provider.
	Close() error
}
