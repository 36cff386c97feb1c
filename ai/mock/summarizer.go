package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/flofy/ai"
	"github.com/poiesic/flofy/core"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses the default line-per-message behavior.
	SummarizeFunc func(ctx context.Context, previous string, messages []core.ChatMessage) (string, error)

	mu        sync.Mutex
	callCount int
	lastBatch []core.ChatMessage
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize records the call and produces a deterministic summary.
func (m *MockSummarizer) Summarize(ctx context.Context, previous string, messages []core.ChatMessage) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastBatch = append([]core.ChatMessage(nil), messages...)
	fn := m.SummarizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, previous, messages)
	}
	if len(messages) == 0 {
		return "", ai.ErrNothingToSummarize
	}

	lines := make([]string, 0, len(messages)+1)
	if previous != "" {
		lines = append(lines, previous)
	}
	for _, msg := range messages {
		words := strings.Fields(msg.Content)
		if len(words) > 3 {
			words = words[:3]
		}
		lines = append(lines, string(msg.Role)+": "+strings.Join(words, " "))
	}
	return strings.Join(lines, "\n"), nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastBatch returns the messages passed to the most recent call.
func (m *MockSummarizer) LastBatch() []core.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ChatMessage(nil), m.lastBatch...)
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastBatch = nil
	m.SummarizeFunc = nil
}
