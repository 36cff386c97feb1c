// Package mock provides test double implementations of AI service interfaces.
//
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	summarizer := mock.NewMockSummarizer()
//	summarizer.SummarizeFunc = func(ctx context.Context, prev string, msgs []core.ChatMessage) (string, error) {
//	    return "fixed summary", nil
//	}
//
//	count := summarizer.CallCount()
//
// # Default Behavior
//
// MockSummarizer appends one line per summarized message ("role: first words")
// to the previous summary, so tests can see exactly what was folded in.
package mock
