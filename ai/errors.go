package ai

import "errors"

var (
	// ErrNothingToSummarize is returned when Summarize is given no messages.
	ErrNothingToSummarize = errors.New("no messages to summarize")

	// ErrEmptyResponse is returned when the model produces no usable text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)
