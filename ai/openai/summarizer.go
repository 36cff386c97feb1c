// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/flofy/ai"
	"github.com/poiesic/flofy/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client   llms.Model
	maxWords int
	logger   *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newSummarizerWithModel(client, config.MaxSummaryWords), nil
}

func newSummarizerWithModel(client llms.Model, maxWords int) *Summarizer {
	return &Summarizer{
		client:   client,
		maxWords: maxWords,
		logger:   slog.Default().With("component", "openai-summarizer"),
	}
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize folds messages into previous using an LLM.
func (s *Summarizer) Summarize(ctx context.Context, previous string, messages []core.ChatMessage) (string, error) {
	transcript := ai.FormatTranscript(messages)
	if transcript == "" {
		return "", ai.ErrNothingToSummarize
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt(s.maxWords)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(previous, transcript)),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		s.logger.Error("failed to generate summary", "err", err)
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}

	summary := cleanSummary(response.Choices[0].Content)
	if summary == "" {
		return "", ai.ErrEmptyResponse
	}

	s.logger.Debug("summarized transcript", "messages", len(messages), "chars", len(summary))
	return summary, nil
}
