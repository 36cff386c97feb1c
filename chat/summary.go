package chat

import (
	"context"
	"log/slog"

	"github.com/poiesic/flofy/core"
)

// Summary is the rolling summary of one user's transcript, stored under
// chatSummary_<userID>. Its empty default is the zero ChatSummary.
type Summary struct {
	store  Store
	key    string
	logger *slog.Logger
}

// NewSummary returns the summary accessor for userID.
func NewSummary(store Store, userID string, opts ...Option) (*Summary, error) {
	resolved, err := core.ResolveUserID(userID)
	if err != nil {
		return nil, err
	}
	cfg := newAccessorConfig(opts)
	return &Summary{
		store:  store,
		key:    core.ChatSummaryKey(resolved),
		logger: cfg.logger,
	}, nil
}

// Key returns the storage key.
func (s *Summary) Key() string { return s.key }

// Load returns the stored summary.
func (s *Summary) Load(ctx context.Context) (core.ChatSummary, error) {
	return loadJSON(ctx, s.store, s.logger, s.key, func() core.ChatSummary {
		return core.ChatSummary{}
	})
}

// Save replaces the summary.
func (s *Summary) Save(ctx context.Context, summary core.ChatSummary) error {
	return saveJSON(ctx, s.store, s.key, summary)
}

// Clear stores the zero summary.
func (s *Summary) Clear(ctx context.Context) error {
	return s.Save(ctx, core.ChatSummary{})
}
