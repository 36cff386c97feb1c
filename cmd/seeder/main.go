// Command seeder fills a local store with chat data laid out the way
// clients wrote it before remote sync existed, for trying out migration.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	"github.com/poiesic/flofy/storage/badger"
)

var lines = []string{
	"Hi, can you help me pick a plan?",
	"Of course. Are you trading mostly stocks or crypto?",
	"Mostly stocks, a few ETFs.",
	"Then the standard plan covers everything you need.",
	"What are the fees on the standard plan?",
	"There is no monthly fee, only a small per-trade commission.",
	"Can I switch plans later?",
	"Yes, you can switch at any time from account settings.",
	"How do I verify my email?",
	"We just sent you a code. Enter it in the chat window.",
	"Got it, thanks!",
	"Happy to help. Anything else?",
	"Is there a mobile app?",
	"Yes, for both iOS and Android.",
	"Does it sync with the web version?",
	"Your conversations and settings follow you across devices.",
}

var (
	dataDir  = flag.String("db", "./flofy-data", "path to the local BadgerDB directory")
	userID   = flag.String("user", "anonymous", "user id used in key names")
	seedFile = flag.String("src", "", "file of transcript lines, alternating user and assistant")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// transcript turns lines into messages, alternating user and assistant,
// one minute apart ending at now.
func transcript(source iter.Seq[string], now time.Time) []core.ChatMessage {
	var messages []core.ChatMessage
	for line := range source {
		if line == "" {
			continue
		}
		role := core.RoleUser
		if len(messages)%2 == 1 {
			role = core.RoleAssistant
		}
		messages = append(messages, core.ChatMessage{Role: role, Content: line})
	}
	for i := range messages {
		messages[i].Timestamp = now.Add(-time.Duration(len(messages)-1-i) * time.Minute)
	}
	return messages
}

// seed writes the history, an empty summary and one conversation entry in
// each list. Values go straight to the local store, bypassing remote sync.
func seed(ctx context.Context, local storage.LocalStore, user string, messages []core.ChatMessage) error {
	now := time.Now().UTC()
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	conversations := []core.Conversation{{
		ID:          core.IDFromContent(user + "\x00seed").String(),
		UserID:      user,
		Title:       "Plan questions",
		LastMessage: last,
		UpdatedAt:   now,
	}}

	values := map[string]any{
		core.ChatHistoryKey(user):  messages,
		core.ChatSummaryKey(user):  core.ChatSummary{UpdatedAt: now},
		core.CRMConversationsKey:   conversations,
		core.FlofyConversationsKey: conversations,
	}
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := local.Set(ctx, key, string(data)); err != nil {
			return err
		}
		slog.Info("seeded", "key", key, "bytes", len(data))
	}
	return local.Set(ctx, core.UserIDKey, user)
}

func main() {
	flag.Parse()

	backend, err := badger.OpenBackend(*dataDir, false)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	source := linesFromSlice(lines)
	if *seedFile != "" {
		source, err = linesFromFile(*seedFile)
		if err != nil {
			panic(err)
		}
	}

	messages := transcript(source, time.Now().UTC())
	if err := seed(context.Background(), badger.NewLocalStore(backend), *userID, messages); err != nil {
		panic(err)
	}
}
