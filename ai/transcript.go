package ai

import (
	"strings"

	"github.com/poiesic/flofy/core"
)

// FormatTranscript renders messages as "role: content" lines, skipping
// messages with blank content. Summarizers use it to build prompts.
func FormatTranscript(messages []core.ChatMessage) string {
	var b strings.Builder
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String()
}
