package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic identifier derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as a fixed-width hex string.
func (id ID) String() string {
	s := strconv.FormatUint(uint64(id), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// Entry is a single key/value pair. Keys are opaque to the storage layer.
type Entry struct {
	Key   string
	Value string
}

// PendingEntry is a write that has not been confirmed by the remote store.
// Pending entries live only in memory.
type PendingEntry struct {
	Entry
	CapturedAt time.Time
}

// Document is the remote per-user document.
type Document struct {
	UserID      string
	Storage     map[string]string
	LastUpdated time.Time
}

// Field returns the value stored under key and whether it exists.
func (d *Document) Field(key string) (string, bool) {
	if d == nil || d.Storage == nil {
		return "", false
	}
	v, ok := d.Storage[key]
	return v, ok
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one turn of a chatbot transcript.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSummary is the rolling summary kept for a user's transcript.
type ChatSummary struct {
	Text         string    `json:"text"`
	MessageCount int       `json:"messageCount"` // Messages folded into Text so far
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsZero reports whether the summary holds no content.
func (s ChatSummary) IsZero() bool {
	return s.Text == "" && s.MessageCount == 0
}

// Conversation is an entry in the CRM-wide conversation list.
type Conversation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
