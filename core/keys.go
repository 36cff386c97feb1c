package core

import "strings"

// AnonymousUserID is the document id used when no user id is known.
const AnonymousUserID = "anonymous"

// Well-known local keys. These strings are shared with data written by
// earlier clients and must not change.
const (
	ChatHistoryPrefix      = "chatHistory_"
	ChatSummaryPrefix      = "chatSummary_"
	CRMConversationsKey    = "crm_conversations"
	FlofyConversationsKey  = "flofy_conversations"
	UserIDKey              = "userId"
	MigrationCompleteKey   = "firebase_migration_complete"
	MigrationCompleteValue = "true"
)

// ChatHistoryKey returns the transcript key for a user.
func ChatHistoryKey(userID string) string {
	return ChatHistoryPrefix + userID
}

// ChatSummaryKey returns the rolling summary key for a user.
func ChatSummaryKey(userID string) string {
	return ChatSummaryPrefix + userID
}

// IsLegacyKey reports whether key belongs to one of the namespaces that
// predate remote sync and must be copied by the migration sweep.
func IsLegacyKey(key string) bool {
	switch {
	case strings.Contains(key, ChatHistoryPrefix):
		return true
	case strings.Contains(key, ChatSummaryPrefix):
		return true
	case key == CRMConversationsKey, key == FlofyConversationsKey:
		return true
	}
	return false
}
