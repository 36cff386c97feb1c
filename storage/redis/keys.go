package redis

import "strings"

const (
	docPrefix        = "flofy:doc:"
	channelPrefix    = "flofy:changes:"
	fieldPrefix      = "s:"
	lastUpdatedField = "lastUpdated"
)

func docKey(userID string) string {
	return docPrefix + userID
}

func channelKey(userID string) string {
	return channelPrefix + userID
}

func storageField(key string) string {
	return fieldPrefix + key
}

// parseStorageField returns the storage key held in field, if any.
func parseStorageField(field string) (string, bool) {
	return strings.CutPrefix(field, fieldPrefix)
}
