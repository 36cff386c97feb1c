package badger

// Key prefixes for different data types
const (
	localEntryPrefix = "kv:"
)

// makeLocalKey generates the badger key for a local entry.
// Format: prefix + opaque key
func makeLocalKey(key string) []byte {
	buf := make([]byte, len(localEntryPrefix)+len(key))
	offset := copy(buf, localEntryPrefix)
	copy(buf[offset:], key)
	return buf
}

// parseLocalKey strips the entry prefix from a badger key.
func parseLocalKey(raw []byte) string {
	return string(raw[len(localEntryPrefix):])
}
