package mongo

import "strings"

var (
	fieldEscaper   = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")
	fieldUnescaper = strings.NewReplacer("%2E", ".", "%24", "$", "%25", "%")
)

// escapeField turns a storage key into a safe field name.
func escapeField(key string) string {
	return fieldEscaper.Replace(key)
}

// unescapeField reverses escapeField.
func unescapeField(field string) string {
	return fieldUnescaper.Replace(field)
}

// storagePath returns the dotted update path for key.
func storagePath(key string) string {
	return "storage." + escapeField(key)
}
