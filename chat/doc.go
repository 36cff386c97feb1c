// Package chat provides typed accessors over the storage adapter for the
// chatbot widget's well-known keys: the per-user transcript, the per-user
// rolling summary and the shared conversation list.
//
// Values are stored as JSON. A value that is missing or cannot be decoded
// reads as the accessor's empty default; the decode failure is logged and
// never returned.
package chat
