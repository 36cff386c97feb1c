// Package migration copies chat data written before remote sync existed into
// the remote document.
//
// A Sweeper runs once per device. It enumerates the local store, selects keys
// in the legacy chat namespaces and rewrites each one through a Target
// (normally an adapter.Adapter), which mirrors it to the remote. Only a fully
// successful sweep sets the completion flag; a partial sweep is retried in
// full on the next run.
package migration
