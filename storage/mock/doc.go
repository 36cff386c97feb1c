// Package mock provides an in-memory storage.RemoteStore for tests.
//
// The mock records every confirmed SetField in order and lets tests inject
// failures per operation, simulating an unreachable or misconfigured remote
// without any network.
package mock
