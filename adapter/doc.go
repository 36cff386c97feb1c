// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package adapter provides the single entry point for durable key/value
// access that degrades gracefully when the network is unavailable.
//
// An Adapter pairs a storage.LocalStore with an optional storage.RemoteStore.
// Every write lands in the local store first, so a value is never lost while
// offline. When the remote is active the adapter mirrors writes to it and
// treats it as the authoritative copy on reads: a remote value that differs
// from the local one replaces it.
//
// # States
//
// An adapter starts Uninitialized. The first public call moves it to
// Initializing, which settles on RemoteActive when the remote reports itself
// configured and the user's document could be ensured, or LocalOnly
// otherwise. There is no promotion from LocalOnly within a process.
// Initialization outlives the call that triggered it: a caller whose context
// ends stops waiting, and the attempt carries on for the next one.
//
// # Pending writes
//
// Writes that could not be confirmed remotely are queued in memory in arrival
// order. The queue is drained, oldest first, when the injected connectivity
// signal flips from offline to online. A drain stops at the first failure and
// leaves the remainder untouched. The queue does not survive restarts.
//
// Two rules deviate from plain queue-then-drain and remote-wins behavior:
//
//   - A confirmed direct write of a key drops every queued entry for that
//     key, even though those entries were never confirmed. The newer value
//     already reached the remote, so draining the older ones would only
//     roll it back.
//   - A key with a queued entry keeps its local value on Get and in Follow.
//     The remote copy is stale until the queue drains, so it does not win.
//
// # Errors
//
// Remote failures are never returned from Set or Get. Only local store
// failures and invalid arguments surface to callers.
package adapter
