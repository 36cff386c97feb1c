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

// Package storage defines the two key/value backends flofy synchronizes.
//
// # Architecture
//
//   - LocalStore: durable on-device storage. Always available, no network.
//     Implemented by storage/badger.
//   - RemoteStore: a per-user document in a network store. Authoritative but
//     not always reachable. Implemented by storage/mongo, storage/redis and,
//     for tests, storage/mock.
//
// Neither backend interprets keys. A key such as "chatHistory_u1" is an opaque
// string at this layer; namespacing lives in package core.
//
// # Remote documents
//
// Each user owns one remote document holding a "storage" mapping of key to
// string value plus a server-assigned "lastUpdated" timestamp. Every remote
// operation touches a single field of a single document. Users without an id
// share the core.AnonymousUserID document.
//
// # Errors
//
// Remote implementations wrap every network, auth and configuration failure
// in ErrRemoteUnavailable so callers can test for it with errors.Is. Missing
// documents and fields are reported as ErrNotFound by both backends.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
