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

package storage

import "errors"

var (
	// ErrNotFound indicates that the requested key was not found.
	ErrNotFound = errors.New("key not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrRemoteUnavailable indicates a network, auth or configuration failure
	// talking to the remote backend.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrRemoteNotConfigured indicates the remote backend lacks the settings
	// it needs to connect.
	ErrRemoteNotConfigured = errors.New("remote store not configured")

	// ErrTooManySubscriptions indicates the watcher pool is exhausted.
	ErrTooManySubscriptions = errors.New("too many subscriptions")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
