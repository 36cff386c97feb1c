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

package core

import "errors"

// Domain validation errors
var (
	// ErrEmptyKey indicates an entry key is empty.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrInvalidUserID indicates a user id cannot be used as a document id.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidMessage indicates a ChatMessage failed validation.
	ErrInvalidMessage = errors.New("invalid chat message")

	// ErrInvalidRole indicates an unknown message role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDecode indicates a stored value is not valid structured data.
	ErrDecode = errors.New("decode stored value")
)
