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

package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
)

// LocalStore implements storage.LocalStore for BadgerDB.
type LocalStore struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.LocalStore = (*LocalStore)(nil)

// NewLocalStore creates a new LocalStore.
func NewLocalStore(backend *Backend) *LocalStore {
	return &LocalStore{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the value stored under key.
func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	record, err := s.Record(ctx, key)
	if err != nil {
		return "", err
	}
	return record.Value, nil
}

// Record returns the stored envelope for key, including its write time.
func (s *LocalStore) Record(ctx context.Context, key string) (*storage.LocalRecord, error) {
	var record *storage.LocalRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLocalKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalLocalRecord(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Set writes value under key.
func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		record := &storage.LocalRecord{Value: value, WrittenAt: s.now()}
		if err := tx.Set(makeLocalKey(key), storage.MarshalLocalRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Remove deletes key. Missing keys are ignored.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeLocalKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Keys returns every stored key in ascending byte order.
func (s *LocalStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(localEntryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, parseLocalKey(iter.Item().Key()))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return keys, nil
}
