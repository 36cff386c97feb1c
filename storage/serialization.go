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

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// LocalRecord is the on-disk envelope for a local value.
type LocalRecord struct {
	Value     string
	WrittenAt time.Time
}

// MarshalLocalRecord serializes a LocalRecord to bytes.
// Layout: value (length-prefixed string), written-at (varint unix micros).
func MarshalLocalRecord(record *LocalRecord) []byte {
	micros := record.WrittenAt.UnixMicro()
	buf := make([]byte, ord.String.Size(record.Value)+varint.Int64.Size(micros))
	n := ord.String.Marshal(record.Value, buf)
	varint.Int64.Marshal(micros, buf[n:])
	return buf
}

// UnmarshalLocalRecord deserializes a LocalRecord from bytes.
func UnmarshalLocalRecord(data []byte) (*LocalRecord, error) {
	value, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: value: %w", ErrSerializationFailed, err)
	}
	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: written-at: %w", ErrSerializationFailed, err)
	}
	return &LocalRecord{
		Value:     value,
		WrittenAt: time.UnixMicro(micros).UTC(),
	}, nil
}
