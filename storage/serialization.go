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

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/amlog/core"
)

// UnmarshalEntry deserializes a LogEntry from bytes. The result is normalized,
// so its timestamp is in UTC and an empty custom field map is nil.
func UnmarshalEntry(data []byte) (core.LogEntry, error) {
	entry, _, err := core.LogEntryMUS.Unmarshal(data)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return entry.Normalized(), nil
}

// MarshalSequencedEntry serializes an insertion sequence number followed by a LogEntry.
func MarshalSequencedEntry(seq uint64, entry core.LogEntry) []byte {
	buf := make([]byte, varint.Uint64.Size(seq)+core.LogEntryMUS.Size(entry))
	n := varint.Uint64.Marshal(seq, buf)
	core.LogEntryMUS.Marshal(entry, buf[n:])
	return buf
}

// UnmarshalSequencedEntry deserializes data written by MarshalSequencedEntry.
func UnmarshalSequencedEntry(data []byte) (uint64, core.LogEntry, error) {
	seq, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, core.LogEntry{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	entry, err := UnmarshalEntry(data[n:])
	if err != nil {
		return 0, core.LogEntry{}, err
	}
	return seq, entry, nil
}
