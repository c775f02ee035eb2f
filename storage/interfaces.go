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
	"context"

	"github.com/poiesic/amlog/core"
)

// Backend persists log entries in one physical representation.
// Implementations must be safe for concurrent use.
type Backend interface {
	// SaveEntry inserts the entry, or replaces every field of the stored entry
	// with the same ID. Fields absent from entry are cleared, not merged.
	SaveEntry(ctx context.Context, entry core.LogEntry) error

	// AddEntry inserts the entry.
	// Returns ErrEntryExists if an entry with the same ID is already stored;
	// the store is left unchanged.
	AddEntry(ctx context.Context, entry core.LogEntry) error

	// GetEntry retrieves a copy of the entry with the given ID.
	// Returns (nil, nil) if no such entry exists.
	GetEntry(ctx context.Context, id string) (*core.LogEntry, error)

	// ListEntries returns copies of all entries in insertion order.
	ListEntries(ctx context.Context) ([]core.LogEntry, error)

	// UpdateEntry replaces the stored entry with the same ID.
	// Returns ErrNotFound if the entry doesn't exist.
	UpdateEntry(ctx context.Context, entry core.LogEntry) error

	// DeleteEntry removes the entry with the given ID.
	// Returns ErrNotFound if the entry doesn't exist; other entries are untouched.
	DeleteEntry(ctx context.Context, id string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Format reports which physical representation the backend uses.
	Format() Format

	// Path returns the file or directory the backend stores data in.
	Path() string

	// Close releases resources held by the backend.
	Close() error
}

// BatchSaver is implemented by backends that can upsert many entries in one
// write. SaveEntries either stores every entry or none of them.
type BatchSaver interface {
	SaveEntries(ctx context.Context, entries []core.LogEntry) error
}
