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

package amlog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
)

// UndoBuffer remembers deleted entries so they can be restored, most recent
// first. It belongs to the caller, not to the storage layer; restoring is a
// plain SaveEntry.
type UndoBuffer struct {
	depth int
	items []core.DeletedEntry
	now   func() time.Time
}

// NewUndoBuffer returns a buffer holding at most depth entries. When full,
// the oldest entry is forgotten. A depth of zero or less means unbounded.
func NewUndoBuffer(depth int) *UndoBuffer {
	return &UndoBuffer{depth: depth, now: time.Now}
}

// RestoreUndoBuffer rebuilds a buffer from Items, oldest first.
func RestoreUndoBuffer(depth int, items []core.DeletedEntry) *UndoBuffer {
	u := NewUndoBuffer(depth)
	for _, item := range items {
		u.push(item)
	}
	return u
}

// Push records that entry was deleted from position index of the caller's view.
func (u *UndoBuffer) Push(entry core.LogEntry, index int) {
	u.push(core.DeletedEntry{
		Entry:     entry.Clone(),
		Index:     index,
		DeletedAt: u.now().UTC(),
	})
}

func (u *UndoBuffer) push(item core.DeletedEntry) {
	u.items = append(u.items, item)
	if u.depth > 0 && len(u.items) > u.depth {
		u.items = slices.Delete(u.items, 0, len(u.items)-u.depth)
	}
}

// Len reports how many deletions can be undone.
func (u *UndoBuffer) Len() int {
	return len(u.items)
}

// Items returns the remembered deletions, oldest first.
func (u *UndoBuffer) Items() []core.DeletedEntry {
	return slices.Clone(u.items)
}

// Peek returns the most recent deletion without removing it.
func (u *UndoBuffer) Peek() (core.DeletedEntry, bool) {
	if len(u.items) == 0 {
		return core.DeletedEntry{}, false
	}
	return u.items[len(u.items)-1], true
}

// Delete removes the entry at position index of view through m and records
// it. It returns the view without the entry. An index outside view yields
// storage.ErrNotFound and changes nothing.
func (u *UndoBuffer) Delete(ctx context.Context, m *Manager, view []core.LogEntry, index int) ([]core.LogEntry, error) {
	if index < 0 || index >= len(view) {
		return view, fmt.Errorf("%w: index %d of %d", storage.ErrNotFound, index, len(view))
	}
	entry := view[index]
	if err := m.DeleteEntry(ctx, entry.ID); err != nil {
		return view, err
	}
	u.Push(entry, index)
	return slices.Delete(slices.Clone(view), index, index+1), nil
}

// Undo saves the most recent deletion back through m and reinserts it into
// view at its remembered position, or at the end if view has since shrunk.
// It returns the new view and the restored item. If saving fails the item
// stays in the buffer.
func (u *UndoBuffer) Undo(ctx context.Context, m *Manager, view []core.LogEntry) ([]core.LogEntry, core.DeletedEntry, error) {
	item, ok := u.Peek()
	if !ok {
		return view, core.DeletedEntry{}, ErrNothingToUndo
	}
	if err := m.SaveEntry(ctx, item.Entry); err != nil {
		return view, core.DeletedEntry{}, err
	}
	u.items = u.items[:len(u.items)-1]

	pos := min(max(item.Index, 0), len(view))
	return slices.Insert(slices.Clone(view), pos, item.Entry.Clone()), item, nil
}
