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

// Package storagetest provides a conformance suite that every
// storage.Backend implementation runs from its own tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty backend. The suite closes it.
type Opener func(t *testing.T) storage.Backend

// Reopener opens the backend kept at a fixed location inside dir. Calling it
// again with the same dir must reach the same stored data.
type Reopener func(t *testing.T, dir string) storage.Backend

// Entry returns a minimal valid entry with the given ID. Timestamps have
// whole-second precision so entries also survive the ADIF representation.
func Entry(id string) core.LogEntry {
	return core.LogEntry{
		ID:        id,
		Timestamp: time.Date(2024, 3, 9, 18, 4, 0, 0, time.UTC),
		Callsign:  "W1AW",
		Frequency: 14.074,
		Mode:      "FT8",
	}
}

// FullEntry returns an entry with every optional field populated.
func FullEntry(id string) core.LogEntry {
	e := Entry(id)
	e.RSTSent = "-10"
	e.RSTReceived = "-12"
	e.Notes = "worked on first call"
	e.Operator = "N0CALL"
	e.Grid = "FN31pr"
	e.Power = core.Float64(100)
	e.QTH = "Newington"
	e.State = "CT"
	e.Country = "United States"
	e.Band = "20m"
	e.DXCC = core.Int(291)
	e.Name = "Hiram"
	e.County = "Hartford"
	e.MyCallsign = "N0CALL"
	e.MyGrid = "EM10"
	e.CustomFields = map[string]string{"pota_ref": "K-0001", "sig": "POTA"}
	return e
}

// Run exercises the storage.Backend contract against backends produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, b storage.Backend)
	}{
		{"Empty", testEmpty},
		{"SaveAndGet", testSaveAndGet},
		{"SaveReplacesAllFields", testSaveReplacesAllFields},
		{"AddEntry", testAddEntry},
		{"AddDuplicate", testAddDuplicate},
		{"ListInsertionOrder", testListInsertionOrder},
		{"UpdateEntry", testUpdateEntry},
		{"UpdateMissing", testUpdateMissing},
		{"DeleteEntry", testDeleteEntry},
		{"DeleteMissing", testDeleteMissing},
		{"Clear", testClear},
		{"ReturnsCopies", testReturnsCopies},
		{"RejectsInvalid", testRejectsInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := open(t)
			defer b.Close()
			tc.fn(t, b)
		})
	}
}

func testEmpty(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	got, err := b.GetEntry(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testSaveAndGet(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	entry := FullEntry("a")

	require.NoError(t, b.SaveEntry(ctx, entry))

	got, err := b.GetEntry(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)
}

func testSaveReplacesAllFields(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	require.NoError(t, b.SaveEntry(ctx, FullEntry("a")))

	replacement := Entry("a")
	replacement.Callsign = "K1ABC"
	require.NoError(t, b.SaveEntry(ctx, replacement))

	got, err := b.GetEntry(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, replacement, *got, "fields absent from the new value must be cleared")

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testAddEntry(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	entry := FullEntry("a")
	require.NoError(t, b.AddEntry(ctx, entry))

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func testAddDuplicate(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	original := Entry("a")
	require.NoError(t, b.AddEntry(ctx, original))

	dup := Entry("a")
	dup.Callsign = "K1ABC"
	err := b.AddEntry(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrEntryExists)

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, original, entries[0], "failed add must leave the store unchanged")
}

func testListInsertionOrder(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	ids := []string{"zulu", "alpha", "mike", "bravo"}
	for _, id := range ids {
		require.NoError(t, b.SaveEntry(ctx, Entry(id)))
	}

	// Replacing an entry keeps its position.
	updated := Entry("alpha")
	updated.Mode = "CW"
	require.NoError(t, b.SaveEntry(ctx, updated))

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, entries[i].ID)
	}
	assert.Equal(t, "CW", entries[1].Mode)
}

func testUpdateEntry(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	require.NoError(t, b.SaveEntry(ctx, FullEntry("a")))

	updated := FullEntry("a")
	updated.Notes = ""
	updated.Power = nil
	updated.CustomFields = map[string]string{"wwff_ref": "KFF-0001"}
	require.NoError(t, b.UpdateEntry(ctx, updated))

	got, err := b.GetEntry(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, updated, *got)
}

func testUpdateMissing(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	require.NoError(t, b.SaveEntry(ctx, Entry("a")))

	err := b.UpdateEntry(ctx, Entry("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

func testDeleteEntry(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	require.NoError(t, b.SaveEntry(ctx, Entry("a")))
	require.NoError(t, b.SaveEntry(ctx, Entry("b")))

	require.NoError(t, b.DeleteEntry(ctx, "a"))

	got, err := b.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
}

func testDeleteMissing(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	require.NoError(t, b.SaveEntry(ctx, Entry("a")))

	err := b.DeleteEntry(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testClear(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.SaveEntry(ctx, Entry(fmt.Sprintf("e%d", i))))
	}

	require.NoError(t, b.Clear(ctx))

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The store stays usable after clearing.
	require.NoError(t, b.AddEntry(ctx, Entry("e0")))
}

func testReturnsCopies(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	entry := FullEntry("a")
	require.NoError(t, b.SaveEntry(ctx, entry))

	// Mutating the caller's value after saving must not reach the store.
	entry.CustomFields["pota_ref"] = "changed"
	*entry.Power = 1

	got, err := b.GetEntry(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "K-0001", got.CustomFields["pota_ref"])
	assert.Equal(t, 100.0, *got.Power)

	// Mutating a returned value must not reach the store either.
	got.CustomFields["pota_ref"] = "changed"
	got.Callsign = "K1ABC"

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "K-0001", entries[0].CustomFields["pota_ref"])
	assert.Equal(t, "W1AW", entries[0].Callsign)
}

func testRejectsInvalid(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	bad := Entry("a")
	bad.Callsign = " "

	assert.ErrorIs(t, b.SaveEntry(ctx, bad), core.ErrInvalidEntry)
	assert.ErrorIs(t, b.AddEntry(ctx, bad), core.ErrInvalidEntry)

	entries, err := b.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// RunPersistence checks that what a backend serves from memory is what it
// returns after being closed and opened again.
func RunPersistence(t *testing.T, open Reopener) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, open Reopener)
	}{
		{"ReopenMatchesCache", testReopenMatchesCache},
		{"EmptyCustomValue", testEmptyCustomValue},
		{"SubSecondTimestamp", testSubSecondTimestamp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open)
		})
	}
}

// saveAndReopen saves entries, then returns the listing before closing and
// the listing after reopening.
func saveAndReopen(t *testing.T, open Reopener, entries ...core.LogEntry) (before, after []core.LogEntry) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	b := open(t, dir)
	for _, e := range entries {
		require.NoError(t, b.SaveEntry(ctx, e))
	}
	before, err := b.ListEntries(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	reopened := open(t, dir)
	defer reopened.Close()
	after, err = reopened.ListEntries(ctx)
	require.NoError(t, err)
	return before, after
}

func testReopenMatchesCache(t *testing.T, open Reopener) {
	before, after := saveAndReopen(t, open, FullEntry("a"), Entry("b"))
	require.Len(t, before, 2)
	assert.Equal(t, before, after)
	assert.Equal(t, FullEntry("a"), after[0])
}

func testEmptyCustomValue(t *testing.T, open Reopener) {
	entry := Entry("a")
	entry.CustomFields = map[string]string{"app_x_flag": "", "sig": "POTA"}

	before, after := saveAndReopen(t, open, entry)
	assert.Equal(t, before, after)
	require.Len(t, after, 1)
	assert.Equal(t, entry.CustomFields, after[0].CustomFields)
}

func testSubSecondTimestamp(t *testing.T, open Reopener) {
	entry := Entry("a")
	entry.Timestamp = entry.Timestamp.Add(123456789 * time.Nanosecond)

	before, after := saveAndReopen(t, open, entry)
	require.Len(t, after, 1)
	assert.Equal(t, before, after, "cached and stored timestamps must agree")
	assert.Equal(t, entry.Timestamp.Truncate(time.Second), after[0].Timestamp.Truncate(time.Second))
}
