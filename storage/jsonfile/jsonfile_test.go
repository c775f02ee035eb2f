package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		s, err := Open(filepath.Join(t.TempDir(), "logbook.json"))
		require.NoError(t, err)
		return s
	})
}

func TestStorePersistence(t *testing.T) {
	storagetest.RunPersistence(t, func(t *testing.T, dir string) storage.Backend {
		s, err := Open(filepath.Join(dir, "logbook.json"))
		require.NoError(t, err)
		return s
	})
}

func TestOpen_MissingFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "logbook.json")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, storage.FormatJSON, s.Format())
	assert.Equal(t, path, s.Path())
}

func TestOpen_WhitespaceOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n\t\n"), 0644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = os.Stat(storage.BackupPath(path))
	assert.True(t, os.IsNotExist(err), "blank file is not corruption")
}

func TestOpen_CorruptFileIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.json")
	original := []byte(`[{"id":"a","callsign":`)
	require.NoError(t, os.WriteFile(path, original, 0644))

	s, err := Open(path)
	require.Error(t, err)
	require.NotNil(t, s, "store must stay usable after corruption")
	defer s.Close()

	assert.ErrorIs(t, err, storage.ErrParse)
	var corrupt *storage.CorruptionError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, storage.BackupPath(path), corrupt.BackupPath)

	backup, readErr := os.ReadFile(corrupt.BackupPath)
	require.NoError(t, readErr)
	assert.Equal(t, original, backup)

	ctx := context.Background()
	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.AddEntry(ctx, storagetest.Entry("a")))
	backup, readErr = os.ReadFile(corrupt.BackupPath)
	require.NoError(t, readErr)
	assert.Equal(t, original, backup, "later writes must not touch the backup")
}

func TestOpen_InvalidEntryIsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","timestamp":"2024-03-09T18:04:00Z","frequency":14.074,"mode":"FT8"}]`), 0644))

	s, err := Open(path)
	require.NotNil(t, s)
	defer s.Close()
	assert.ErrorIs(t, err, storage.ErrParse)
	assert.ErrorIs(t, err, core.ErrEmptyCallsign)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logbook.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveEntry(ctx, storagetest.FullEntry("a")))
	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("b")))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, storagetest.FullEntry("a"), entries[0])
	assert.Equal(t, storagetest.Entry("b"), entries[1])
}

func TestFileLayout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logbook.json")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "a", raw[0]["id"])
	assert.Equal(t, "W1AW", raw[0]["callsign"])
	assert.Equal(t, "2024-03-09T18:04:00Z", raw[0]["timestamp"])
	assert.NotContains(t, raw[0], "power", "absent optional fields are omitted")
	assert.NotContains(t, raw[0], "custom_fields")

	require.NoError(t, s.Clear(ctx))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestReadAcceptsNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.json")
	content := `[{
		"id": "a",
		"timestamp": "2024-03-09T13:04:00-05:00",
		"callsign": "W1AW",
		"frequency": 14.074,
		"mode": "FT8",
		"power": null,
		"dxcc": null,
		"custom_fields": {}
	}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetEntry(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Power)
	assert.Nil(t, got.DXCC)
	assert.Nil(t, got.CustomFields)
	assert.Equal(t, time.UTC, got.Timestamp.Location())
	assert.True(t, got.Timestamp.Equal(time.Date(2024, 3, 9, 18, 4, 0, 0, time.UTC)))
}

func TestFailedWriteLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "logbook.json")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))

	// A directory squatting on the temp path makes the staged write fail.
	require.NoError(t, os.Mkdir(storage.TempPath(path), 0755))

	err = s.SaveEntry(ctx, storagetest.Entry("b"))
	assert.ErrorIs(t, err, storage.ErrIO)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

func TestClosed(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "logbook.json"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.ListEntries(context.Background())
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.SaveEntry(context.Background(), storagetest.Entry("a")), storage.ErrClosed)
}
