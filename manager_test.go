package amlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/amlog/adif"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFormats = []storage.Format{
	storage.FormatJSON,
	storage.FormatSQLite,
	storage.FormatADIF,
	storage.FormatBadger,
}

func newManager(t *testing.T, format storage.Format, opts ...Option) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), format.DefaultFileName())
	m, err := NewManager(context.Background(), format, path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_AddListExportScenario(t *testing.T) {
	for _, format := range allFormats {
		t.Run(format.String(), func(t *testing.T) {
			ctx := context.Background()
			m := newManager(t, format)
			assert.Equal(t, format, m.Format())

			entry := storagetest.Entry("a")
			require.NoError(t, m.AddEntry(ctx, entry))

			entries, err := m.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, entry, entries[0])

			out, err := m.ExportADIF(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(out, "<eor>"))
			assert.Contains(t, out, "<CALL:4>W1AW")
			assert.Contains(t, out, "<FREQ:6>14.074")
			assert.Contains(t, out, "<MODE:3>FT8")
		})
	}
}

func TestManager_CRUD(t *testing.T) {
	for _, format := range allFormats {
		t.Run(format.String(), func(t *testing.T) {
			ctx := context.Background()
			m := newManager(t, format)

			require.NoError(t, m.SaveEntry(ctx, storagetest.FullEntry("a")))
			assert.ErrorIs(t, m.AddEntry(ctx, storagetest.Entry("a")), storage.ErrEntryExists)

			updated := storagetest.Entry("a")
			updated.Notes = "changed"
			require.NoError(t, m.UpdateEntry(ctx, updated))

			got, err := m.GetEntry(ctx, "a")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, updated, *got)

			assert.ErrorIs(t, m.UpdateEntry(ctx, storagetest.Entry("zz")), storage.ErrNotFound)
			assert.ErrorIs(t, m.DeleteEntry(ctx, "zz"), storage.ErrNotFound)

			require.NoError(t, m.DeleteEntry(ctx, "a"))
			got, err = m.GetEntry(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, m.SaveEntry(ctx, storagetest.Entry("b")))
			require.NoError(t, m.Clear(ctx))
			entries, err := m.ListEntries(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestNewManager_CorruptJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logbook.json")
	original := []byte("{{{ definitely not json")
	require.NoError(t, os.WriteFile(path, original, 0644))

	m, err := NewManager(ctx, storage.FormatJSON, path)
	require.Error(t, err)
	require.NotNil(t, m)
	defer m.Close()

	assert.True(t, IsCorruption(err))
	assert.ErrorIs(t, err, storage.ErrParse)

	entries, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, backup)
}

func TestNewManager_Errors(t *testing.T) {
	ctx := context.Background()

	m, err := NewManager(ctx, storage.Format(99), filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, storage.ErrUnknownFormat)
	assert.Nil(t, m)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	m, err = NewManager(ctx, storage.FormatBadger, file)
	assert.Error(t, err)
	assert.False(t, IsCorruption(err))
	assert.Nil(t, m)
}

func TestManager_ExportADIFFastPath(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, storage.FormatADIF)

	// Nothing written yet: the file does not exist and the export is encoded.
	out, err := m.ExportADIF(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "<eoh>")
	assert.NotContains(t, out, "<eor>")

	require.NoError(t, m.SaveEntry(ctx, storagetest.FullEntry("a")))
	out, err = m.ExportADIF(ctx)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), out)
}

const importPayload = `Some other logger
<ADIF_VER:5>3.1.4 <eoh>
<CALL:5>K1ABC <QSO_DATE:8>20240101 <TIME_ON:4>1200 <FREQ:5>7.074 <MODE:3>FT8 <POTA_REF:6>K-0001 <eor>
<CALL:4>N0XX <QSO_DATE:8>20240102 <TIME_ON:6>130512 <FREQ:6>14.074 <MODE:2>CW <eor>
<QSO_DATE:8>20240103 <TIME_ON:4>1400 <FREQ:6>14.074 <MODE:3>SSB <eor>
`

func TestManager_ImportADIF(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, storage.FormatJSON)

	result, err := m.ImportADIF(ctx, importPayload)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 2, result.Skipped[0].Index)
	assert.ErrorIs(t, result.Skipped[0], adif.ErrMissingField)

	first, err := m.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "K-0001", first[0].CustomFields["pota_ref"])

	// Re-importing the same payload is idempotent.
	result, err = m.ImportADIF(ctx, importPayload)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	second, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestManager_ImportADIFAllFormats(t *testing.T) {
	for _, format := range allFormats {
		t.Run(format.String(), func(t *testing.T) {
			ctx := context.Background()
			m := newManager(t, format)
			require.NoError(t, m.SaveEntry(ctx, storagetest.Entry("a")))

			result, err := m.ImportADIF(ctx, importPayload)
			require.NoError(t, err)
			assert.Equal(t, 2, result.Imported)

			entries, err := m.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, "a", entries[0].ID)
			assert.Equal(t, []string{"K1ABC", "N0XX"}, []string{entries[1].Callsign, entries[2].Callsign})
		})
	}
}

func TestManager_ImportOwnExportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, storage.FormatSQLite)
	require.NoError(t, m.SaveEntry(ctx, storagetest.FullEntry("a")))
	require.NoError(t, m.SaveEntry(ctx, storagetest.Entry("b")))

	before, err := m.ListEntries(ctx)
	require.NoError(t, err)

	out, err := m.ExportADIF(ctx)
	require.NoError(t, err)
	_, err = m.ImportADIF(ctx, out)
	require.NoError(t, err)

	after, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManager_ImportADIFErrors(t *testing.T) {
	ctx := context.Background()

	m := newManager(t, storage.FormatJSON)
	_, err := m.ImportADIF(ctx, "<CALL:99>W1AW<eor>")
	assert.ErrorIs(t, err, storage.ErrADIF)
	assert.ErrorIs(t, err, adif.ErrSyntax)

	strict := newManager(t, storage.FormatJSON, WithDecodeOptions(adif.WithPolicy(adif.AbortOnInvalid)))
	_, err = strict.ImportADIF(ctx, importPayload)
	assert.ErrorIs(t, err, storage.ErrADIF)
	assert.ErrorIs(t, err, adif.ErrMissingField)

	entries, err := strict.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "an aborted decode saves nothing")
}

func TestManager_ChangeStorageFormat_JSONToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "logbook.json")

	m, err := NewManager(ctx, storage.FormatJSON, jsonPath)
	require.NoError(t, err)
	defer m.Close()

	want := []core.LogEntry{
		storagetest.FullEntry("a"),
		storagetest.Entry("b"),
		storagetest.Entry("c"),
	}
	for _, e := range want {
		require.NoError(t, m.AddEntry(ctx, e))
	}
	source, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	dbPath := filepath.Join(dir, "logbook.db")
	require.NoError(t, m.ChangeStorageFormat(ctx, storage.FormatSQLite, dbPath))
	assert.Equal(t, storage.FormatSQLite, m.Format())
	assert.Equal(t, dbPath, m.Path())

	got, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	after, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, source, after, "migration must not touch the source")
}

func TestManager_ChangeStorageFormat_AllPairs(t *testing.T) {
	ctx := context.Background()
	for _, from := range allFormats {
		for _, to := range allFormats {
			t.Run(from.String()+"_to_"+to.String(), func(t *testing.T) {
				dir := t.TempDir()
				m, err := NewManager(ctx, from, filepath.Join(dir, "src-"+from.DefaultFileName()))
				require.NoError(t, err)
				defer m.Close()

				want := []core.LogEntry{storagetest.FullEntry("x"), storagetest.Entry("y")}
				for _, e := range want {
					require.NoError(t, m.SaveEntry(ctx, e))
				}

				require.NoError(t, m.ChangeStorageFormat(ctx, to, filepath.Join(dir, "dst-"+to.DefaultFileName())))
				got, err := m.ListEntries(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestManager_ChangeStorageFormat_SamePath(t *testing.T) {
	m := newManager(t, storage.FormatJSON)
	err := m.ChangeStorageFormat(context.Background(), storage.FormatADIF, m.Path())
	assert.ErrorIs(t, err, ErrSameStorage)
	assert.Equal(t, storage.FormatJSON, m.Format())
}

func TestManager_ChangeStorageFormat_PartialFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := NewManager(ctx, storage.FormatSQLite, filepath.Join(dir, "logbook.db"))
	require.NoError(t, err)
	defer m.Close()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.SaveEntry(ctx, storagetest.Entry(id)))
	}

	// The target opens fine but every write fails: its temp path is taken
	// by a directory.
	target := filepath.Join(dir, "logbook.json")
	require.NoError(t, os.Mkdir(storage.TempPath(target), 0755))

	err = m.ChangeStorageFormat(ctx, storage.FormatJSON, target)
	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.ErrorIs(t, err, ErrIncompleteMigration)
	assert.ErrorIs(t, err, storage.ErrIO)
	assert.Equal(t, 0, migErr.Replayed)
	assert.Equal(t, 3, migErr.Total)

	// No rollback: the new backend is active.
	assert.Equal(t, storage.FormatJSON, m.Format())

	// The source still holds everything.
	src, err := NewManager(ctx, storage.FormatSQLite, filepath.Join(dir, "logbook.db"))
	require.NoError(t, err)
	defer src.Close()
	entries, err := src.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestManager_ChangeStorageFormat_CorruptTarget(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, storage.FormatJSON)
	require.NoError(t, m.SaveEntry(ctx, storagetest.Entry("a")))

	target := filepath.Join(t.TempDir(), "logbook.adi")
	require.NoError(t, os.WriteFile(target, []byte("<CALL:50>"), 0644))

	err := m.ChangeStorageFormat(ctx, storage.FormatADIF, target)
	assert.True(t, IsCorruption(err))
	assert.Equal(t, storage.FormatJSON, m.Format(), "current backend stays active")

	entries, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManager_Closed(t *testing.T) {
	m := newManager(t, storage.FormatJSON)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	ctx := context.Background()
	assert.ErrorIs(t, m.SaveEntry(ctx, storagetest.Entry("a")), storage.ErrClosed)
	_, err := m.ListEntries(ctx)
	assert.ErrorIs(t, err, storage.ErrClosed)
	_, err = m.ExportADIF(ctx)
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, m.ChangeStorageFormat(ctx, storage.FormatSQLite, filepath.Join(t.TempDir(), "x.db")), storage.ErrClosed)
}

func TestManager_ConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, storage.FormatJSON)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.AddEntry(ctx, storagetest.Entry(fmt.Sprintf("e%02d", i))))
		}()
	}
	wg.Wait()

	entries, err := m.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}
