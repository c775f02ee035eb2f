package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return openMemory(t)
	})
}

func TestStorePersistence(t *testing.T) {
	storagetest.RunPersistence(t, func(t *testing.T, dir string) storage.Backend {
		s, err := Open(context.Background(), filepath.Join(dir, "logbook.db"))
		require.NoError(t, err)
		return s
	})
}

func TestOpen_FileAndMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "logbook.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, storage.FormatSQLite, s.Format())
	assert.Equal(t, path, s.Path())

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, s.SaveEntry(ctx, storagetest.FullEntry("a")))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopening must not re-run applied migrations or lose data.
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetEntry(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, storagetest.FullEntry("a"), *got)
}

func TestTimestampsSortChronologically(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	defer s.Close()

	base := time.Date(2024, 3, 9, 18, 4, 0, 0, time.UTC)
	stamps := map[string]time.Time{
		"d": base.Add(24 * time.Hour),
		"a": time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		"c": base.Add(500 * time.Millisecond),
		"b": base,
		"e": base.In(time.FixedZone("EST", -5*3600)).Add(time.Hour),
	}
	for _, id := range []string{"d", "a", "c", "b", "e"} {
		e := storagetest.Entry(id)
		e.Timestamp = stamps[id]
		require.NoError(t, s.SaveEntry(ctx, e))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM log_entries ORDER BY timestamp`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		got = append(got, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b", "c", "e", "d"}, got)

	e, err := s.GetEntry(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, stamps["c"], e.Timestamp, "sub-second precision is kept")
}

func TestAbsentValuesAreNull(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	defer s.Close()

	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))

	var power sql.NullFloat64
	var dxcc sql.NullInt64
	var notes, custom sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT power, dxcc, notes, custom_fields FROM log_entries WHERE id = ?`, "a").
		Scan(&power, &dxcc, &notes, &custom)
	require.NoError(t, err)
	assert.False(t, power.Valid)
	assert.False(t, dxcc.Valid)
	assert.False(t, notes.Valid)
	assert.False(t, custom.Valid)
}

func TestCustomFieldsColumn(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	defer s.Close()

	e := storagetest.Entry("a")
	e.CustomFields = map[string]string{"sig": "POTA", "pota_ref": "K-0001"}
	require.NoError(t, s.SaveEntry(ctx, e))

	var custom string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT custom_fields FROM log_entries WHERE id = ?`, "a").Scan(&custom))
	assert.Equal(t, `{"pota_ref":"K-0001","sig":"POTA"}`, custom)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newStore(db, "mock.db"), mock
}

func TestSaveEntry_Branches(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		expectSQL string
	}{
		{"existing row is updated", 1, "UPDATE log_entries SET"},
		{"new row is inserted", 0, "INSERT INTO log_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			mock.ExpectQuery(`SELECT COUNT\(1\) FROM log_entries WHERE id = \?`).
				WithArgs("a").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))
			mock.ExpectExec(tt.expectSQL).WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, s.SaveEntry(context.Background(), storagetest.Entry("a")))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAddEntry_ExistingRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM log_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := s.AddEntry(context.Background(), storagetest.Entry("a"))
	assert.ErrorIs(t, err, storage.ErrEntryExists)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert may follow a positive existence check")
}

func TestUpdateAndDelete_NoRows(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE log_entries SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM log_entries WHERE id").WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.UpdateEntry(ctx, storagetest.Entry("a")), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEntry(ctx, "a"), storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverErrorsWrapErrDatabase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		mock func(mock sqlmock.Sqlmock)
		call func(s *Store) error
	}{
		{
			name: "exists",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT COUNT").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error { return s.SaveEntry(ctx, storagetest.Entry("a")) },
		},
		{
			name: "insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec("INSERT INTO log_entries").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error { return s.AddEntry(ctx, storagetest.Entry("a")) },
		},
		{
			name: "list",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM log_entries ORDER BY rowid").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error { _, err := s.ListEntries(ctx); return err },
		},
		{
			name: "get",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM log_entries WHERE id").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error { _, err := s.GetEntry(ctx, "a"); return err },
		},
		{
			name: "clear",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM log_entries").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error { return s.Clear(ctx) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.mock(mock)

			err := tt.call(s)
			assert.ErrorIs(t, err, storage.ErrDatabase)
			assert.ErrorIs(t, err, assert.AnError)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCorruptTimestampIsParseError(t *testing.T) {
	s, mock := newMockStore(t)

	cols := []string{"id", "timestamp", "callsign", "frequency", "mode", "rst_sent",
		"rst_received", "notes", "operator", "grid", "power", "qth", "state", "country",
		"band", "dxcc", "name", "county", "my_callsign", "my_grid", "custom_fields"}
	values := make([]driver.Value, len(cols))
	values[0], values[1], values[2], values[3], values[4] = "a", "yesterday", "W1AW", 14.074, "FT8"
	mock.ExpectQuery("SELECT (.+) FROM log_entries WHERE id").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(values...))

	_, err := s.GetEntry(context.Background(), "a")
	assert.ErrorIs(t, err, storage.ErrParse)
}

func TestRejectsInvalidBeforeTouchingDatabase(t *testing.T) {
	s, mock := newMockStore(t)

	bad := storagetest.Entry("a")
	bad.Frequency = 0
	assert.ErrorIs(t, s.SaveEntry(context.Background(), bad), core.ErrInvalidFrequency)
	assert.NoError(t, mock.ExpectationsWereMet())
}
