package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		s, err := NewMemoryStore()
		require.NoError(t, err)
		return s
	})
}

func TestStorePersistence(t *testing.T) {
	storagetest.RunPersistence(t, func(t *testing.T, dir string) storage.Backend {
		s, err := Open(filepath.Join(dir, "logbook.badger"))
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logbook.badger")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, storage.FormatBadger, s.Format())
	assert.Equal(t, path, s.Path())

	require.NoError(t, s.SaveEntry(ctx, storagetest.FullEntry("b")))
	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	// New entries land after the existing ones.
	require.NoError(t, reopened.AddEntry(ctx, storagetest.Entry("c")))

	entries, err := reopened.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, storagetest.FullEntry("b"), entries[0])
	assert.Equal(t, "a", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
}

func TestStore_DeleteRemovesOrderKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))
	require.NoError(t, s.DeleteEntry(ctx, "a"))
	require.NoError(t, s.SaveEntry(ctx, storagetest.Entry("a")))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a re-added entry must be listed once")
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
