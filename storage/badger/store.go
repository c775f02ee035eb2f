package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
)

// Store implements storage.Backend on BadgerDB.
//
// Each entry lives under makeEntryKey(id) together with the sequence number
// it was first written with. makeOrderKey(seq) maps back to the ID, so
// iterating the order prefix yields insertion order.
type Store struct {
	mu      sync.Mutex // serializes writers so read-modify-write transactions never conflict
	backend *Backend
	seq     *badger.Sequence
	path    string
}

var _ storage.Backend = (*Store)(nil)

// Open opens or creates the key-value log in the directory at path.
func Open(path string, opts ...Option) (*Store, error) {
	backend, err := OpenBackend(path, false, opts...)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, path)
	if err != nil {
		backend.Close()
		return nil, err
	}
	backend.logger.Debug("opened badger store", "path", path)
	return s, nil
}

// NewStore creates a Store on an open backend. The Store owns the backend
// and closes it on Close.
func NewStore(backend *Backend, path string) (*Store, error) {
	seq, err := backend.GetSequence(entrySeq)
	if err != nil {
		return nil, fmt.Errorf("%w: sequence: %w", storage.ErrBackend, err)
	}
	return &Store{
		backend: backend,
		seq:     seq,
		path:    path,
	}, nil
}

func backendErr(op string, err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return storage.ErrClosed
	}
	return fmt.Errorf("%w: %s: %w", storage.ErrBackend, op, err)
}

// readEntry loads the entry stored under id. found is false when absent.
func readEntry(tx *badger.Txn, id string) (seq uint64, entry core.LogEntry, found bool, err error) {
	item, err := tx.Get(makeEntryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, core.LogEntry{}, false, nil
	}
	if err != nil {
		return 0, core.LogEntry{}, false, backendErr("get "+id, err)
	}
	err = item.Value(func(val []byte) error {
		var uerr error
		seq, entry, uerr = storage.UnmarshalSequencedEntry(val)
		return uerr
	})
	if err != nil {
		return 0, core.LogEntry{}, false, err
	}
	return seq, entry, true, nil
}

// write stores entry, allocating a new position when it is not yet present.
func (s *Store) write(tx *badger.Txn, entry core.LogEntry, seq uint64, exists bool) error {
	if !exists {
		next, err := s.seq.Next()
		if err != nil {
			return backendErr("sequence", err)
		}
		seq = next
		if err := tx.Set(makeOrderKey(seq), []byte(entry.ID)); err != nil {
			return backendErr("set order "+entry.ID, err)
		}
	}
	value := storage.MarshalSequencedEntry(seq, entry.Normalized())
	if err := tx.Set(makeEntryKey(entry.ID), value); err != nil {
		return backendErr("set "+entry.ID, err)
	}
	return nil
}

func commit(tx *badger.Txn) error {
	if err := tx.Commit(); err != nil {
		return backendErr("commit", err)
	}
	return nil
}

// SaveEntry implements storage.Backend.
func (s *Store) SaveEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.WithTx(func(tx *badger.Txn) error {
		seq, _, found, err := readEntry(tx, entry.ID)
		if err != nil {
			return err
		}
		if err := s.write(tx, entry, seq, found); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// AddEntry implements storage.Backend.
func (s *Store) AddEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.WithTx(func(tx *badger.Txn) error {
		_, _, found, err := readEntry(tx, entry.ID)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("%w: %s", storage.ErrEntryExists, entry.ID)
		}
		if err := s.write(tx, entry, 0, false); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// GetEntry implements storage.Backend.
func (s *Store) GetEntry(ctx context.Context, id string) (*core.LogEntry, error) {
	var result *core.LogEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, entry, found, err := readEntry(tx, id)
		if err != nil || !found {
			return err
		}
		result = &entry
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListEntries implements storage.Backend.
func (s *Store) ListEntries(ctx context.Context) ([]core.LogEntry, error) {
	var entries []core.LogEntry

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(orderPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return backendErr("read order index", err)
			}
			_, entry, found, err := readEntry(tx, string(id))
			if err != nil {
				return err
			}
			if !found {
				s.backend.logger.Warn("order index points at missing entry", "id", string(id))
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntry implements storage.Backend.
func (s *Store) UpdateEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.WithTx(func(tx *badger.Txn) error {
		seq, _, found, err := readEntry(tx, entry.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, entry.ID)
		}
		if err := s.write(tx, entry, seq, true); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// DeleteEntry implements storage.Backend.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.WithTx(func(tx *badger.Txn) error {
		seq, _, found, err := readEntry(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		if err := tx.Delete(makeEntryKey(id)); err != nil {
			return backendErr("delete "+id, err)
		}
		if err := tx.Delete(makeOrderKey(seq)); err != nil {
			return backendErr("delete order "+id, err)
		}
		return commit(tx)
	}, true)
}

// Clear implements storage.Backend.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.DropPrefixes(entryPrefix, orderPrefix); err != nil {
		return backendErr("clear", err)
	}
	return nil
}

// Format implements storage.Backend.
func (s *Store) Format() storage.Format {
	return storage.FormatBadger
}

// Path implements storage.Backend.
func (s *Store) Path() string {
	return s.path
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend.IsClosed() {
		return nil
	}
	if err := s.seq.Release(); err != nil {
		s.backend.logger.Error("error releasing entry sequence", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		return backendErr("close", err)
	}
	return nil
}
