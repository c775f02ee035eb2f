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

// Package filestore implements storage.Backend over a single file that holds
// the whole entry set. Reads are served from an in-memory cache; every
// mutation re-encodes the full set and replaces the file atomically.
//
// The on-disk representation is supplied by a Codec, which is how the JSON
// and ADIF file backends share this implementation.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
)

const filePerm = 0644

// Codec converts between the full entry set and file contents.
type Codec interface {
	// Marshal encodes entries in order.
	Marshal(entries []core.LogEntry) ([]byte, error)
	// Unmarshal decodes non-blank file contents.
	Unmarshal(data []byte) ([]core.LogEntry, error)
}

// Normalizer is implemented by codecs whose format holds less than a
// LogEntry does. Entries pass through Normalize before they are written and
// cached, so the cache holds exactly what reloading the file returns.
type Normalizer interface {
	Normalize(entry core.LogEntry) core.LogEntry
}

// Store is a file-backed storage.Backend.
type Store struct {
	mu      sync.RWMutex
	path    string
	format  storage.Format
	codec   Codec
	kind    error // error kind reported for undecodable files
	entries []core.LogEntry
	index   map[string]int // id -> position in entries
	closed  bool
	logger  *slog.Logger
}

var (
	_ storage.Backend    = (*Store)(nil)
	_ storage.BatchSaver = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Open loads the store at path.
//
// A missing file starts an empty store and creates the parent directories.
// Blank content also starts empty. Content the codec rejects, or that holds
// invalid entries, is moved to storage.BackupPath(path); Open then returns a
// usable empty store together with a *storage.CorruptionError whose Kind is
// kind.
func Open(path string, format storage.Format, codec Codec, kind error, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		format: format,
		codec:  codec,
		kind:   kind,
		index:  make(map[string]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if err := storage.EnsureParentDir(path); err != nil {
		return nil, err
	}

	data, ok, err := storage.ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if !ok || storage.IsBlank(data) {
		s.logger.Debug("starting empty store", "path", path, "format", format)
		return s, nil
	}

	entries, err := s.load(data)
	if err != nil {
		backupErr := storage.BackupCorrupt(path, kind, err)
		var corrupt *storage.CorruptionError
		if !errors.As(backupErr, &corrupt) {
			// The file could not be moved aside; refuse to run over it.
			return nil, backupErr
		}
		s.logger.Warn("moved corrupt store aside", "path", path, "backup", corrupt.BackupPath, "err", err)
		return s, backupErr
	}

	s.install(entries)
	s.logger.Debug("loaded store", "path", path, "format", format, "entries", len(entries))
	return s, nil
}

// load decodes and validates file contents. Repeated IDs collapse to the last
// occurrence, kept at the position of the first.
func (s *Store) load(data []byte) ([]core.LogEntry, error) {
	decoded, err := s.codec.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	entries := make([]core.LogEntry, 0, len(decoded))
	seen := make(map[string]int, len(decoded))
	for i := range decoded {
		if err := core.ValidateEntry(&decoded[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entry := s.normalize(decoded[i])
		if pos, dup := seen[entry.ID]; dup {
			s.logger.Warn("duplicate entry id in store file", "path", s.path, "id", entry.ID)
			entries[pos] = entry
			continue
		}
		seen[entry.ID] = len(entries)
		entries = append(entries, entry)
	}
	return entries, nil
}

// normalize returns the canonical copy of entry this store persists.
func (s *Store) normalize(entry core.LogEntry) core.LogEntry {
	entry = entry.Normalized()
	if n, ok := s.codec.(Normalizer); ok {
		entry = n.Normalize(entry)
	}
	return entry
}

func (s *Store) install(entries []core.LogEntry) {
	index := make(map[string]int, len(entries))
	for i := range entries {
		index[entries[i].ID] = i
	}
	s.entries = entries
	s.index = index
}

// commit persists next and, only once the file is written, makes it the cache.
// Caller must hold the write lock.
func (s *Store) commit(next []core.LogEntry) error {
	data, err := s.codec.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", storage.ErrBackend, s.path, err)
	}
	if err := storage.WriteFileAtomic(s.path, data, filePerm); err != nil {
		return err
	}
	s.install(next)
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return storage.ErrClosed
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
	if err := s.checkOpen(); err != nil {
		return err
	}

	next := slices.Clone(s.entries)
	if pos, ok := s.index[entry.ID]; ok {
		next[pos] = s.normalize(entry)
	} else {
		next = append(next, s.normalize(entry))
	}
	return s.commit(next)
}

// SaveEntries implements storage.BatchSaver: it upserts every entry and
// rewrites the file once. Nothing is written unless all entries are valid.
func (s *Store) SaveEntries(ctx context.Context, entries []core.LogEntry) error {
	for i := range entries {
		if err := core.ValidateEntry(&entries[i]); err != nil {
			return fmt.Errorf("entry %s: %w", entries[i].ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	next := slices.Clone(s.entries)
	index := maps.Clone(s.index)
	for _, entry := range entries {
		if pos, ok := index[entry.ID]; ok {
			next[pos] = s.normalize(entry)
			continue
		}
		index[entry.ID] = len(next)
		next = append(next, s.normalize(entry))
	}
	return s.commit(next)
}

// AddEntry implements storage.Backend.
func (s *Store) AddEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, ok := s.index[entry.ID]; ok {
		return fmt.Errorf("%w: %s", storage.ErrEntryExists, entry.ID)
	}
	next := append(slices.Clone(s.entries), s.normalize(entry))
	return s.commit(next)
}

// GetEntry implements storage.Backend.
func (s *Store) GetEntry(ctx context.Context, id string) (*core.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	pos, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	entry := s.entries[pos].Clone()
	return &entry, nil
}

// ListEntries implements storage.Backend.
func (s *Store) ListEntries(ctx context.Context) ([]core.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]core.LogEntry, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i].Clone()
	}
	return out, nil
}

// UpdateEntry implements storage.Backend.
func (s *Store) UpdateEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	pos, ok := s.index[entry.ID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, entry.ID)
	}
	next := slices.Clone(s.entries)
	next[pos] = s.normalize(entry)
	return s.commit(next)
}

// DeleteEntry implements storage.Backend.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	pos, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	next := slices.Delete(slices.Clone(s.entries), pos, pos+1)
	return s.commit(next)
}

// Clear implements storage.Backend.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.commit(nil)
}

// Format implements storage.Backend.
func (s *Store) Format() storage.Format {
	return s.format
}

// Path implements storage.Backend.
func (s *Store) Path() string {
	return s.path
}

// Close implements storage.Backend. Every mutation is already on disk, so
// Close only marks the store unusable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	s.index = nil
	return nil
}
