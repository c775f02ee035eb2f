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

// Package amlog is a radio contact log with interchangeable storage formats.
//
// A Manager owns one storage backend at a time, serializes access to it, and
// can migrate the log to another format. ADIF import and export work the
// same whichever backend is active.
package amlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/poiesic/amlog/adif"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/adiffile"
	"github.com/poiesic/amlog/storage/badger"
	"github.com/poiesic/amlog/storage/jsonfile"
	"github.com/poiesic/amlog/storage/sqlite"
)

// Manager mediates all access to the active storage backend.
type Manager struct {
	mu         sync.Mutex
	backend    storage.Backend
	closed     bool
	logger     *slog.Logger
	decodeOpts []adif.Option
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger, passed on to backends.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDecodeOptions sets the options ImportADIF decodes with.
func WithDecodeOptions(opts ...adif.Option) Option {
	return func(m *Manager) {
		m.decodeOpts = append(m.decodeOpts, opts...)
	}
}

// ImportResult summarizes an ADIF import.
type ImportResult struct {
	Imported int                 // Entries saved
	Skipped  []*adif.RecordError // Records the decoder dropped
}

// NewManager opens the backend for format at path.
//
// When a JSON or ADIF file is corrupt it is moved aside and NewManager
// returns a usable Manager over an empty log together with the
// *storage.CorruptionError. Any other error returns a nil Manager.
func NewManager(ctx context.Context, format storage.Format, path string, opts ...Option) (*Manager, error) {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	backend, err := openBackend(ctx, format, path, m.logger)
	if backend == nil {
		return nil, err
	}
	m.backend = backend
	if err != nil {
		m.logger.Warn("storage opened after recovering from corruption", "format", format, "path", path, "err", err)
	}
	return m, err
}

// openBackend opens the backend for format. A non-nil backend may come with
// a *storage.CorruptionError.
func openBackend(ctx context.Context, format storage.Format, path string, logger *slog.Logger) (storage.Backend, error) {
	switch format {
	case storage.FormatJSON:
		s, err := jsonfile.Open(path, jsonfile.WithLogger(logger))
		if s == nil {
			return nil, err
		}
		return s, err
	case storage.FormatADIF:
		s, err := adiffile.Open(path, adiffile.WithLogger(logger))
		if s == nil {
			return nil, err
		}
		return s, err
	case storage.FormatSQLite:
		s, err := sqlite.Open(ctx, path, sqlite.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	case storage.FormatBadger:
		s, err := badger.Open(path, badger.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %v", storage.ErrUnknownFormat, format)
	}
}

// locked runs fn with the guard held and the manager open.
func (m *Manager) locked(fn func(b storage.Backend) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storage.ErrClosed
	}
	return fn(m.backend)
}

// SaveEntry inserts entry or replaces the stored entry with the same ID.
func (m *Manager) SaveEntry(ctx context.Context, entry core.LogEntry) error {
	return m.locked(func(b storage.Backend) error {
		return b.SaveEntry(ctx, entry)
	})
}

// AddEntry inserts entry; storage.ErrEntryExists if its ID is taken.
func (m *Manager) AddEntry(ctx context.Context, entry core.LogEntry) error {
	return m.locked(func(b storage.Backend) error {
		return b.AddEntry(ctx, entry)
	})
}

// GetEntry returns the entry with id, or nil if there is none.
func (m *Manager) GetEntry(ctx context.Context, id string) (*core.LogEntry, error) {
	var entry *core.LogEntry
	err := m.locked(func(b storage.Backend) error {
		var err error
		entry, err = b.GetEntry(ctx, id)
		return err
	})
	return entry, err
}

// ListEntries returns all entries in insertion order.
func (m *Manager) ListEntries(ctx context.Context) ([]core.LogEntry, error) {
	var entries []core.LogEntry
	err := m.locked(func(b storage.Backend) error {
		var err error
		entries, err = b.ListEntries(ctx)
		return err
	})
	return entries, err
}

// UpdateEntry replaces a stored entry; storage.ErrNotFound if absent.
func (m *Manager) UpdateEntry(ctx context.Context, entry core.LogEntry) error {
	return m.locked(func(b storage.Backend) error {
		return b.UpdateEntry(ctx, entry)
	})
}

// DeleteEntry removes the entry with id; storage.ErrNotFound if absent.
func (m *Manager) DeleteEntry(ctx context.Context, id string) error {
	return m.locked(func(b storage.Backend) error {
		return b.DeleteEntry(ctx, id)
	})
}

// Clear removes every entry.
func (m *Manager) Clear(ctx context.Context) error {
	return m.locked(func(b storage.Backend) error {
		return b.Clear(ctx)
	})
}

// ExportADIF renders the log as an ADIF document. An ADIF backend's file is
// returned as stored.
func (m *Manager) ExportADIF(ctx context.Context) (string, error) {
	var out string
	err := m.locked(func(b storage.Backend) error {
		if b.Format() == storage.FormatADIF {
			data, ok, err := storage.ReadFileIfExists(b.Path())
			if err != nil {
				return err
			}
			if ok {
				out = string(data)
				return nil
			}
		}
		entries, err := b.ListEntries(ctx)
		if err != nil {
			return err
		}
		out = adif.Encode(entries)
		return nil
	})
	return out, err
}

// ImportADIF decodes content and saves every decoded entry. Saving is an
// upsert, so importing the same payload again changes nothing.
//
// Decode failures wrap storage.ErrADIF and save nothing. If a save fails
// the returned result counts the entries already saved.
func (m *Manager) ImportADIF(ctx context.Context, content string) (*ImportResult, error) {
	opts := append([]adif.Option{adif.WithLogger(m.logger)}, m.decodeOpts...)
	decoded, err := adif.Decode(content, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrADIF, err)
	}

	result := &ImportResult{Skipped: decoded.Skipped}
	err = m.locked(func(b storage.Backend) error {
		// File backends rewrite the whole file per save, so they take the
		// records in one write.
		if bs, ok := b.(storage.BatchSaver); ok {
			if err := bs.SaveEntries(ctx, decoded.Entries); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			result.Imported = len(decoded.Entries)
			return nil
		}
		for _, entry := range decoded.Entries {
			if err := b.SaveEntry(ctx, entry); err != nil {
				return fmt.Errorf("import entry %s: %w", entry.ID, err)
			}
			result.Imported++
		}
		return nil
	})
	m.logger.Info("adif import", "imported", result.Imported, "skipped", len(result.Skipped))
	return result, err
}

// ChangeStorageFormat moves the log to a new backend and makes it active.
//
// The current entries are read, the new backend becomes active, the old one
// is closed, and the entries are saved into the new backend. The source is
// never modified. There is no rollback: if a save fails the new backend stays
// active with the entries saved so far and a *MigrationError is returned.
// If the target cannot be opened, or held corrupt data, the current backend
// stays active.
func (m *Manager) ChangeStorageFormat(ctx context.Context, format storage.Format, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storage.ErrClosed
	}

	if samePath(m.backend.Path(), path) {
		return fmt.Errorf("%w: %s", ErrSameStorage, path)
	}

	next, err := openBackend(ctx, format, path, m.logger)
	if err != nil {
		if next != nil {
			next.Close()
		}
		return fmt.Errorf("open migration target: %w", err)
	}

	entries, err := m.backend.ListEntries(ctx)
	if err != nil {
		next.Close()
		return fmt.Errorf("read migration source: %w", err)
	}

	prev := m.backend
	m.backend = next
	if err := prev.Close(); err != nil {
		m.logger.Error("error closing previous storage", "format", prev.Format(), "path", prev.Path(), "err", err)
	}

	for i, entry := range entries {
		if err := next.SaveEntry(ctx, entry); err != nil {
			m.logger.Error("storage migration stopped", "replayed", i, "total", len(entries), "err", err)
			return &MigrationError{Replayed: i, Total: len(entries), Err: err}
		}
	}

	m.logger.Info("storage migrated",
		"from", prev.Format(), "from_path", prev.Path(),
		"to", format, "to_path", path, "entries", len(entries))
	return nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Format reports the active backend's format.
func (m *Manager) Format() storage.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Format()
}

// Path reports where the active backend stores data.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Path()
}

// Close closes the active backend. Further calls fail with storage.ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.backend.Close(); err != nil {
		m.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// IsCorruption reports whether err describes a store that was moved aside
// because it could not be read.
func IsCorruption(err error) bool {
	var corrupt *storage.CorruptionError
	return errors.As(err, &corrupt)
}
