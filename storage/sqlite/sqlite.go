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

// Package sqlite stores the log in a SQLite table, one row per entry.
//
// The pure-Go modernc.org/sqlite driver is used through database/sql, and the
// schema is managed by goose migrations embedded in the binary.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed-width UTC, so string order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const columns = `id, timestamp, callsign, frequency, mode, rst_sent, rst_received, notes,
	operator, grid, power, qth, state, country, band, dxcc, name, county,
	my_callsign, my_grid, custom_fields`

const (
	countQuery  = `SELECT COUNT(1) FROM log_entries WHERE id = ?`
	selectOne   = `SELECT ` + columns + ` FROM log_entries WHERE id = ?`
	selectAll   = `SELECT ` + columns + ` FROM log_entries ORDER BY rowid`
	insertQuery = `INSERT INTO log_entries (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	updateQuery = `UPDATE log_entries SET
	timestamp = ?, callsign = ?, frequency = ?, mode = ?, rst_sent = ?, rst_received = ?,
	notes = ?, operator = ?, grid = ?, power = ?, qth = ?, state = ?, country = ?,
	band = ?, dxcc = ?, name = ?, county = ?, my_callsign = ?, my_grid = ?,
	custom_fields = ?
	WHERE id = ?`
	deleteQuery = `DELETE FROM log_entries WHERE id = ?`
	clearQuery  = `DELETE FROM log_entries`
)

// Store is the relational backend.
type Store struct {
	mu     sync.Mutex // held across the existence check and the write that follows
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens or creates the database at path and applies pending migrations.
// Use MemoryPath for a throwaway in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != MemoryPath {
		if err := storage.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrDatabase, path, err)
	}
	// A single connection keeps :memory: databases coherent and serializes
	// writers at the driver.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrDatabase, path, err)
	}

	s := newStore(db, path, opts...)
	if err := migrate(db, s.logger); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("opened sqlite store", "path", path)
	return s, nil
}

// newStore wraps an already migrated database.
func newStore(db *sql.DB, path string, opts ...Option) *Store {
	s := &Store{
		db:     db,
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func dbErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrDatabase, op, err)
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countQuery, id).Scan(&n); err != nil {
		return false, dbErr("exists "+id, err)
	}
	return n > 0, nil
}

// SaveEntry implements storage.Backend.
func (s *Store) SaveEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}
	row, err := toRow(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.exists(ctx, entry.ID)
	if err != nil {
		return err
	}
	if found {
		if _, err := s.db.ExecContext(ctx, updateQuery, row.updateArgs()...); err != nil {
			return dbErr("update "+entry.ID, err)
		}
		return nil
	}
	if _, err := s.db.ExecContext(ctx, insertQuery, row.insertArgs()...); err != nil {
		return dbErr("insert "+entry.ID, err)
	}
	return nil
}

// AddEntry implements storage.Backend.
func (s *Store) AddEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}
	row, err := toRow(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.exists(ctx, entry.ID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", storage.ErrEntryExists, entry.ID)
	}
	if _, err := s.db.ExecContext(ctx, insertQuery, row.insertArgs()...); err != nil {
		return dbErr("insert "+entry.ID, err)
	}
	return nil
}

// GetEntry implements storage.Backend.
func (s *Store) GetEntry(ctx context.Context, id string) (*core.LogEntry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, selectOne, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries implements storage.Backend.
func (s *Store) ListEntries(ctx context.Context) ([]core.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, dbErr("list", err)
	}
	defer rows.Close()

	var entries []core.LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list", err)
	}
	return entries, nil
}

// UpdateEntry implements storage.Backend.
func (s *Store) UpdateEntry(ctx context.Context, entry core.LogEntry) error {
	if err := core.ValidateEntry(&entry); err != nil {
		return err
	}
	row, err := toRow(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, updateQuery, row.updateArgs()...)
	if err != nil {
		return dbErr("update "+entry.ID, err)
	}
	return requireAffected(res, entry.ID)
}

// DeleteEntry implements storage.Backend.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return dbErr("delete "+id, err)
	}
	return requireAffected(res, id)
}

// Clear implements storage.Backend.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, clearQuery); err != nil {
		return dbErr("clear", err)
	}
	return nil
}

// Format implements storage.Backend.
func (s *Store) Format() storage.Format {
	return storage.FormatSQLite
}

// Path implements storage.Backend.
func (s *Store) Path() string {
	return s.path
}

// Close implements storage.Backend.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return dbErr("close", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (int64, error) {
	return schemaVersion(s.db)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

// row holds an entry in column form. Absent values are NULL.
type row struct {
	id           string
	timestamp    string
	callsign     string
	frequency    float64
	mode         string
	rstSent      sql.NullString
	rstReceived  sql.NullString
	notes        sql.NullString
	operator     sql.NullString
	grid         sql.NullString
	power        sql.NullFloat64
	qth          sql.NullString
	state        sql.NullString
	country      sql.NullString
	band         sql.NullString
	dxcc         sql.NullInt64
	name         sql.NullString
	county       sql.NullString
	myCallsign   sql.NullString
	myGrid       sql.NullString
	customFields sql.NullString
}

func toRow(e core.LogEntry) (*row, error) {
	r := &row{
		id:          e.ID,
		timestamp:   formatTime(e.Timestamp),
		callsign:    e.Callsign,
		frequency:   e.Frequency,
		mode:        e.Mode,
		rstSent:     nullString(e.RSTSent),
		rstReceived: nullString(e.RSTReceived),
		notes:       nullString(e.Notes),
		operator:    nullString(e.Operator),
		grid:        nullString(e.Grid),
		qth:         nullString(e.QTH),
		state:       nullString(e.State),
		country:     nullString(e.Country),
		band:        nullString(e.Band),
		name:        nullString(e.Name),
		county:      nullString(e.County),
		myCallsign:  nullString(e.MyCallsign),
		myGrid:      nullString(e.MyGrid),
	}
	if e.Power != nil {
		r.power = sql.NullFloat64{Float64: *e.Power, Valid: true}
	}
	if e.DXCC != nil {
		r.dxcc = sql.NullInt64{Int64: int64(*e.DXCC), Valid: true}
	}
	if len(e.CustomFields) > 0 {
		data, err := json.Marshal(e.CustomFields)
		if err != nil {
			return nil, fmt.Errorf("%w: encode custom fields: %w", storage.ErrBackend, err)
		}
		r.customFields = sql.NullString{String: string(data), Valid: true}
	}
	return r, nil
}

func (r *row) values() []any {
	return []any{
		r.timestamp, r.callsign, r.frequency, r.mode, r.rstSent, r.rstReceived,
		r.notes, r.operator, r.grid, r.power, r.qth, r.state, r.country,
		r.band, r.dxcc, r.name, r.county, r.myCallsign, r.myGrid,
		r.customFields,
	}
}

func (r *row) insertArgs() []any {
	return append([]any{r.id}, r.values()...)
}

func (r *row) updateArgs() []any {
	return append(r.values(), r.id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (core.LogEntry, error) {
	var r row
	err := sc.Scan(&r.id, &r.timestamp, &r.callsign, &r.frequency, &r.mode,
		&r.rstSent, &r.rstReceived, &r.notes, &r.operator, &r.grid, &r.power,
		&r.qth, &r.state, &r.country, &r.band, &r.dxcc, &r.name, &r.county,
		&r.myCallsign, &r.myGrid, &r.customFields)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LogEntry{}, err
	}
	if err != nil {
		return core.LogEntry{}, dbErr("scan", err)
	}
	return r.toEntry()
}

func (r *row) toEntry() (core.LogEntry, error) {
	ts, err := time.Parse(timeLayout, r.timestamp)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("%w: entry %s: timestamp %q: %w", storage.ErrParse, r.id, r.timestamp, err)
	}

	e := core.LogEntry{
		ID:          r.id,
		Timestamp:   ts,
		Callsign:    r.callsign,
		Frequency:   r.frequency,
		Mode:        r.mode,
		RSTSent:     r.rstSent.String,
		RSTReceived: r.rstReceived.String,
		Notes:       r.notes.String,
		Operator:    r.operator.String,
		Grid:        r.grid.String,
		QTH:         r.qth.String,
		State:       r.state.String,
		Country:     r.country.String,
		Band:        r.band.String,
		Name:        r.name.String,
		County:      r.county.String,
		MyCallsign:  r.myCallsign.String,
		MyGrid:      r.myGrid.String,
	}
	if r.power.Valid {
		p := r.power.Float64
		e.Power = &p
	}
	if r.dxcc.Valid {
		d := int(r.dxcc.Int64)
		e.DXCC = &d
	}
	if r.customFields.Valid && r.customFields.String != "" {
		if err := json.Unmarshal([]byte(r.customFields.String), &e.CustomFields); err != nil {
			return core.LogEntry{}, fmt.Errorf("%w: entry %s: custom fields: %w", storage.ErrParse, r.id, err)
		}
		if len(e.CustomFields) == 0 {
			e.CustomFields = nil
		}
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
