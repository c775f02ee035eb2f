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

// Package adiffile stores the log as an ADIF document.
package adiffile

import (
	"log/slog"

	"github.com/poiesic/amlog/adif"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/filestore"
)

// Store is the ADIF file backend.
type Store struct {
	*filestore.Store
}

type options struct {
	logger *slog.Logger
}

var (
	_ storage.Backend    = (*Store)(nil)
	_ storage.BatchSaver = (*Store)(nil)
)

// Option configures a Store.
type Option func(*options)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open loads or creates the ADIF log at path.
//
// The file is decoded strictly: a single record the codec cannot convert
// counts as corruption, so the file is moved to storage.BackupPath(path)
// rather than being silently narrowed by the next rewrite. Open then returns
// a usable empty store together with a *storage.CorruptionError wrapping
// storage.ErrADIF.
func Open(path string, opts ...Option) (*Store, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	c := codec{logger: o.logger}
	fs, err := filestore.Open(path, storage.FormatADIF, c, storage.ErrADIF, filestore.WithLogger(o.logger))
	if fs == nil {
		return nil, err
	}
	return &Store{Store: fs}, err
}

var _ filestore.Normalizer = codec{}

type codec struct {
	logger *slog.Logger
}

func (c codec) Marshal(entries []core.LogEntry) ([]byte, error) {
	return []byte(adif.Encode(entries)), nil
}

// Normalize drops the sub-second part of the timestamp, which ADIF cannot
// represent, so the cached entry matches what the file holds.
func (c codec) Normalize(entry core.LogEntry) core.LogEntry {
	entry.Timestamp = entry.Timestamp.Truncate(adif.Resolution)
	return entry
}

func (c codec) Unmarshal(data []byte) ([]core.LogEntry, error) {
	result, err := adif.Decode(string(data),
		adif.WithPolicy(adif.AbortOnInvalid),
		adif.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}
