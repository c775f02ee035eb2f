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

// Package jsonfile stores the log as a single JSON array of entries.
package jsonfile

import (
	"encoding/json"

	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/poiesic/amlog/storage/filestore"
)

// Store is the JSON file backend.
type Store struct {
	*filestore.Store
}

var (
	_ storage.Backend    = (*Store)(nil)
	_ storage.BatchSaver = (*Store)(nil)
)

// Option configures a Store.
type Option = filestore.Option

// WithLogger sets a custom logger.
var WithLogger = filestore.WithLogger

// Open loads or creates the JSON log at path.
//
// Unparseable content is moved to storage.BackupPath(path) and Open returns a
// usable empty store together with a *storage.CorruptionError wrapping
// storage.ErrParse. Callers must keep the store when that error is returned.
func Open(path string, opts ...Option) (*Store, error) {
	fs, err := filestore.Open(path, storage.FormatJSON, codec{}, storage.ErrParse, opts...)
	if fs == nil {
		return nil, err
	}
	return &Store{Store: fs}, err
}

type codec struct{}

func (codec) Marshal(entries []core.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []core.LogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (codec) Unmarshal(data []byte) ([]core.LogEntry, error) {
	var entries []core.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
