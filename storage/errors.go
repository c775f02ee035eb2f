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

package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates a filesystem failure.
	ErrIO = errors.New("io error")

	// ErrParse indicates malformed stored data.
	ErrParse = errors.New("parse error")

	// ErrADIF indicates an ADIF payload violated the tag grammar.
	ErrADIF = errors.New("adif error")

	// ErrBackend indicates a medium-specific failure not covered by another kind.
	ErrBackend = errors.New("storage backend error")

	// ErrDatabase indicates a failure reported by the database driver.
	ErrDatabase = errors.New("database error")

	// ErrNotFound indicates that the requested entry was not found.
	ErrNotFound = errors.New("entry not found")

	// ErrEntryExists indicates an insert collided with an existing ID.
	ErrEntryExists = errors.New("entry already exists")

	// ErrMigration indicates the relational schema could not be set up.
	ErrMigration = errors.New("schema migration failed")

	// ErrClosed indicates that the storage backend is closed.
	ErrClosed = errors.New("storage is closed")

	// ErrUnknownFormat indicates an unrecognized storage format name.
	ErrUnknownFormat = errors.New("unknown storage format")
)

// CorruptionError reports that existing data could not be read and was moved
// aside. The backend that returned it is open and empty.
type CorruptionError struct {
	Path       string // File that failed to parse
	BackupPath string // Where the original bytes now live
	Kind       error  // ErrParse or ErrADIF
	Err        error  // Underlying decode error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt data in %s (moved to %s): %v", e.Path, e.BackupPath, e.Err)
}

func (e *CorruptionError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
