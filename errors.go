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

package amlog

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteMigration indicates a format migration stopped partway.
	ErrIncompleteMigration = errors.New("storage migration incomplete")

	// ErrSameStorage indicates a migration target that is the active storage.
	ErrSameStorage = errors.New("migration target is the active storage")

	// ErrNothingToUndo indicates an empty undo buffer.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// MigrationError reports a format migration whose replay failed.
//
// The new backend is active and holds the first Replayed entries. The source
// storage was only read and still holds all Total entries.
type MigrationError struct {
	Replayed int
	Total    int
	Err      error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("%v: %d of %d entries copied: %v", ErrIncompleteMigration, e.Replayed, e.Total, e.Err)
}

func (e *MigrationError) Unwrap() []error {
	return []error{ErrIncompleteMigration, e.Err}
}
