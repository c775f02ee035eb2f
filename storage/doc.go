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

// Package storage provides the storage abstraction layer for amlog.
//
// This package defines the Backend interface that decouples the physical
// representation of a logbook from the code that manages it. Each supported
// Format has one implementation in its own subpackage:
//
//   - jsonfile: a single JSON array, rewritten atomically on every change
//   - sqlite: one row per entry in a SQLite database
//   - adiffile: an ADIF interchange file, rewritten atomically on every change
//   - badger: a BadgerDB key-value store
//
// # Constructor Return Type Pattern
//
// Backend constructors return their concrete type so tests can reach
// implementation details, but every caller outside the subpackage holds the
// value through the Backend interface:
//
//	var b storage.Backend
//	b, err := jsonfile.Open(path)
//
// # Errors
//
// Failures are reported by wrapping the sentinel errors in errors.go, so
// callers can classify them with errors.Is without knowing which backend is
// active:
//
//	if errors.Is(err, storage.ErrNotFound) { ... }
//
// A corrupt JSON or ADIF file is moved aside to a ".bak" sibling and the
// backend opens empty. Open then returns both the usable backend and a
// *CorruptionError naming the backup.
//
// # Thread Safety
//
// Backends guard their own state and are safe for concurrent use, but they
// assume a single owning process per path. There is no cross-process file
// locking: two processes writing the same path race and the last rename wins.
//
// # Context Support
//
// All entry operations accept a context.Context, which database-backed
// implementations pass to the driver. File-backed implementations do not
// abandon a write once it has started.
package storage
