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
	"fmt"
	"strings"
)

// Format identifies a physical storage representation.
type Format int

const (
	// FormatJSON stores the logbook as a JSON array in a single file.
	FormatJSON Format = iota + 1
	// FormatSQLite stores one row per entry in a SQLite database.
	FormatSQLite
	// FormatADIF stores the logbook as an ADIF interchange file.
	FormatADIF
	// FormatBadger stores entries in a BadgerDB directory.
	FormatBadger
)

var formatNames = map[Format]string{
	FormatJSON:   "json",
	FormatSQLite: "sqlite",
	FormatADIF:   "adif",
	FormatBadger: "badger",
}

var formatFiles = map[Format]string{
	FormatJSON:   "logbook.json",
	FormatSQLite: "logbook.db",
	FormatADIF:   "logbook.adi",
	FormatBadger: "logbook.badger",
}

// String returns the lower-case name of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// DefaultFileName returns the file (or directory, for badger) name used for
// the format inside a data directory.
func (f Format) DefaultFileName() string {
	return formatFiles[f]
}

// ParseFormat converts a format name to a Format. Matching is
// case-insensitive and accepts a few common aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "sqlite", "sqlite3", "sql", "db":
		return FormatSQLite, nil
	case "adif", "adi":
		return FormatADIF, nil
	case "badger", "kv":
		return FormatBadger, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}
