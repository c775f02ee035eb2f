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
	"os"
	"path/filepath"
	"strings"
)

// rename is swapped out in tests to simulate a crash before the final rename.
var rename = os.Rename

// TempPath returns the sibling file a write is staged in before being renamed over path.
func TempPath(path string) string {
	return path + ".tmp"
}

// BackupPath returns the sibling file corrupt data at path is moved to.
func BackupPath(path string) string {
	return path + ".bak"
}

// WrapIO wraps a filesystem error with ErrIO.
func WrapIO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapIO("create directory "+dir, err)
	}
	return nil
}

// ReadFileIfExists reads path. A missing file yields (nil, false, nil).
func ReadFileIfExists(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, WrapIO("read "+path, err)
	}
	return data, true, nil
}

// IsBlank reports whether data holds nothing but whitespace.
func IsBlank(data []byte) bool {
	return strings.TrimSpace(string(data)) == ""
}

// WriteFileAtomic replaces the contents of path with data.
//
// The data is written and synced to TempPath(path), which is then renamed
// over path. If the process dies before the rename, path keeps its previous
// contents; a leftover temp file is overwritten by the next write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := TempPath(path)

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return WrapIO("create "+tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return WrapIO("write "+tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return WrapIO("sync "+tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return WrapIO("close "+tmp, err)
	}

	if err := rename(tmp, path); err != nil {
		return WrapIO("rename "+tmp, err)
	}
	return nil
}

// BackupCorrupt moves the file at path to BackupPath(path) and returns a
// CorruptionError describing the move. kind classifies cause (ErrParse or
// ErrADIF). If the move itself fails, an ErrIO error is returned instead and
// the file is left in place.
func BackupCorrupt(path string, kind, cause error) error {
	backup := BackupPath(path)
	if err := rename(path, backup); err != nil {
		return fmt.Errorf("%w: %w; backup to %s failed: %w", kind, cause, backup, WrapIO("rename "+path, err))
	}
	return &CorruptionError{
		Path:       path,
		BackupPath: backup,
		Kind:       kind,
		Err:        cause,
	}
}
