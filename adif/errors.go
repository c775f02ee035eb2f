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

package adif

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates the payload violates the tag grammar. It fails the
	// whole decode regardless of policy.
	ErrSyntax = errors.New("adif syntax error")

	// ErrMissingField indicates a record lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidValue indicates a field value that cannot be converted.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrUnterminatedRecord indicates fields trailing the last <eor>.
	ErrUnterminatedRecord = errors.New("record not terminated by <eor>")
)

// RecordError reports a single record that could not be converted.
type RecordError struct {
	Index int   // Zero-based position of the record in the payload
	Err   error // Wraps ErrMissingField, ErrInvalidValue or ErrUnterminatedRecord
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
