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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry indicates a LogEntry failed validation.
	ErrInvalidEntry = errors.New("invalid log entry")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrMissingTimestamp indicates the Timestamp field is the zero time.
	ErrMissingTimestamp = errors.New("timestamp is required")

	// ErrEmptyCallsign indicates the Callsign field is blank.
	ErrEmptyCallsign = errors.New("callsign cannot be empty")

	// ErrInvalidFrequency indicates the Frequency is not a positive finite number.
	ErrInvalidFrequency = errors.New("frequency must be a positive number")

	// ErrEmptyMode indicates the Mode field is blank.
	ErrEmptyMode = errors.New("mode cannot be empty")

	// ErrInvalidPower indicates a negative or non-finite Power value.
	ErrInvalidPower = errors.New("power must be a non-negative number")

	// ErrInvalidDXCC indicates a negative DXCC entity code.
	ErrInvalidDXCC = errors.New("dxcc must be non-negative")

	// ErrInvalidCustomField indicates a custom field key that cannot be stored losslessly.
	ErrInvalidCustomField = errors.New("invalid custom field key")
)
