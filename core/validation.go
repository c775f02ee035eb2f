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

import (
	"fmt"
	"math"
	"strings"
)

// reservedFieldNames are the lower-cased ADIF tags the codec maps onto
// modeled LogEntry fields. A custom field with one of these keys would be
// captured by the modeled field on the way back in.
var reservedFieldNames = map[string]struct{}{
	"app_amlog_id":     {},
	"call":             {},
	"qso_date":         {},
	"time_on":          {},
	"freq":             {},
	"mode":             {},
	"band":             {},
	"rst_sent":         {},
	"rst_rcvd":         {},
	"tx_pwr":           {},
	"operator":         {},
	"station_callsign": {},
	"name":             {},
	"qth":              {},
	"state":            {},
	"cnty":             {},
	"country":          {},
	"dxcc":             {},
	"grid":             {},
	"gridsquare":       {},
	"my_gridsquare":    {},
	"notes":            {},
}

// IsReservedFieldName reports whether name (case-insensitive) is an ADIF
// tag that maps onto a modeled LogEntry field.
func IsReservedFieldName(name string) bool {
	_, ok := reservedFieldNames[strings.ToLower(name)]
	return ok
}

// ValidateEntry validates a LogEntry according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Timestamp must be set
//   - Callsign and Mode must not be blank
//   - Frequency must be positive and finite
//   - Power, when present, must be non-negative and finite
//   - DXCC, when present, must be non-negative
//   - Custom field keys must be valid lower-case field names (see ValidateCustomFieldKey)
func ValidateEntry(entry *LogEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyID)
	}

	if entry.Timestamp.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrMissingTimestamp)
	}

	if strings.TrimSpace(entry.Callsign) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyCallsign)
	}

	if !(entry.Frequency > 0) || math.IsInf(entry.Frequency, 0) {
		return fmt.Errorf("%w: %w: %v", ErrInvalidEntry, ErrInvalidFrequency, entry.Frequency)
	}

	if strings.TrimSpace(entry.Mode) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyMode)
	}

	if entry.Power != nil && (!(*entry.Power >= 0) || math.IsInf(*entry.Power, 0)) {
		return fmt.Errorf("%w: %w: %v", ErrInvalidEntry, ErrInvalidPower, *entry.Power)
	}

	if entry.DXCC != nil && *entry.DXCC < 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidEntry, ErrInvalidDXCC, *entry.DXCC)
	}

	for key := range entry.CustomFields {
		if err := ValidateCustomFieldKey(key); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	}

	return nil
}

// ValidateCustomFieldKey checks that key can round-trip through every
// storage format. Keys must be non-empty, consist of a-z, 0-9 and '_', and
// must not collide with a modeled ADIF field name.
func ValidateCustomFieldKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidCustomField)
	}
	for _, r := range key {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidCustomField, key, r)
		}
	}
	if IsReservedFieldName(key) {
		return fmt.Errorf("%w: %q is a reserved field name", ErrInvalidCustomField, key)
	}
	return nil
}
