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

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"maps"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// NewID returns a fresh random identifier for a log entry.
func NewID() string {
	return uuid.NewString()
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the identical ID, which keeps re-imports of
// records without an explicit ID idempotent.
func IDFromContent(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// LogEntry represents a single logged two-way radio contact (QSO).
//
// Optional text fields use the empty string for "absent"; optional numeric
// fields use nil. LogEntry is a value: stores hand out copies, and changes are
// made by saving a replacement with the same ID.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"` // UTC instant of the contact
	Callsign  string    `json:"callsign"`
	Frequency float64   `json:"frequency"` // MHz
	Mode      string    `json:"mode"`

	RSTSent     string   `json:"rst_sent,omitempty"`
	RSTReceived string   `json:"rst_received,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Operator    string   `json:"operator,omitempty"`
	Grid        string   `json:"grid,omitempty"`
	Power       *float64 `json:"power,omitempty"` // watts
	QTH         string   `json:"qth,omitempty"`
	State       string   `json:"state,omitempty"`
	Country     string   `json:"country,omitempty"`
	Band        string   `json:"band,omitempty"`
	DXCC        *int     `json:"dxcc,omitempty"`
	Name        string   `json:"name,omitempty"`
	County      string   `json:"county,omitempty"`
	MyCallsign  string   `json:"my_callsign,omitempty"`
	MyGrid      string   `json:"my_grid,omitempty"`

	CustomFields map[string]string `json:"custom_fields,omitempty"` // Extension data keyed by lower-case field name
}

// Clone returns a deep copy of the entry.
func (e LogEntry) Clone() LogEntry {
	c := e
	if e.Power != nil {
		p := *e.Power
		c.Power = &p
	}
	if e.DXCC != nil {
		d := *e.DXCC
		c.DXCC = &d
	}
	c.CustomFields = nil
	if len(e.CustomFields) > 0 {
		c.CustomFields = maps.Clone(e.CustomFields)
	}
	return c
}

// Normalized returns a deep copy in the canonical form stores persist:
// the timestamp in UTC without a monotonic reading and an empty custom field
// map collapsed to nil.
func (e LogEntry) Normalized() LogEntry {
	c := e.Clone()
	c.Timestamp = c.Timestamp.UTC()
	return c
}

// Float64 returns a pointer to v. Convenience for optional numeric fields.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v. Convenience for optional numeric fields.
func Int(v int) *int {
	return &v
}

// DeletedEntry is one item of a caller-owned undo buffer: a removed entry,
// the position it occupied in the caller's view, and when it was removed.
type DeletedEntry struct {
	Entry     LogEntry  `json:"entry"`
	Index     int       `json:"index"`
	DeletedAt time.Time `json:"deleted_at"`
}
