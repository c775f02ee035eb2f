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

// Package adif converts between ADIF text and log entries.
//
// ADIF is a tagged-field format: each field is written as <TAG:LEN>value,
// where LEN is the byte length of value, and each contact ends with <eor>.
// An optional free-text header precedes the first record and ends with <eoh>.
package adif

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/amlog/core"
)

// Resolution is the finest timestamp precision an ADIF record carries.
// Encode drops anything below it.
const Resolution = time.Second

// Encode serializes entries as an ADIF document: a header, then one record
// per entry in input order. Absent optional fields are omitted. Custom fields
// follow the modeled fields, sorted by key, and are written even when their
// value is empty.
func Encode(entries []core.LogEntry) string {
	var b strings.Builder
	b.WriteString("amlog ADIF export\n")
	writeField(&b, "ADIF_VER", adifVersion)
	writeField(&b, "PROGRAMID", programID)
	b.WriteString("<eoh>\n")

	for i := range entries {
		encodeEntry(&b, &entries[i])
	}
	return b.String()
}

func encodeEntry(b *strings.Builder, e *core.LogEntry) {
	ts := e.Timestamp.UTC()

	writeField(b, tagAmlogID, e.ID)
	writeField(b, tagCall, e.Callsign)
	writeField(b, tagQSODate, ts.Format(dateLayout))
	writeField(b, tagTimeOn, ts.Format(timeLayout))
	writeField(b, tagFreq, formatFloat(e.Frequency))
	writeField(b, tagMode, e.Mode)
	writeField(b, tagBand, e.Band)
	writeField(b, tagRSTSent, e.RSTSent)
	writeField(b, tagRSTRcvd, e.RSTReceived)
	if e.Power != nil {
		writeField(b, tagTxPwr, formatFloat(*e.Power))
	}
	writeField(b, tagOperator, e.Operator)
	writeField(b, tagStationCallsign, e.MyCallsign)
	writeField(b, tagName, e.Name)
	writeField(b, tagQTH, e.QTH)
	writeField(b, tagState, e.State)
	writeField(b, tagCounty, e.County)
	writeField(b, tagCountry, e.Country)
	if e.DXCC != nil {
		writeField(b, tagDXCC, strconv.Itoa(*e.DXCC))
	}
	writeField(b, tagGridsquare, e.Grid)
	writeField(b, tagMyGridsquare, e.MyGrid)
	writeField(b, tagNotes, e.Notes)

	for _, key := range slices.Sorted(maps.Keys(e.CustomFields)) {
		writeTag(b, key, e.CustomFields[key])
	}
	b.WriteString("<eor>\n")
}

// writeField emits <TAG:LEN>value. Empty values are skipped.
func writeField(b *strings.Builder, tag, value string) {
	if value == "" {
		return
	}
	writeTag(b, tag, value)
}

func writeTag(b *strings.Builder, tag, value string) {
	b.WriteByte('<')
	b.WriteString(strings.ToUpper(tag))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(len(value)))
	b.WriteByte('>')
	b.WriteString(value)
	b.WriteByte(' ')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
