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

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/poiesic/amlog/core"
)

const displayTime = "2006-01-02 15:04"

func renderEntries(w io.Writer, entries []core.LogEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 entries)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Time (UTC)", "Call", "MHz", "Mode", "Band", "Sent", "Rcvd", "ID"})
	for i, e := range entries {
		t.AppendRow(table.Row{
			i + 1,
			e.Timestamp.UTC().Format(displayTime),
			e.Callsign,
			formatFreq(e.Frequency),
			e.Mode,
			e.Band,
			e.RSTSent,
			e.RSTReceived,
			e.ID,
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d entries)\n", len(entries))
}

func renderEntry(w io.Writer, e core.LogEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	add := func(name, value string) {
		if value != "" {
			t.AppendRow(table.Row{name, value})
		}
	}
	add("ID", e.ID)
	add("Time (UTC)", e.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	add("Call", e.Callsign)
	add("MHz", formatFreq(e.Frequency))
	add("Mode", e.Mode)
	add("Band", e.Band)
	add("RST sent", e.RSTSent)
	add("RST rcvd", e.RSTReceived)
	if e.Power != nil {
		add("Power (W)", strconv.FormatFloat(*e.Power, 'f', -1, 64))
	}
	add("Name", e.Name)
	add("Grid", e.Grid)
	add("QTH", e.QTH)
	add("County", e.County)
	add("State", e.State)
	add("Country", e.Country)
	if e.DXCC != nil {
		add("DXCC", strconv.Itoa(*e.DXCC))
	}
	add("Operator", e.Operator)
	add("My call", e.MyCallsign)
	add("My grid", e.MyGrid)
	add("Notes", e.Notes)
	for _, key := range slices.Sorted(maps.Keys(e.CustomFields)) {
		add(key, e.CustomFields[key])
	}
	t.Render()
}

func formatFreq(mhz float64) string {
	return strconv.FormatFloat(mhz, 'f', -1, 64)
}
