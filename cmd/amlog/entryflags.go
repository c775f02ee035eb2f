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
	"strings"
	"time"

	"github.com/poiesic/amlog/core"
	"github.com/urfave/cli/v2"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime reads a contact time. Times without a zone are UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD HH:MM[:SS]", s)
}

// entryFlags are the flags add and update share. add marks the required
// contact fields as required.
func entryFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "call", Usage: "Callsign worked", Required: required},
		&cli.Float64Flag{Name: "freq", Usage: "Frequency in MHz", Required: required},
		&cli.StringFlag{Name: "mode", Usage: "Mode, e.g. FT8 or SSB", Required: required},
		&cli.StringFlag{Name: "time", Usage: "Contact time, UTC unless a zone is given (default: now)"},
		&cli.StringFlag{Name: "rst-sent", Usage: "Signal report sent"},
		&cli.StringFlag{Name: "rst-rcvd", Usage: "Signal report received"},
		&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
		&cli.StringFlag{Name: "operator", Usage: "Operator callsign"},
		&cli.StringFlag{Name: "grid", Usage: "Contacted station's grid square"},
		&cli.Float64Flag{Name: "power", Usage: "Transmit power in watts"},
		&cli.StringFlag{Name: "qth", Usage: "Contacted station's location"},
		&cli.StringFlag{Name: "state", Usage: "Contacted station's state"},
		&cli.StringFlag{Name: "country", Usage: "Contacted station's country"},
		&cli.StringFlag{Name: "band", Usage: "Band, e.g. 20m"},
		&cli.IntFlag{Name: "dxcc", Usage: "DXCC entity code"},
		&cli.StringFlag{Name: "name", Usage: "Contacted operator's name"},
		&cli.StringFlag{Name: "county", Usage: "Contacted station's county"},
		&cli.StringFlag{Name: "my-call", Usage: "Own station callsign"},
		&cli.StringFlag{Name: "my-grid", Usage: "Own grid square"},
		&cli.StringSliceFlag{Name: "field", Usage: "Custom field as key=value; key= removes it (repeatable)"},
	}
}

// applyEntryFlags copies every flag the user set onto entry. Setting a text
// flag to the empty string clears the field.
func applyEntryFlags(c *cli.Context, entry *core.LogEntry) error {
	text := map[string]*string{
		"call":     &entry.Callsign,
		"mode":     &entry.Mode,
		"rst-sent": &entry.RSTSent,
		"rst-rcvd": &entry.RSTReceived,
		"notes":    &entry.Notes,
		"operator": &entry.Operator,
		"grid":     &entry.Grid,
		"qth":      &entry.QTH,
		"state":    &entry.State,
		"country":  &entry.Country,
		"band":     &entry.Band,
		"name":     &entry.Name,
		"county":   &entry.County,
		"my-call":  &entry.MyCallsign,
		"my-grid":  &entry.MyGrid,
	}
	for flag, field := range text {
		if c.IsSet(flag) {
			*field = strings.TrimSpace(c.String(flag))
		}
	}

	if c.IsSet("freq") {
		entry.Frequency = c.Float64("freq")
	}
	if c.IsSet("power") {
		entry.Power = core.Float64(c.Float64("power"))
	}
	if c.IsSet("dxcc") {
		entry.DXCC = core.Int(c.Int("dxcc"))
	}
	if c.IsSet("time") {
		t, err := parseTime(c.String("time"))
		if err != nil {
			return err
		}
		entry.Timestamp = t
	}

	for _, kv := range c.StringSlice("field") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid custom field %q: want key=value", kv)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if value == "" {
			delete(entry.CustomFields, key)
			continue
		}
		if entry.CustomFields == nil {
			entry.CustomFields = map[string]string{}
		}
		entry.CustomFields[key] = value
	}
	if len(entry.CustomFields) == 0 {
		entry.CustomFields = nil
	}
	return nil
}
