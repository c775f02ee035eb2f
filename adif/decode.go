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
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/amlog/core"
)

// Policy decides what happens to a record that cannot be converted.
type Policy int

const (
	// SkipInvalid drops the record, reports it in Result.Skipped and keeps going.
	SkipInvalid Policy = iota
	// AbortOnInvalid fails the whole decode with the record's *RecordError.
	AbortOnInvalid
)

func (p Policy) String() string {
	switch p {
	case SkipInvalid:
		return "skip"
	case AbortOnInvalid:
		return "abort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "skip" or "abort" to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "skip", "":
		return SkipInvalid, nil
	case "abort":
		return AbortOnInvalid, nil
	default:
		return 0, fmt.Errorf("unknown import policy %q", name)
	}
}

// Result is the outcome of a decode.
type Result struct {
	Entries []core.LogEntry // Converted records in payload order
	Skipped []*RecordError  // Records dropped under SkipInvalid
}

type decoder struct {
	workers int
	policy  Policy
	logger  *slog.Logger
}

// Option configures Decode.
type Option func(*decoder) error

// WithWorkers sets how many goroutines convert records to entries.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(d *decoder) error {
		if n < 1 {
			n = 1
		}
		d.workers = n
		return nil
	}
}

// WithPolicy sets the invalid-record policy. Default is SkipInvalid.
func WithPolicy(p Policy) Option {
	return func(d *decoder) error {
		if p != SkipInvalid && p != AbortOnInvalid {
			return fmt.Errorf("unknown import policy %d", int(p))
		}
		d.policy = p
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *decoder) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// rawRecord is the field map collected between two <eor> tags.
type rawRecord struct {
	index        int
	fields       map[string]string
	unterminated bool
}

// Decode parses an ADIF document.
//
// A malformed tag fails the whole payload with ErrSyntax. Records that parse
// but cannot be converted are handled according to the configured Policy.
func Decode(content string, opts ...Option) (*Result, error) {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	d := &decoder{
		workers: workers,
		policy:  SkipInvalid,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	records, err := scan(content)
	if err != nil {
		return nil, err
	}

	entries, errs := d.convertAll(records)

	result := &Result{Entries: make([]core.LogEntry, 0, len(records))}
	for i := range records {
		if errs[i] != nil {
			if d.policy == AbortOnInvalid {
				return nil, errs[i]
			}
			d.logger.Debug("skipping adif record", "index", i, "err", errs[i].Err)
			result.Skipped = append(result.Skipped, errs[i])
			continue
		}
		result.Entries = append(result.Entries, entries[i])
	}
	if len(result.Skipped) > 0 {
		d.logger.Info("skipped invalid adif records", "skipped", len(result.Skipped), "decoded", len(result.Entries))
	}
	return result, nil
}

// convertAll converts records on an ants pool. Results keep input order.
func (d *decoder) convertAll(records []rawRecord) ([]core.LogEntry, []*RecordError) {
	entries := make([]core.LogEntry, len(records))
	errs := make([]*RecordError, len(records))

	convertOne := func(i int) {
		entry, err := d.convert(records[i])
		if err != nil {
			errs[i] = &RecordError{Index: records[i].index, Err: err}
			return
		}
		entries[i] = entry
	}

	if d.workers == 1 || len(records) < 2 {
		for i := range records {
			convertOne(i)
		}
		return entries, errs
	}

	pool, err := ants.NewPool(d.workers)
	if err != nil {
		d.logger.Warn("failed to create conversion pool, converting inline", "err", err)
		for i := range records {
			convertOne(i)
		}
		return entries, errs
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			convertOne(i)
		}); err != nil {
			wg.Done()
			convertOne(i)
		}
	}
	wg.Wait()
	return entries, errs
}

// scan tokenizes content into raw records.
func scan(content string) ([]rawRecord, error) {
	pos := skipHeader(content)

	var records []rawRecord
	fields := make(map[string]string)
	sawEOR := false

	for {
		open := strings.IndexByte(content[pos:], '<')
		if open < 0 {
			break
		}
		start := pos + open
		end := strings.IndexByte(content[start:], '>')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated tag at offset %d", ErrSyntax, start)
		}
		spec := content[start+1 : start+end]
		pos = start + end + 1

		name, length, hasLength, err := parseSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: tag at offset %d: %w", ErrSyntax, start, err)
		}

		if !hasLength {
			switch name {
			case tagEOR:
				records = append(records, rawRecord{index: len(records), fields: fields})
				fields = make(map[string]string)
				sawEOR = true
			case tagEOH:
				if !sawEOR {
					clear(fields)
				}
			}
			// Other bare tags carry no value and are ignored.
			continue
		}

		if length > len(content)-pos {
			return nil, fmt.Errorf("%w: value of <%s> at offset %d overruns input", ErrSyntax, name, start)
		}
		fields[name] = content[pos : pos+length]
		pos += length
	}

	if len(fields) > 0 {
		records = append(records, rawRecord{index: len(records), fields: fields, unterminated: true})
	}
	return records, nil
}

// skipHeader returns the offset scanning starts at. Content that does not
// open with a tag carries a free-text header ending at <eoh>.
func skipHeader(content string) int {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if trimmed == "" || trimmed[0] == '<' {
		return 0
	}
	return indexEOH(content)
}

// indexEOH returns the offset just past the first <eoh>, or 0 if there is
// none. Headers may hold any bytes, so the match is done in place rather
// than on a case-folded copy whose offsets could differ.
func indexEOH(content string) int {
	const eoh = "<eoh>"
	for i := 0; ; {
		open := strings.IndexByte(content[i:], '<')
		if open < 0 {
			return 0
		}
		j := i + open
		if len(content)-j < len(eoh) {
			return 0
		}
		if strings.EqualFold(content[j:j+len(eoh)], eoh) {
			return j + len(eoh)
		}
		i = j + 1
	}
}

// parseSpec splits the inside of a tag, NAME[:LEN[:TYPE]].
func parseSpec(spec string) (name string, length int, hasLength bool, err error) {
	parts := strings.SplitN(spec, ":", 3)
	name = strings.ToLower(strings.TrimSpace(parts[0]))
	if name == "" {
		return "", 0, false, fmt.Errorf("empty tag name")
	}
	if len(parts) == 1 {
		return name, 0, false, nil
	}
	length, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", 0, false, fmt.Errorf("bad length %q", parts[1])
	}
	if length < 0 {
		return "", 0, false, fmt.Errorf("negative length %d", length)
	}
	return name, length, true, nil
}

// convert maps a raw record onto a LogEntry.
func (d *decoder) convert(r rawRecord) (core.LogEntry, error) {
	if r.unterminated {
		return core.LogEntry{}, ErrUnterminatedRecord
	}
	f := r.fields

	var e core.LogEntry
	var err error

	e.Callsign, err = required(f, tagCall)
	if err != nil {
		return core.LogEntry{}, err
	}
	e.Mode, err = required(f, tagMode)
	if err != nil {
		return core.LogEntry{}, err
	}

	freqText, err := required(f, tagFreq)
	if err != nil {
		return core.LogEntry{}, err
	}
	e.Frequency, err = strconv.ParseFloat(strings.TrimSpace(freqText), 64)
	if err != nil || !(e.Frequency > 0) || math.IsInf(e.Frequency, 0) {
		return core.LogEntry{}, fmt.Errorf("%w: %s %q", ErrInvalidValue, tagFreq, freqText)
	}

	e.Timestamp, err = parseTimestamp(f)
	if err != nil {
		return core.LogEntry{}, err
	}

	if v, ok := f[tagTxPwr]; ok {
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || p < 0 || math.IsInf(p, 0) {
			return core.LogEntry{}, fmt.Errorf("%w: %s %q", ErrInvalidValue, tagTxPwr, v)
		}
		e.Power = &p
	}
	if v, ok := f[tagDXCC]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return core.LogEntry{}, fmt.Errorf("%w: %s %q", ErrInvalidValue, tagDXCC, v)
		}
		e.DXCC = &n
	}

	e.Band = f[tagBand]
	e.RSTSent = f[tagRSTSent]
	e.RSTReceived = f[tagRSTRcvd]
	e.Operator = f[tagOperator]
	e.MyCallsign = f[tagStationCallsign]
	e.Name = f[tagName]
	e.QTH = f[tagQTH]
	e.State = f[tagState]
	e.County = f[tagCounty]
	e.Country = f[tagCountry]
	e.MyGrid = f[tagMyGridsquare]
	e.Notes = f[tagNotes]
	e.Grid = f[tagGridsquare]
	if e.Grid == "" {
		e.Grid = f[tagGrid]
	}

	e.ID = f[tagAmlogID]
	if e.ID == "" {
		e.ID = core.IDFromContent(strings.Join([]string{
			strings.ToUpper(strings.TrimSpace(e.Callsign)),
			e.Timestamp.Format(dateLayout + timeLayout),
			formatFloat(e.Frequency),
			strings.ToUpper(strings.TrimSpace(e.Mode)),
		}, "|"))
	}

	for name, value := range f {
		if slices.Contains(modeledTags, name) {
			continue
		}
		if err := core.ValidateCustomFieldKey(name); err != nil {
			d.logger.Warn("dropping adif field with unsupported name", "index", r.index, "tag", name)
			continue
		}
		if e.CustomFields == nil {
			e.CustomFields = make(map[string]string)
		}
		e.CustomFields[name] = value
	}

	if err := core.ValidateEntry(&e); err != nil {
		return core.LogEntry{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return e, nil
}

func required(f map[string]string, tag string) (string, error) {
	v := f[tag]
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, strings.ToUpper(tag))
	}
	return v, nil
}

// parseTimestamp combines QSO_DATE (YYYYMMDD) and TIME_ON (HHMM or HHMMSS)
// into a UTC instant.
func parseTimestamp(f map[string]string) (time.Time, error) {
	date, err := required(f, tagQSODate)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := required(f, tagTimeOn)
	if err != nil {
		return time.Time{}, err
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	layout := dateLayout + timeLayout
	if len(clock) == len(shortTimeLayout) {
		layout = dateLayout + shortTimeLayout
	}
	ts, err := time.Parse(layout, date+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s/%s %q %q", ErrInvalidValue, strings.ToUpper(tagQSODate), strings.ToUpper(tagTimeOn), date, clock)
	}
	return ts, nil
}
