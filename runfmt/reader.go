// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultMetrics lists the column names recognized as the primary
// timing metric when ReaderOpts.Metrics is empty, in order of
// preference.
var DefaultMetrics = []string{
	"execution_time_ms",
	"time_ms",
	"total_time_ms",
	"avg_time_ms",
	"elapsed_ms",
	"time",
	"Time",
	"time_s",
}

// ReaderOpts configures a Reader.
type ReaderOpts struct {
	// Format is the input format. FormatAuto detects it from the
	// first non-blank line: a line starting with "{" or "[" is
	// JSON, anything else is a CSV header.
	Format Format

	// Metrics names the numeric metric columns. The first is the
	// primary metric and must be present. Other metrics are
	// optional and are omitted from a Run if absent or empty.
	// All other columns become configuration.
	//
	// If Metrics is empty, the first column of DefaultMetrics
	// present in the input is used.
	Metrics []string

	// Comma is the CSV field delimiter. If 0, the delimiter is
	// detected from the header line among ',', ';' and '\t'.
	Comma rune
}

// A Reader reads benchmark run records.
//
// Its API is modeled on bufio.Scanner. Each call to Scan produces
// either a *Run or a *SyntaxError for a line that could not be
// parsed. Syntax errors are not fatal.
//
// A Reader fails with a *SchemaError if the metric column is missing
// or if the input ends without producing a single Run.
type Reader struct {
	s        *bufio.Scanner
	err      error
	opts     ReaderOpts
	fileName string
	line     int

	format Format

	// CSV state.
	comma    rune
	header   []string
	isMetric []bool

	// metrics is the resolved list of metric names, or nil if
	// they have not been resolved yet.
	metrics []string
	// metricCol gives the CSV column of each metric, or -1.
	metricCol []int

	rec      Record
	nRuns    int
	nSkipped int
}

// A Record is a single record read from a results file. It is either a
// *Run or a *SyntaxError.
type Record interface {
	// Pos returns the position of this record as a file name and a
	// 1-based line number within that file. If this record was not
	// read from a file, it returns "", 0.
	Pos() (fileName string, line int)
}

var _ Record = (*Run)(nil)
var _ Record = (*SyntaxError)(nil)

var noRecord = &SyntaxError{"", 0, "Reader.Scan has not been called"}

// NewReader returns a Reader that reads run records from r. fileName is
// used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string, opts ReaderOpts) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16<<20)
	return &Reader{s: s, opts: opts, fileName: fileName, format: opts.Format}
}

// Scan advances the reader to the next record and reports whether a
// record was read. The caller should use the Record method to get the
// record. If Scan reaches EOF or a fatal error occurs, it returns
// false, in which case the caller should use the Err method to check
// for errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		raw := strings.TrimRight(r.s.Text(), "\r")
		if r.line == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if r.format == FormatAuto {
			r.format = sniff(line)
		}
		var rec Record
		switch r.format {
		case FormatCSV:
			rec = r.parseCSVLine(raw)
		case FormatJSON:
			rec = r.parseJSONLine(line)
		default:
			r.err = fmt.Errorf("%s: unknown format %v", r.fileName, r.format)
		}
		if r.err != nil {
			return false
		}
		if rec == nil {
			continue
		}
		r.rec = rec
		if _, ok := rec.(*Run); ok {
			r.nRuns++
		} else {
			r.nSkipped++
		}
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
		return false
	}
	if r.nRuns == 0 {
		switch {
		case r.format == FormatCSV && r.header == nil, r.format == FormatAuto:
			r.err = &SchemaError{r.fileName, "empty input"}
		case r.metrics == nil:
			r.err = &SchemaError{r.fileName, fmt.Sprintf("no metric field (want one of %s)", strings.Join(r.wantMetrics(), ", "))}
		default:
			r.err = &SchemaError{r.fileName, "no benchmark records"}
		}
	}
	return false
}

// Record returns the record that was just read by Scan. This is either
// a *Run or a *SyntaxError. The returned Run is not reused by the
// Reader.
func (r *Reader) Record() Record {
	if r.rec == nil {
		return noRecord
	}
	return r.rec
}

// Err returns the first fatal error encountered by the Reader. Reaching
// the end of an input that produced at least one Run is not an error.
func (r *Reader) Err() error {
	return r.err
}

// Metrics returns the resolved metric names, primary first. It returns
// nil until the header or first usable object has been read.
func (r *Reader) Metrics() []string {
	return r.metrics
}

// Format returns the format of the input, which is FormatAuto until the
// first non-blank line has been read.
func (r *Reader) Format() Format {
	return r.format
}

// Counts returns the number of runs read and the number of lines
// skipped as malformed so far.
func (r *Reader) Counts() (runs, skipped int) {
	return r.nRuns, r.nSkipped
}

func (r *Reader) syntaxError(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, fmt.Sprintf(format, args...)}
}

func sniff(line string) Format {
	if line[0] == '{' || line[0] == '[' {
		return FormatJSON
	}
	return FormatCSV
}

func (r *Reader) wantMetrics() []string {
	if len(r.opts.Metrics) > 0 {
		return r.opts.Metrics[:1]
	}
	return DefaultMetrics
}

// resolveMetrics picks the metric names given the set of available
// columns. It returns false if the primary metric is unavailable.
func (r *Reader) resolveMetrics(has func(string) bool) bool {
	if len(r.opts.Metrics) > 0 {
		if !has(r.opts.Metrics[0]) {
			return false
		}
		r.metrics = r.opts.Metrics
		return true
	}
	for _, name := range DefaultMetrics {
		if has(name) {
			r.metrics = []string{name}
			return true
		}
	}
	return false
}

func detectComma(header string) rune {
	best, bestN := ',', strings.Count(header, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(header, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func (r *Reader) splitCSV(line string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = r.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	fields, err := cr.Read()
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields, nil
}

func (r *Reader) parseCSVLine(line string) Record {
	if r.header == nil {
		r.comma = r.opts.Comma
		if r.comma == 0 {
			r.comma = detectComma(line)
		}
		header, err := r.splitCSV(line)
		if err != nil {
			r.err = &SchemaError{r.fileName, fmt.Sprintf("bad header: %v", err)}
			return nil
		}
		r.header = header
		col := make(map[string]int, len(header))
		for i, name := range header {
			if _, dup := col[name]; dup {
				r.err = &SchemaError{r.fileName, fmt.Sprintf("duplicate column %q", name)}
				return nil
			}
			col[name] = i
		}
		if !r.resolveMetrics(func(name string) bool { _, ok := col[name]; return ok }) {
			r.err = &SchemaError{r.fileName, fmt.Sprintf("missing metric column (want one of %s)", strings.Join(r.wantMetrics(), ", "))}
			return nil
		}
		r.isMetric = make([]bool, len(header))
		r.metricCol = make([]int, len(r.metrics))
		for j, name := range r.metrics {
			i, ok := col[name]
			if !ok {
				r.metricCol[j] = -1
				continue
			}
			r.metricCol[j] = i
			r.isMetric[i] = true
		}
		return nil
	}

	fields, err := r.splitCSV(line)
	if err != nil {
		return r.syntaxError("%v", err)
	}
	if len(fields) != len(r.header) {
		return r.syntaxError("expected %d fields, found %d", len(r.header), len(fields))
	}
	run := &Run{fileName: r.fileName, line: r.line}
	for i, name := range r.header {
		if !r.isMetric[i] {
			run.Config = append(run.Config, Config{name, fields[i]})
		}
	}
	for j, name := range r.metrics {
		i := r.metricCol[j]
		if i < 0 {
			continue
		}
		if fields[i] == "" && j > 0 {
			continue
		}
		v, err := parseMetric(fields[i])
		if err != nil {
			return r.syntaxError("bad %s value %q", name, fields[i])
		}
		run.Values = append(run.Values, Value{name, v})
	}
	return run
}

func parseMetric(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// A jsonField is one key/value pair of a flat JSON object, in
// document order.
type jsonField struct {
	key, val string
}

func (r *Reader) parseJSONLine(line string) Record {
	switch line {
	case "[", "]", ",":
		// Decoration of a loosely written JSON array.
		return nil
	}
	line = strings.TrimSuffix(line, ",")
	fields, err := parseFlatObject(line)
	if err != nil {
		return r.syntaxError("%v", err)
	}
	if r.metrics == nil {
		ok := r.resolveMetrics(func(name string) bool {
			for _, f := range fields {
				if f.key == name {
					return true
				}
			}
			return false
		})
		if !ok {
			return r.syntaxError("no metric field (want one of %s)", strings.Join(r.wantMetrics(), ", "))
		}
	}

	run := &Run{fileName: r.fileName, line: r.line}
	run.Values = make([]Value, 0, len(r.metrics))
	var primary bool
	for _, name := range r.metrics {
		for _, f := range fields {
			if f.key != name {
				continue
			}
			if f.val == "" && name != r.metrics[0] {
				break
			}
			v, err := parseMetric(f.val)
			if err != nil {
				return r.syntaxError("bad %s value %q", name, f.val)
			}
			run.Values = append(run.Values, Value{name, v})
			if name == r.metrics[0] {
				primary = true
			}
			break
		}
	}
	if !primary {
		return r.syntaxError("missing metric %q", r.metrics[0])
	}
	for _, f := range fields {
		if !r.isMetricName(f.key) {
			run.Config = append(run.Config, Config{f.key, f.val})
		}
	}
	return run
}

func (r *Reader) isMetricName(key string) bool {
	for _, name := range r.metrics {
		if name == key {
			return true
		}
	}
	return false
}

var errNotObject = errors.New("not a JSON object")

// parseFlatObject parses a JSON object whose values are all scalars,
// preserving the order of its keys.
func parseFlatObject(line string) ([]jsonField, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}
	var fields []jsonField
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		f := jsonField{key: key}
		switch v := tok.(type) {
		case json.Delim:
			return nil, fmt.Errorf("nested value for key %q", key)
		case string:
			f.val = v
		case json.Number:
			f.val = v.String()
		case bool:
			f.val = strconv.FormatBool(v)
		case nil:
			// Leave empty.
		}
		fields = append(fields, f)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON object")
	}
	return fields, nil
}
