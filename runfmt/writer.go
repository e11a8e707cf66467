// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
)

// A Writer writes run records as a CSV table or as a JSON array with
// one object per line. Both forms can be read back by a Reader.
//
// The CSV header is fixed by the first Run written: its configuration
// keys followed by its metric names. Later Runs may omit columns but
// may not add new ones. Missing and non-finite metrics are written as
// empty cells in CSV and as null in JSON.
type Writer struct {
	w      io.Writer
	format Format
	buf    bytes.Buffer

	// Comma is the CSV field delimiter. It defaults to ','.
	Comma rune

	cw     *csv.Writer
	header []string
	col    map[string]int
	row    []string

	n      int
	closed bool
}

// NewWriter returns a Writer that writes runs to w in the given format,
// which must be FormatCSV or FormatJSON.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, Comma: ','}
}

// Write writes Record rec to w. *SyntaxError records are ignored.
func (w *Writer) Write(rec Record) error {
	if w.closed {
		return fmt.Errorf("write on closed Writer")
	}
	var run *Run
	switch rec := rec.(type) {
	case *Run:
		run = rec
	case *SyntaxError:
		return nil
	default:
		return fmt.Errorf("unknown Record type %T", rec)
	}

	var err error
	switch w.format {
	case FormatCSV:
		err = w.writeCSV(run)
	case FormatJSON:
		w.writeJSON(run)
	default:
		err = fmt.Errorf("cannot write format %v", w.format)
	}
	if err != nil {
		return err
	}
	w.n++
	return w.flushBuf()
}

// Close finishes the output. For JSON it writes the closing bracket of
// the array. It does not close the underlying io.Writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.format == FormatJSON {
		if w.n == 0 {
			w.buf.WriteString("[]\n")
		} else {
			w.buf.WriteString("\n]\n")
		}
	}
	return w.flushBuf()
}

func (w *Writer) flushBuf() error {
	if w.cw != nil {
		w.cw.Flush()
		if err := w.cw.Error(); err != nil {
			return err
		}
	}
	_, err := w.w.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func (w *Writer) writeCSV(run *Run) error {
	if w.cw == nil {
		w.cw = csv.NewWriter(&w.buf)
		w.cw.Comma = w.Comma
		w.col = make(map[string]int)
		for _, cfg := range run.Config {
			w.col[cfg.Key] = len(w.header)
			w.header = append(w.header, cfg.Key)
		}
		for _, v := range run.Values {
			w.col[v.Name] = len(w.header)
			w.header = append(w.header, v.Name)
		}
		w.row = make([]string, len(w.header))
		if err := w.cw.Write(w.header); err != nil {
			return err
		}
	}

	for i := range w.row {
		w.row[i] = ""
	}
	for _, cfg := range run.Config {
		i, ok := w.col[cfg.Key]
		if !ok {
			return fmt.Errorf("column %q not in CSV header", cfg.Key)
		}
		w.row[i] = cfg.Value
	}
	for _, v := range run.Values {
		i, ok := w.col[v.Name]
		if !ok {
			return fmt.Errorf("column %q not in CSV header", v.Name)
		}
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			// Left empty, which a Reader treats as absent.
			continue
		}
		w.row[i] = FormatFloat(v.Value)
	}
	return w.cw.Write(w.row)
}

var jsonNumberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func (w *Writer) writeJSON(run *Run) {
	if w.n == 0 {
		w.buf.WriteString("[\n")
	} else {
		w.buf.WriteString(",\n")
	}
	w.buf.WriteByte('{')
	sep := ""
	key := func(k string) {
		w.buf.WriteString(sep)
		sep = ", "
		writeJSONString(&w.buf, k)
		w.buf.WriteString(": ")
	}
	for _, cfg := range run.Config {
		key(cfg.Key)
		if jsonNumberRe.MatchString(cfg.Value) {
			w.buf.WriteString(cfg.Value)
		} else {
			writeJSONString(&w.buf, cfg.Value)
		}
	}
	for _, v := range run.Values {
		key(v.Name)
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			w.buf.WriteString("null")
		} else {
			w.buf.WriteString(FormatFloat(v.Value))
		}
	}
	w.buf.WriteByte('}')
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshaling a string cannot fail.
		panic(err)
	}
	buf.Write(b)
}

// FormatFloat formats v with the minimal number of digits needed to
// represent it exactly, avoiding exponents for ordinary magnitudes.
func FormatFloat(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e15) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
