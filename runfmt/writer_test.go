// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func mkRun(kv ...string) *Run {
	r := &Run{}
	for i := 0; i < len(kv); i += 2 {
		r.Config = append(r.Config, Config{kv[i], kv[i+1]})
	}
	return r
}

func (r *Run) with(name string, v float64) *Run {
	r.Values = append(r.Values, Value{name, v})
	return r
}

func TestWriterCSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatCSV)
	runs := []*Run{
		mkRun("method", "sequential", "threads", "1").with("execution_time_ms", 100).with("speedup", 1),
		mkRun("method", "parallel, v2", "threads", "2").with("execution_time_ms", 60.5).with("speedup", 1.25),
		mkRun("threads", "4").with("execution_time_ms", 1e-5),
		mkRun("method", "x", "threads", "8").with("execution_time_ms", 3).with("speedup", math.Inf(1)),
	}
	for _, run := range runs {
		if err := w.Write(run); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	want := `method,threads,execution_time_ms,speedup
sequential,1,100,1
"parallel, v2",2,60.5,1.25
,4,1e-05,
x,8,3,
`
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if err := NewWriter(&buf, FormatCSV).Write(&SyntaxError{}); err != nil {
		t.Errorf("writing SyntaxError: got %v, want nil", err)
	}
}

func TestWriterCSVNewColumn(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatCSV)
	if err := w.Write(mkRun("threads", "1").with("time_ms", 1)); err != nil {
		t.Fatal(err)
	}
	err := w.Write(mkRun("threads", "1", "schedule", "static").with("time_ms", 1))
	if err == nil || !strings.Contains(err.Error(), `"schedule"`) {
		t.Errorf("got error %v, want column error", err)
	}
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)
	runs := []*Run{
		mkRun("method", "sequential", "threads", "1", "size", "1e6").with("time_ms", 100),
		mkRun("method", `say "hi"`, "threads", "02", "size", "-3.5").with("time_ms", math.NaN()),
	}
	for _, run := range runs {
		if err := w.Write(run); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(runs[0]); err == nil {
		t.Errorf("Write after Close succeeded")
	}
	want := `[
{"method": "sequential", "threads": 1, "size": 1e6, "time_ms": 100},
{"method": "say \"hi\"", "threads": "02", "size": -3.5, "time_ms": null}
]
`
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriterJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("got %q, want %q", got, "[]\n")
	}
}

func TestWriterRoundTrip(t *testing.T) {
	runs := []*Run{
		mkRun("method", "sequential", "threads", "1").with("time_ms", 100).with("speedup", 1),
		mkRun("method", "parallel", "threads", "2").with("time_ms", 60).with("speedup", 100.0/60),
	}
	for _, format := range []Format{FormatCSV, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, format)
			var want []string
			for _, run := range runs {
				if err := w.Write(run); err != nil {
					t.Fatal(err)
				}
				want = append(want, recordString(run))
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			got, _, err := parseAll(t, buf.String(), ReaderOpts{Format: format, Metrics: []string{"time_ms", "speedup"}})
			if err != nil {
				t.Fatal(err)
			}
			compareRecords(t, got, want)
		})
	}
}

func TestFormatFloat(t *testing.T) {
	for _, test := range []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{100, "100"},
		{-2.5, "-2.5"},
		{100.0 / 60, "1.6666666666666667"},
		{0.8333333333333334, "0.8333333333333334"},
		{1e-5, "1e-05"},
		{123456789012, "123456789012"},
		{1e20, "1e+20"},
	} {
		if got := FormatFloat(test.v); got != test.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", test.v, got, test.want)
		}
	}
}
