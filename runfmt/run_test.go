// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import "testing"

func TestRunConfig(t *testing.T) {
	r := mkRun("method", "omp", "threads", "4", "size", "100")

	check := func(want string) {
		t.Helper()
		got := recordString(r)
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if got := r.GetConfig("threads"); got != "4" {
		t.Errorf("GetConfig(threads) = %q, want 4", got)
	}
	if got := r.GetConfig("missing"); got != "" {
		t.Errorf("GetConfig(missing) = %q, want empty", got)
	}

	r.SetConfig("threads", "8")
	check("method=omp threads=8 size=100 |")
	r.SetConfig("schedule", "dynamic")
	check("method=omp threads=8 size=100 schedule=dynamic |")
	r.SetConfig("threads", "")
	check("method=omp size=100 schedule=dynamic |")
	if got := r.GetConfig("schedule"); got != "dynamic" {
		t.Errorf("after delete, GetConfig(schedule) = %q", got)
	}
	r.SetConfig("nothing", "")
	check("method=omp size=100 schedule=dynamic |")

	c := r.Clone()
	c.SetConfig("method", "mpi")
	if r.GetConfig("method") != "omp" {
		t.Errorf("Clone shares state with original")
	}
}

func TestRunValues(t *testing.T) {
	r := mkRun("threads", "1")
	if _, ok := r.Primary(); ok {
		t.Errorf("Primary of run without values: ok")
	}
	r.with("total_time_ms", 9).with("input_time_ms", 2)
	if v, ok := r.Primary(); !ok || v.Name != "total_time_ms" || v.Value != 9 {
		t.Errorf("Primary = %v, %v", v, ok)
	}
	if v, ok := r.Value("input_time_ms"); !ok || v != 2 {
		t.Errorf("Value(input_time_ms) = %v, %v", v, ok)
	}
	if _, ok := r.Value("x"); ok {
		t.Errorf("Value(x) found")
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"results.csv":     FormatCSV,
		"r.TSV":           FormatCSV,
		"out/r.json":      FormatJSON,
		"r.ndjson":        FormatJSON,
		"results":         FormatAuto,
		"results.parquet": FormatAuto,
	} {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestProcessedPath(t *testing.T) {
	for path, want := range map[string]string{
		"results.json":     "results_processed.json",
		"out/results.csv":  "out/results_processed.csv",
		"a.b/results":      "a.b/results_processed",
		"task6/omp.v2.csv": "task6/omp.v2_processed.csv",
	} {
		if got := ProcessedPath(path); got != want {
			t.Errorf("ProcessedPath(%q) = %q, want %q", path, got, want)
		}
	}
}
