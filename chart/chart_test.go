// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
)

const data = `method,threads,execution_time_ms
omp,1,100
omp,1,100
omp,2,60
omp,4,35
mpi,1,90
mpi,2,50
mpi,4,30
`

func analyze(t *testing.T, data string, per ...string) *scalestat.Result {
	t.Helper()
	r := runfmt.NewReader(strings.NewReader(data), "test", runfmt.ReaderOpts{})
	var runs []*runfmt.Run
	for r.Scan() {
		if run, ok := r.Record().(*runfmt.Run); ok {
			runs = append(runs, run)
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	cfg := scalestat.DefaultConfig()
	cfg.Keys = "method,threads@num"
	cfg.Vary = "threads"
	cfg.Per = per
	res, err := scalestat.Analyze(runs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestPlan(t *testing.T) {
	res := analyze(t, data)
	charts, err := Plan(res, Options{Prefix: "lab1_", Kinds: []Kind{Speedup, Efficiency}})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range charts {
		names = append(names, c.Name)
	}
	want := []string{"lab1_method_omp_speedup.png", "lab1_method_omp_efficiency.png", "lab1_method_mpi_speedup.png", "lab1_method_mpi_efficiency.png"}
	if got := strings.Join(names, " "); got != strings.Join(want, " ") {
		t.Errorf("got charts %s, want %s", got, strings.Join(want, " "))
	}

	// A global scope gets a single set of charts.
	res = analyze(t, data, []string{}...)
	charts, err = Plan(res, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(charts) != 3 {
		t.Fatalf("got %d charts for a global scope, want 3", len(charts))
	}
	if charts[0].Name != "all_time.png" {
		t.Errorf("got first chart %s, want all_time.png", charts[0].Name)
	}

	if _, err := Plan(res, Options{Format: "gif"}); err == nil {
		t.Error("planning gif charts succeeded, want error")
	}
}

func TestPlanNonNumeric(t *testing.T) {
	res := analyze(t, "method,threads,execution_time_ms\nomp,all,10\n")
	charts, err := Plan(res, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(charts) != 0 {
		t.Errorf("got %d charts for non-numeric thread counts, want 0", len(charts))
	}
}

func TestSeriesTable(t *testing.T) {
	res := analyze(t, data+"omp,8,20\n", []string{}...)
	tab := seriesTable(res, res.InScope(res.Scopes[0]))
	if tab == nil {
		t.Fatal("no table")
	}
	if tab.Len() != len(res.Stats) {
		t.Errorf("got %d rows, want %d", tab.Len(), len(res.Stats))
	}
	series := tab.MustColumn("series").([]string)
	if series[0] != "method=omp" {
		t.Errorf("got series %q, want %q", series[0], "method=omp")
	}
}

func TestScopeFileName(t *testing.T) {
	res := analyze(t, data)
	if got := scopeFileName(res.Scopes[0]); got != "method_omp" {
		t.Errorf("got %q, want %q", got, "method_omp")
	}
	res = analyze(t, data, []string{}...)
	if got := scopeFileName(res.Scopes[0]); got != "all" {
		t.Errorf("got %q for the global scope, want %q", got, "all")
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds("speedup, time")
	if err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 2 || kinds[0] != Speedup || kinds[1] != Time {
		t.Errorf("got %v, want [speedup time]", kinds)
	}
	if _, err := ParseKinds("latency"); err == nil {
		t.Error("parsing unknown kind succeeded, want error")
	}
}

func TestRender(t *testing.T) {
	res := analyze(t, data)
	for _, format := range []string{"png", "svg"} {
		t.Run(format, func(t *testing.T) {
			fs := outfs.NewMemFS()
			names, err := Render(context.Background(), fs, res, Options{Format: format, Parallel: 2})
			if err != nil {
				t.Fatal(err)
			}
			if len(names) != 6 {
				t.Fatalf("got %d charts, want 6", len(names))
			}
			if files := fs.Files(); len(files) != len(names) {
				t.Errorf("wrote %d files, want %d", len(files), len(names))
			}
			for _, name := range names {
				data, meta, ok := fs.ReadFile(name)
				if !ok {
					t.Errorf("%s not written", name)
					continue
				}
				switch format {
				case "png":
					if !bytes.HasPrefix(data, []byte("\x89PNG")) {
						t.Errorf("%s is not a PNG", name)
					}
				case "svg":
					if !bytes.Contains(data, []byte("<svg")) {
						t.Errorf("%s is not an SVG", name)
					}
				}
				if meta["metric"] != "execution_time_ms" {
					t.Errorf("%s: got metric metadata %q", name, meta["metric"])
				}
			}
		})
	}
}
