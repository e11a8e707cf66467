// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
)

func TestBuiltin(t *testing.T) {
	want := []string{
		"dot-product", "integration", "loop-scheduling", "matrix-game",
		"message-exchange", "min-max", "mpi-matrix", "mpi-scaling",
		"nested-parallelism", "reduction", "special-matrices",
		"vector-dot-products",
	}
	var got []string
	for _, p := range Builtin() {
		got = append(got, p.Name)
		if len(p.Detect) == 0 {
			t.Errorf("%s: no detect columns", p.Name)
		}
		cfg := p.Config()
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got builtins %v, want %v", got, want)
	}
	if Lookup("reduction") == nil {
		t.Errorf("Lookup(reduction) = nil")
	}
	if p := Lookup("nope"); p != nil {
		t.Errorf("Lookup(nope) = %s, want nil", p.Name)
	}
}

func TestDetect(t *testing.T) {
	for _, test := range []struct {
		columns string
		want    string
	}{
		{"method,operation,threads,size,result,run,time_ms", "min-max"},
		{"vector_size,num_threads,method,iteration,execution_time_ms,result_value", "dot-product"},
		{"function,a,b,N,num_threads,method,iteration,execution_time_ms,result_value", "integration"},
		{"N,num_threads,method,iteration,execution_time_ms,result_value", "matrix-game"},
		{"N,matrix_type,bandwidth,num_threads,schedule,chunk_size,iteration,execution_time_ms,result_value", "special-matrices"},
		{"num_iterations,num_threads,schedule,chunk_size,execution_time_ms,result", "loop-scheduling"},
		{"array_size,num_threads,method,execution_time_ms,result", "reduction"},
		{"num_pairs,vector_size,num_threads,method,total_time_ms,input_time_ms,computation_time_ms", "vector-dot-products"},
		{"N,num_threads,outer_threads,inner_threads,method,iteration,execution_time_ms,result_value", "nested-parallelism"},
		{"Processes,Elements,Time", "mpi-scaling"},
		{"Algorithm,Processes,MatrixSize,Time", "mpi-matrix"},
		{"message_size_bytes,iterations,avg_time_ms,median_time_ms,min_time_ms,max_time_ms,std_dev_ms,bandwidth_mbps", "message-exchange"},
		{"threads,time_ms", ""},
	} {
		p := Detect(strings.Split(test.columns, ","))
		got := ""
		if p != nil {
			got = p.Name
		}
		if got != test.want {
			t.Errorf("Detect(%s) = %q, want %q", test.columns, got, test.want)
		}
	}
}

func TestGeneric(t *testing.T) {
	cols := []string{"size", "threads", "iteration", "input_time_ms", "result", "time_ms"}
	p, err := Generic(cols, "time_ms")
	if err != nil {
		t.Fatal(err)
	}
	if p.Keys != "size,threads@num" || p.Vary != "threads" {
		t.Errorf("got keys %q vary %q, want size,threads@num and threads", p.Keys, p.Vary)
	}
	if got := strings.Join(p.Ignore, ","); got != "iteration,input_time_ms,result" {
		t.Errorf("got ignore %s", got)
	}

	p, err = Generic([]string{"np", "num_threads", "time"}, "time")
	if err != nil {
		t.Fatal(err)
	}
	if p.Vary != "num_threads" || p.Keys != "np,num_threads@num" {
		t.Errorf("got keys %q vary %q", p.Keys, p.Vary)
	}

	if _, err := Generic([]string{"size", "time_ms"}, "time_ms"); err == nil {
		t.Errorf("Generic without a thread column succeeded")
	}
}

func TestChoose(t *testing.T) {
	runs, _, err := runfmt.ReadFile("testdata/generic.csv", runfmt.ReaderOpts{})
	if err != nil {
		t.Fatal(err)
	}
	p, err := Choose(runs)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "generic" || p.Metric != "elapsed_ms" || p.Keys != "kernel,threads@num" {
		t.Errorf("got profile %+v", p)
	}
}

func TestParse(t *testing.T) {
	check := func(doc, wantErr string) {
		t.Helper()
		_, err := Parse(strings.NewReader(doc), "test")
		if err == nil {
			t.Errorf("parsing %q succeeded, want error containing %q", doc, wantErr)
		} else if !strings.Contains(err.Error(), wantErr) {
			t.Errorf("got error %q, want %q", err, wantErr)
		}
	}
	check("", "test: empty profile")
	check("name: x\nkeys: threads\nvary: threads\nbogus: 1\n", "bogus")
	check("keys: threads\nvary: threads\n", "no name")
	check("name: x\nkeys: size\nvary: threads\n", `vary "threads" is not a key field`)
	check("name: x\nkeys: size,threads\nvary: threads\nper: [threads]\n", `per field "threads"`)
	check("name: x\nkeys: size,threads\nvary: threads\nbest_by: [n]\n", `best_by field "n"`)
	check("name: x\nkeys: threads\nvary: threads\nbaseline: \"threads:(1\"\n", "baseline:")
	check("name: x\nkeys: threads\nvary: threads\nstatistic: mode\n", "unknown statistic")
	check("name: x\nkeys: threads@bogus\nvary: threads\n", "keys:")
	check("name: x\nkeys: threads\nvary: threads\nmetric: a\nmetrics: [b, a]\n", "not the first of metrics")
}

func TestLoad(t *testing.T) {
	p, err := Load("testdata/custom.yaml")
	if err != nil {
		t.Fatal(err)
	}
	cfg := p.Config()
	if cfg.Sentinel != 0 || cfg.Statistic != scalestat.Mean || cfg.Confidence != 0.95 {
		t.Errorf("got config %+v", cfg)
	}
	if cfg.Per == nil || len(cfg.Per) != 0 {
		t.Errorf("got per %#v, want empty non-nil", cfg.Per)
	}
	if got := strings.Join(p.ReaderMetrics(), ","); got != "time_ms" {
		t.Errorf("got reader metrics %s", got)
	}

	if p, err := Find("testdata/custom.yaml"); err != nil || p.Name != "blocked-matmul" {
		t.Errorf("Find(file) = %v, %v", p, err)
	}
	if p, err := Find("min-max"); err != nil || p.Name != "min-max" {
		t.Errorf("Find(min-max) = %v, %v", p, err)
	}
	if _, err := Find("testdata/missing.yaml"); err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Errorf("Find(missing) error = %v", err)
	}
}

func TestMarshal(t *testing.T) {
	p := Lookup("loop-scheduling")
	data, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Parse(bytes.NewReader(data), "marshaled")
	if err != nil {
		t.Fatal(err)
	}
	if p2.Keys != p.Keys || p2.Baseline != p.Baseline || strings.Join(p2.BestBy, ",") != strings.Join(p.BestBy, ",") {
		t.Errorf("got %+v, want %+v", p2, p)
	}
}

func TestLoopScheduling(t *testing.T) {
	const data = `num_iterations,num_threads,schedule,chunk_size,execution_time_ms,result
1000,1,sequential,0,100,5
1000,2,static,1,60,5
1000,2,dynamic,1,55,5
1000,2,dynamic,1,55,5
`
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
	p, err := Choose(runs)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "loop-scheduling" {
		t.Fatalf("detected %s", p.Name)
	}
	res, err := scalestat.Analyze(runs, p.Config())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("got warnings %v", res.Warnings)
	}
	dyn := res.Lookup(map[string]string{"schedule": "dynamic"})
	if dyn == nil {
		t.Fatal("no dynamic group")
	}
	if want := 100.0 / 55; math.Abs(dyn.Speedup-want) > 1e-12 || !dyn.Best {
		t.Errorf("dynamic: speedup %v best %v, want %v true", dyn.Speedup, dyn.Best, want)
	}
	for _, e := range res.Stats {
		if len(e.Warnings) != 0 {
			t.Errorf("%s: warnings %v", e.Key, e.Warnings)
		}
	}
}

func readRuns(t *testing.T, data string, metrics []string) []*runfmt.Run {
	t.Helper()
	r := runfmt.NewReader(strings.NewReader(data), "test", runfmt.ReaderOpts{Metrics: metrics})
	var runs []*runfmt.Run
	for r.Scan() {
		if run, ok := r.Record().(*runfmt.Run); ok {
			runs = append(runs, run)
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	return runs
}

func TestMessageExchange(t *testing.T) {
	const data = `message_size_bytes,iterations,avg_time_ms,median_time_ms,min_time_ms,max_time_ms,std_dev_ms,bandwidth_mbps
1024,1000,0.004,0.004,0.003,0.009,0.001,488.28
8,1000,0.002,0.002,0.001,0.005,0.0005,7.63
1048576,100,0.8,0.79,0.75,0.95,0.04,2500.00
`
	p, err := Choose(readRuns(t, data, nil))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "message-exchange" {
		t.Fatalf("detected %s", p.Name)
	}
	res, err := scalestat.Analyze(readRuns(t, data, p.ReaderMetrics()), p.Config())
	if err != nil {
		t.Fatal(err)
	}
	// The smallest message is the baseline even though it is not
	// first in the file, and matching every group is not a warning.
	if len(res.Warnings) != 0 {
		t.Errorf("got warnings %v", res.Warnings)
	}
	if res.Metric != "avg_time_ms" || len(res.Stats) != 3 {
		t.Fatalf("got metric %s and %d groups, want avg_time_ms and 3", res.Metric, len(res.Stats))
	}
	small := res.Lookup(map[string]string{"message_size_bytes": "8"})
	if small == nil || !small.IsBaseline || !small.Best || small.Speedup != 1 {
		t.Fatalf("smallest message: got %+v, want the best baseline", small)
	}
	for size, want := range map[string]float64{"1024": 0.5, "1048576": 0.0025} {
		e := res.Lookup(map[string]string{"message_size_bytes": size})
		if e == nil {
			t.Errorf("no group for size %s", size)
			continue
		}
		if math.Abs(e.Speedup-want) > 1e-12 || e.Status != scalestat.StatusOK || e.Best {
			t.Errorf("size %s: got speedup %v status %s best %v, want %v ok false", size, e.Speedup, e.Status, e.Best, want)
		}
	}
}
