// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store_test

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
	. "github.com/haphop228/hpc-spbu-labs/store"
	"github.com/haphop228/hpc-spbu-labs/store/storetest"
)

func TestSplitQueryWords(t *testing.T) {
	for _, test := range []struct {
		q    string
		want []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"hello\\ world", []string{"hello world"}},
		{`"key:value two" and\ more`, []string{"key:value two", "and more"}},
		{`one" two"\ three four`, []string{"one two three", "four"}},
		{`"4'7\""`, []string{`4'7"`}},
		{"  method:omp\tthreads:4 ", []string{"method:omp", "threads:4"}},
	} {
		have := SplitQueryWords(test.q)
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("splitQueryWords(%q) = %+v, want %+v", test.q, have, test.want)
		}
	}
}

// TestRunIDs verifies that NewRun generates the correct sequence of run IDs.
func TestRunIDs(t *testing.T) {
	ctx := context.Background()

	db, cleanup := storetest.NewDB(t)
	defer cleanup()

	defer SetNow(time.Time{})

	tests := []struct {
		sec int64
		id  string
	}{
		{0, "19700101.1"},
		{0, "19700101.2"},
		{86400, "19700102.1"},
		{86400, "19700102.2"},
		{86400, "19700102.3"},
		{86400 + 3600, "19700102.4"},
		{2 * 86400, "19700103.1"},
	}
	for _, test := range tests {
		SetNow(time.Unix(test.sec, 0))
		r, err := db.NewRun(ctx, "results.csv", "generic", "time_ms")
		if err != nil {
			t.Fatalf("NewRun: %v", err)
		}
		if r.ID != test.id {
			t.Fatalf("r.ID = %q, want %q", r.ID, test.id)
		}
	}
	if n, err := db.CountRuns(ctx); err != nil || n != len(tests) {
		t.Errorf("CountRuns = %d, %v, want %d", n, err, len(tests))
	}
}

func analyze(t *testing.T, data string) *scalestat.Result {
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
	cfg.Keys = "method,threads"
	cfg.Vary = "threads"
	cfg.BestBy = []string{"threads"}
	res, err := scalestat.Analyze(runs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

const results = `method,threads,execution_time_ms
omp,1,100
omp,1,104
omp,2,60
mpi,2,55
`

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func checkRow(t *testing.T, got, want *scalestat.Row) {
	t.Helper()
	if !reflect.DeepEqual(got.Key, want.Key) {
		t.Errorf("key = %v, want %v", got.Key, want.Key)
	}
	if got.Status != want.Status || got.N != want.N || got.Best != want.Best {
		t.Errorf("%v: got status %s n %d best %v, want %s %d %v", got.Key, got.Status, got.N, got.Best, want.Status, want.N, want.Best)
	}
	gf := []float64{got.Mean, got.Median, got.StdDev, got.Min, got.Max, got.Speedup, got.Efficiency, got.BaselineCenter, got.Check}
	wf := []float64{want.Mean, want.Median, want.StdDev, want.Min, want.Max, want.Speedup, want.Efficiency, want.BaselineCenter, want.Check}
	for i := range gf {
		if !sameFloat(gf[i], wf[i]) {
			t.Errorf("%v: got values %v, want %v", got.Key, gf, wf)
			break
		}
	}
}

func TestInsertQuery(t *testing.T) {
	SetNow(time.Unix(0, 0))
	defer SetNow(time.Time{})
	db, cleanup := storetest.NewDB(t)
	defer cleanup()
	ctx := context.Background()

	res := analyze(t, results)
	want := res.Rows()
	r, err := db.NewRun(ctx, "results.csv", "generic", res.Metric)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.InsertResult(ctx, res); err != nil {
		t.Fatal(err)
	}

	all, err := db.Query(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(want) {
		t.Fatalf("got %d stats, want %d", len(all), len(want))
	}
	for i, st := range all {
		if st.RunID != "19700101.1" || st.Source != "results.csv" || st.Metric != "execution_time_ms" {
			t.Errorf("stat %d: run %s source %s metric %s", i, st.RunID, st.Source, st.Metric)
		}
		checkRow(t, st.Row, want[i])
	}

	omp, err := db.Query(ctx, "method:omp")
	if err != nil {
		t.Fatal(err)
	}
	if len(omp) != 2 {
		t.Fatalf("method:omp: got %d stats, want 2", len(omp))
	}
	checkRow(t, omp[1].Row, want[1])

	two, err := db.Query(ctx, "threads:2 method:mpi run:19700101.1")
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 1 {
		t.Fatalf("got %d stats, want 1", len(two))
	}
	if row := two[0].Row; row.Status != scalestat.StatusMissing || !math.IsNaN(row.BaselineCenter) || !row.Best {
		t.Errorf("mpi row = %+v", row)
	}

	none, err := db.Query(ctx, "run:19700101.2")
	if err != nil || len(none) != 0 {
		t.Errorf("run:19700101.2 = %d stats, %v", len(none), err)
	}
}

func TestQueryErrors(t *testing.T) {
	db, cleanup := storetest.NewDB(t)
	defer cleanup()
	for _, q := range []string{"omp", "run:19700101", "run:1970.x"} {
		if _, err := db.Query(context.Background(), q); err == nil {
			t.Errorf("Query(%q) succeeded", q)
		}
	}
}

func TestDeleteRun(t *testing.T) {
	SetNow(time.Unix(0, 0))
	defer SetNow(time.Time{})
	db, cleanup := storetest.NewDB(t)
	defer cleanup()
	ctx := context.Background()

	res := analyze(t, results)
	var ids []string
	for i := 0; i < 2; i++ {
		r, err := db.NewRun(ctx, "results.csv", "generic", res.Metric)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.InsertResult(ctx, res); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}

	if err := db.DeleteRun(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteRun(ctx, ids[0]); err == nil {
		t.Errorf("deleting %s twice succeeded", ids[0])
	}
	if n, err := db.CountRuns(ctx); err != nil || n != 1 {
		t.Errorf("CountRuns = %d, %v, want 1", n, err)
	}

	var labels int
	if err := DBSQL(db).QueryRow("SELECT COUNT(*) FROM StatLabels").Scan(&labels); err != nil {
		t.Fatal(err)
	}
	if want := 2 * len(res.Rows()); labels != want {
		t.Errorf("have %d labels, want %d", labels, want)
	}
	stats, err := db.Query(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range stats {
		if st.RunID != ids[1] {
			t.Errorf("found stat of run %s after deleting it", st.RunID)
		}
	}
}
