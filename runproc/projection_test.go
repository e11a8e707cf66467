// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"strings"
	"testing"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc/internal/parse"
)

// mustParse parses a single projection.
func mustParse(t *testing.T, proj string) (*Projection, *Filter) {
	t.Helper()
	f, err := NewFilter("*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := (&ProjectionParser{}).Parse(proj, f)
	if err != nil {
		t.Fatalf("unexpected error parsing %q: %v", proj, err)
	}
	return s, f
}

// r constructs a runfmt.Run with the given configuration, specified as
// alternating key/value pairs, and no values.
func r(t *testing.T, config ...string) *runfmt.Run {
	t.Helper()
	if len(config)%2 != 0 {
		t.Fatal("config must be alternating key/value pairs")
	}
	run := &runfmt.Run{}
	for i := 0; i < len(config); i += 2 {
		run.Config = append(run.Config, runfmt.Config{Key: config[i], Value: config[i+1]})
	}
	return run
}

// p constructs a run like r, then projects it using s.
func p(t *testing.T, s *Projection, config ...string) Key {
	t.Helper()
	return s.Project(r(t, config...))
}

func TestProjectionBasic(t *testing.T) {
	check := func(key Key, want string) {
		t.Helper()
		got := key.String()
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	}

	var s *Projection

	s, _ = mustParse(t, "threads")
	check(p(t, s, "threads", "4", "method", "omp"), "threads:4")
	check(p(t, s, "method", "omp"), "") // Missing values are omitted
	check(p(t, s, "threads", "", "method", "omp"), "")

	s, _ = mustParse(t, "method,threads")
	check(p(t, s, "threads", "4", "method", "omp"), "method:omp threads:4")

	s, _ = mustParse(t, ".config")
	check(p(t, s, "a", "1", "b", "2"), "a:1 b:2")
	check(p(t, s, "c", "3"), "c:3")
	check(p(t, s, "c", "3", "a", "2"), "a:2 c:3")
}

func TestProjectionMetric(t *testing.T) {
	s, _ := mustParse(t, "time_ms")
	run := r(t, "threads", "1")
	run.Values = []runfmt.Value{{Name: "time_ms", Value: 2.5}}
	if got := s.Project(run).String(); got != "time_ms:2.5" {
		t.Errorf("got %s, want time_ms:2.5", got)
	}
}

func TestProjectionIntern(t *testing.T) {
	s, _ := mustParse(t, "a,b")

	c12 := p(t, s, "a", "1", "b", "2")

	if c12 != p(t, s, "a", "1", "b", "2") {
		t.Errorf("Keys should be equal")
	}
	if c12 == p(t, s, "a", "1", "b", "3") {
		t.Errorf("Keys should not be equal")
	}
	if c12 != p(t, s, "a", "1", "b", "2", "c", "3") {
		t.Errorf("Keys should be equal")
	}
	// Values must not run together.
	if p(t, s, "a", "1", "b", "23") == p(t, s, "a", "12", "b", "3") {
		t.Errorf("Keys should not be equal")
	}
}

func TestKeyGetConfig(t *testing.T) {
	s, _ := mustParse(t, "method,threads")
	k := p(t, s, "threads", "4", "method", "omp", "size", "100")
	if got := k.GetConfig("threads"); got != "4" {
		t.Errorf("GetConfig(threads) = %q, want 4", got)
	}
	if got := k.GetConfig("size"); got != "" {
		t.Errorf("GetConfig(size) = %q, want empty", got)
	}
	if got := k.StringValues(); got != "omp 4" {
		t.Errorf("StringValues = %q, want %q", got, "omp 4")
	}
	var zero Key
	if !zero.IsZero() || zero.GetConfig("threads") != "" || zero.String() != "<zero>" {
		t.Errorf("zero Key misbehaves")
	}
}

func fieldNames(fields []*Field) string {
	names := new(strings.Builder)
	for i, f := range fields {
		if i > 0 {
			names.WriteByte(' ')
		}
		names.WriteString(f.Name)
	}
	return names.String()
}

func TestProjectionParsing(t *testing.T) {
	check := func(proj string, want, wantFlat string) {
		t.Helper()
		s, _ := mustParse(t, proj)
		p(t, s, "a", "1", "b", "2", "c", "3")
		if got := fieldNames(s.Fields()); got != want {
			t.Errorf("%s: got fields %v, want %v", proj, got, want)
		}
		if got := fieldNames(s.FlattenedFields()); got != wantFlat {
			t.Errorf("%s: got flattened fields %v, want %v", proj, got, wantFlat)
		}
	}
	checkErr := func(proj, error string, pos int) {
		t.Helper()
		f, _ := NewFilter("*")
		_, err := (&ProjectionParser{}).Parse(proj, f)
		if se, _ := err.(*parse.SyntaxError); se == nil || se.Msg != error || se.Off != pos {
			t.Errorf("%s: want error %s at %d; got %s", proj, error, pos, err)
		}
	}

	check("a,b", "a b", "a b")
	check("b,.config", "b .config", "b a c")
	check(".config,b", ".config b", "a c b")
	checkErr("a@bogus", `unknown order "bogus"`, 2)
	checkErr(".config@(1 2)", "fixed order not allowed for .config", 8)
	checkErr(".name", "unknown key .name", 0)
}

func TestProjectionFixedFilter(t *testing.T) {
	s, f := mustParse(t, "method@(sequential omp)")
	for _, test := range []struct {
		method string
		want   bool
	}{
		{"sequential", true},
		{"omp", true},
		{"mpi", false},
	} {
		run := r(t, "method", test.method)
		if got := f.Match(run); got != test.want {
			t.Errorf("method:%s: got %v, want %v", test.method, got, test.want)
		}
	}
	p(t, s, "method", "omp")
}

func TestResidue(t *testing.T) {
	pp := &ProjectionParser{}
	f, _ := NewFilter("*")
	if _, err := pp.Parse("method,threads", f); err != nil {
		t.Fatal(err)
	}
	pp.Exclude("result")
	res := pp.Residue()

	k1 := res.Project(r(t, "method", "omp", "threads", "1", "size", "100", "result", "3.14"))
	k2 := res.Project(r(t, "method", "omp", "threads", "2", "size", "200", "result", "2.71"))
	k3 := res.Project(r(t, "method", "mpi", "threads", "1", "size", "100", "result", "1"))
	if got := k1.String(); got != "size:100" {
		t.Errorf("residue = %s, want size:100", got)
	}
	if k1 != k3 {
		t.Errorf("residues of runs differing only in projected keys should be equal")
	}
	if got := fieldNames(NonSingularFields([]Key{k1, k2, k3})); got != "size" {
		t.Errorf("NonSingularFields = %q, want size", got)
	}
	if got := NonSingularFields([]Key{k1, k3}); got != nil {
		t.Errorf("NonSingularFields of equal keys = %v, want nil", got)
	}
}
