// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"testing"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
)

func TestFilter(t *testing.T) {
	run := r(t, "method", "omp-static", "threads", "4", "schedule", "static")
	run.Values = []runfmt.Value{{Name: "execution_time_ms", Value: 12.5}}

	check := func(t *testing.T, query string, want bool) {
		t.Helper()
		f, err := NewFilter(query)
		if err != nil {
			t.Fatal(err)
		}
		if got := f.Match(run); got != want {
			t.Errorf("%s: got %v, want %v", query, got, want)
		}
	}

	t.Run("basic", func(t *testing.T) {
		check(t, "*", true)
		check(t, "-*", false)
		check(t, "threads:4", true)
		check(t, "threads:1", false)
		check(t, "method:omp-static", true)
		check(t, "missing:x", false)
		check(t, `missing:""`, true)
	})

	t.Run("numeric", func(t *testing.T) {
		check(t, "threads>1", true)
		check(t, "threads>4", false)
		check(t, "threads>=4", true)
		check(t, "threads<8", true)
		check(t, "method<8", false)
		check(t, "execution_time_ms<20", true)
		check(t, "execution_time_ms:12.5", true)
	})

	t.Run("logic", func(t *testing.T) {
		check(t, "threads:4 schedule:static", true)
		check(t, "threads:4 schedule:dynamic", false)
		check(t, "threads:1 OR schedule:static", true)
		check(t, "-threads:1", true)
		check(t, "-(threads:4 OR threads:8)", false)
		check(t, "schedule:(dynamic OR static)", true)
		check(t, "method:/^omp/", true)
		check(t, "method:/^mpi/", false)
	})
}

func TestFilterKey(t *testing.T) {
	s, _ := mustParse(t, "method,threads")
	k := p(t, s, "method", "sequential", "threads", "1")
	f, err := NewFilter("threads:1 method:(seq OR sequential)")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Match(k) {
		t.Errorf("filter should match Key %s", k)
	}
	if got := f.String(); got != "threads:1 method:(seq OR sequential)" {
		t.Errorf("String = %q", got)
	}
}

func TestFilterApply(t *testing.T) {
	runs := []*runfmt.Run{
		r(t, "threads", "1"),
		r(t, "threads", "2"),
		r(t, "threads", "4"),
	}
	f, err := NewFilter("threads>1")
	if err != nil {
		t.Fatal(err)
	}
	got := f.Apply(runs)
	if len(got) != 2 || got[0].GetConfig("threads") != "2" || got[1].GetConfig("threads") != "4" {
		t.Errorf("Apply kept %d runs", len(got))
	}
}

func TestFilterErrors(t *testing.T) {
	for _, query := range []string{".config:x", ".file:x", "threads:", "threads>x"} {
		if _, err := NewFilter(query); err == nil {
			t.Errorf("%s: want error", query)
		}
	}
}
