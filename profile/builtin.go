// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/rununit"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var builtin = sync.OnceValue(func() []*Profile {
	ents, err := builtinFS.ReadDir("builtin")
	if err != nil {
		panic(err)
	}
	var ps []*Profile
	for _, ent := range ents {
		name := path.Join("builtin", ent.Name())
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			panic(err)
		}
		p, err := Parse(bytes.NewReader(data), name)
		if err != nil {
			panic(err)
		}
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
})

// Builtin returns the builtin profiles sorted by name. The caller
// must not modify them.
func Builtin() []*Profile {
	return builtin()
}

// Lookup returns the builtin profile with the given name, or nil.
func Lookup(name string) *Profile {
	for _, p := range builtin() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Detect returns the builtin profile whose Detect columns all appear in
// columns. If several do, it returns the one with the most Detect
// columns. It returns nil if none match.
func Detect(columns []string) *Profile {
	have := make(map[string]bool)
	for _, c := range columns {
		have[c] = true
	}
	var best *Profile
outer:
	for _, p := range builtin() {
		if len(p.Detect) == 0 {
			continue
		}
		for _, c := range p.Detect {
			if !have[c] {
				continue outer
			}
		}
		if best == nil || len(p.Detect) > len(best.Detect) {
			best = p
		}
	}
	return best
}

// varyNames are the column names Generic accepts as the scaled field,
// in order of preference.
var varyNames = []string{
	"threads", "num_threads", "processes", "Processes", "num_procs", "Procs", "np",
}

// ignoreNames are columns that number the repetitions of a
// measurement or record its computed result.
var ignoreNames = map[string]bool{
	"iteration": true, "iter": true, "run": true, "rep": true, "repetition": true,
	"result": true, "result_value": true,
}

// Generic builds a profile for output no builtin profile recognizes.
// Columns other than metric become key fields, except repetition
// counters, results and other timings, which are ignored. The first
// thread or process count column is the scaled field, with its
// baseline at 1.
func Generic(columns []string, metric string) (*Profile, error) {
	p := &Profile{Name: "generic", Metric: metric}
	var keys []string
	for _, c := range columns {
		switch {
		case c == metric:
		case ignoreNames[c], isTiming(c):
			p.Ignore = append(p.Ignore, c)
		default:
			keys = append(keys, c)
		}
	}
	for _, name := range varyNames {
		if slices.Contains(keys, name) {
			p.Vary = name
			break
		}
	}
	if p.Vary == "" {
		return nil, fmt.Errorf("no thread or process count column (want one of %s)", strings.Join(varyNames, ", "))
	}
	// Keep the scaled field last so tables read down the thread
	// counts of each configuration.
	var proj []string
	for _, k := range keys {
		if k != p.Vary {
			proj = append(proj, k)
		}
	}
	proj = append(proj, p.Vary+"@num")
	p.Keys = strings.Join(proj, ",")
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// isTiming reports whether column c holds a duration, judging by its
// name.
func isTiming(c string) bool {
	unit := rununit.Of(c)
	if unit == "" {
		return false
	}
	_, tidied := rununit.Tidy(1, unit)
	return tidied == "s"
}

// Columns returns the configuration keys and metric names of runs in
// order of first appearance.
func Columns(runs []*runfmt.Run) []string {
	var cols []string
	seen := make(map[string]bool)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, run := range runs {
		for _, c := range run.Config {
			add(c.Key)
		}
		for _, v := range run.Values {
			add(v.Name)
		}
	}
	return cols
}

// Choose returns the builtin profile detected from the columns of runs,
// or a generic profile for their primary metric.
func Choose(runs []*runfmt.Run) (*Profile, error) {
	cols := Columns(runs)
	if p := Detect(cols); p != nil {
		return p, nil
	}
	var metric string
	if len(runs) > 0 && len(runs[0].Values) > 0 {
		metric = runs[0].Values[0].Name
	}
	return Generic(cols, metric)
}
