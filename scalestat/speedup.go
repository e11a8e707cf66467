// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runmath"
	"github.com/haphop228/hpc-spbu-labs/runproc"
)

// A Status records whether a usable baseline was found for a group.
type Status string

const (
	// StatusOK means speedup and efficiency are computed from the
	// baseline.
	StatusOK Status = "ok"
	// StatusMissing means no group in the scope matched the
	// baseline filter. Speedup and efficiency hold the sentinel.
	StatusMissing Status = "missing"
	// StatusZero means the baseline center is zero. Speedup and
	// efficiency hold the sentinel.
	StatusZero Status = "zero"
)

// An Enriched is a Stat related to the baseline of its scope.
type Enriched struct {
	*Stat

	// Scope is the projection of Key onto the baseline scope
	// fields. It is the zero Key if there are no scope fields.
	Scope runproc.Key

	// Baseline is the baseline Stat of Scope, or nil.
	Baseline *Stat
	// IsBaseline reports whether this Stat is its own baseline.
	IsBaseline bool
	// BaselineCenter is Baseline.Summary.Center, or NaN if there
	// is no baseline.
	BaselineCenter float64

	Speedup    float64
	Efficiency float64
	Status     Status

	// Comparison tests this sample against the baseline sample.
	// It is only meaningful if HasComparison is set.
	Comparison    runmath.Comparison
	HasComparison bool

	// Best marks the group with the lowest center within its
	// best-by group.
	Best bool

	// Notes lists problems computing speedup or efficiency for
	// this group.
	Notes []error
}

// SpeedupOpts configures AttachSpeedup.
type SpeedupOpts struct {
	// Vary is the key field whose value divides speedup into
	// efficiency.
	Vary string

	// Per lists the key fields that scope the baseline. If nil,
	// it is every key field except Vary. If empty but non-nil,
	// all groups share one baseline.
	Per []string

	// Baseline selects the baseline group in each scope. If nil,
	// it matches Vary:1.
	Baseline *runproc.Filter

	// Sentinel is used for speedup and efficiency when a scope's
	// baseline is missing or zero.
	Sentinel float64
}

// AttachSpeedup relates each Stat to the baseline of its scope.
//
// For a group with center t in a scope whose baseline has center b,
// speedup is b/t and efficiency is speedup divided by the group's Vary
// value. The baseline itself has speedup exactly 1. If several groups
// of a scope match the baseline filter, the first in key order is used,
// with a warning unless the filter is "*". If none does, or its center is 0, every group of the scope gets
// opts.Sentinel for both values and a non-OK Status.
//
// stats should be sorted by key. The result is in the same order as
// stats. The returned warnings describe scope-level problems.
func AttachSpeedup(stats []*Stat, opts SpeedupOpts) ([]*Enriched, []error, error) {
	if len(stats) == 0 {
		return nil, nil, nil
	}

	fields := stats[0].Key.Projection().FlattenedFields()
	isKey := make(map[string]bool, len(fields))
	for _, f := range fields {
		isKey[f.Name] = true
	}
	if !isKey[opts.Vary] {
		return nil, nil, fmt.Errorf("varying field %q is not a key field", opts.Vary)
	}
	per := opts.Per
	if per == nil {
		per = []string{}
		for _, f := range fields {
			if f.Name != opts.Vary {
				per = append(per, f.Name)
			}
		}
	}
	for _, name := range per {
		if !isKey[name] {
			return nil, nil, fmt.Errorf("baseline scope field %q is not a key field", name)
		}
		if name == opts.Vary {
			return nil, nil, fmt.Errorf("baseline scope cannot include varying field %q", name)
		}
	}

	scopeOf := func(runproc.Key) runproc.Key { return runproc.Key{} }
	if len(per) > 0 {
		var pp runproc.ProjectionParser
		proj, err := pp.Parse(strings.Join(per, ","), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing baseline scope: %w", err)
		}
		scopeOf = func(k runproc.Key) runproc.Key {
			return proj.Project(keyRun(k))
		}
	}

	baseline := opts.Baseline
	if baseline == nil {
		var err error
		baseline, err = runproc.NewFilter(opts.Vary + ":1")
		if err != nil {
			return nil, nil, err
		}
	}

	type scope struct {
		members []*Enriched
		base    *Stat
		nMatch  int
	}
	scopes := make(map[runproc.Key]*scope)
	var order []runproc.Key
	out := make([]*Enriched, len(stats))
	for i, st := range stats {
		sk := scopeOf(st.Key)
		sc := scopes[sk]
		if sc == nil {
			sc = new(scope)
			scopes[sk] = sc
			order = append(order, sk)
		}
		e := &Enriched{Stat: st, Scope: sk, BaselineCenter: math.NaN()}
		out[i] = e
		sc.members = append(sc.members, e)
		if baseline.Match(st.Key) {
			sc.nMatch++
			if sc.base == nil || st.Key.Less(sc.base.Key) {
				sc.base = st
			}
		}
	}

	var warnings []error
	for _, sk := range order {
		sc := scopes[sk]
		name := scopeName(sk)

		status := StatusOK
		switch {
		case sc.base == nil:
			status = StatusMissing
			warnings = append(warnings, fmt.Errorf("%s: no group matches baseline %s; using %v", name, baseline, opts.Sentinel))
		case sc.base.Summary.Center == 0:
			status = StatusZero
			warnings = append(warnings, fmt.Errorf("%s: baseline %s has zero center; using %v", name, sc.base.Key, opts.Sentinel))
		case sc.nMatch > 1 && baseline.String() != "*":
			warnings = append(warnings, fmt.Errorf("%s: %d groups match baseline %s; using %s", name, sc.nMatch, baseline, sc.base.Key))
		}

		for _, e := range sc.members {
			e.Status = status
			e.Baseline = sc.base
			e.IsBaseline = e.Stat == sc.base
			if status != StatusOK {
				e.Speedup, e.Efficiency = opts.Sentinel, opts.Sentinel
				continue
			}
			e.BaselineCenter = sc.base.Summary.Center
			if e.IsBaseline {
				e.Speedup = 1
			} else {
				e.Speedup = e.BaselineCenter / e.Summary.Center
				if e.Summary.Center == 0 {
					e.Notes = append(e.Notes, fmt.Errorf("zero center; speedup is infinite"))
				}
				e.Comparison = e.Assumption.Compare(sc.base.Sample, e.Sample)
				e.HasComparison = true
			}

			vary := e.Key.GetConfig(opts.Vary)
			v, err := strconv.ParseFloat(vary, 64)
			if err != nil || !(v > 0) || math.IsInf(v, 0) {
				e.Efficiency = 0
				e.Notes = append(e.Notes, fmt.Errorf("%s=%q is not a positive number; efficiency is 0", opts.Vary, vary))
				continue
			}
			e.Efficiency = e.Speedup / v
		}
	}
	return out, warnings, nil
}

// keyRun returns a Run whose configuration is the non-empty fields of
// k, so k can be projected again.
func keyRun(k runproc.Key) *runfmt.Run {
	r := new(runfmt.Run)
	for _, f := range k.Projection().FlattenedFields() {
		if v := k.Get(f); v != "" {
			r.Config = append(r.Config, runfmt.Config{Key: f.Name, Value: v})
		}
	}
	return r
}

func scopeName(k runproc.Key) string {
	if k.IsZero() {
		return "all groups"
	}
	if s := k.String(); s != "" {
		return s
	}
	return "empty scope"
}

// MarkBest marks, within each group of es that agrees on the bestBy
// fields, the Enriched with the lowest center. Ties go to the earliest.
// If bestBy is empty, the whole set is one group; if it is nil, nothing
// is marked.
func MarkBest(es []*Enriched, bestBy []string) error {
	if bestBy == nil || len(es) == 0 {
		return nil
	}
	byName := make(map[string]*runproc.Field)
	for _, f := range es[0].Key.Projection().FlattenedFields() {
		byName[f.Name] = f
	}
	fields := make([]*runproc.Field, len(bestBy))
	for i, name := range bestBy {
		f, ok := byName[name]
		if !ok {
			return fmt.Errorf("best-by field %q is not a key field", name)
		}
		fields[i] = f
	}

	best := make(map[string]*Enriched)
	var groups []string
	var buf strings.Builder
	for _, e := range es {
		buf.Reset()
		for _, f := range fields {
			buf.WriteString(e.Key.Get(f))
			buf.WriteByte(0)
		}
		g := buf.String()
		cur, ok := best[g]
		if !ok {
			groups = append(groups, g)
		}
		if !ok || e.Summary.Center < cur.Summary.Center {
			best[g] = e
		}
	}
	for _, g := range groups {
		best[g].Best = true
	}
	return nil
}
