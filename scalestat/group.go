// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"strconv"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc"
)

// GroupOpts configures Group.
type GroupOpts struct {
	// Metric is the metric to collect. If empty, each run's
	// primary metric is used.
	Metric string

	// Check, if non-empty, is a secondary metric collected
	// alongside Metric.
	Check string

	// Residue, if non-nil, projects the configuration not covered
	// by the key. Groups whose runs differ in residue get a
	// warning from Summarize.
	Residue *runproc.Projection
}

// Groups is a set of runs grouped by key.
type Groups struct {
	// Keys lists the group keys in the order they were first
	// observed.
	Keys []runproc.Key

	// Values maps each key to its metric values in input order.
	Values map[runproc.Key][]float64

	// Checks maps each key to its check metric values, if a check
	// metric was requested. Runs without the check metric
	// contribute nothing.
	Checks map[runproc.Key][]float64

	// Metric is the name of the collected metric. If GroupOpts
	// did not name one, this is the primary metric of the first
	// run.
	Metric string

	// Check is the name of the check metric, or "".
	Check string

	// Missing counts runs that had no value for Metric.
	Missing int

	residues map[runproc.Key]map[runproc.Key]struct{}
}

// Group groups runs by the Key that by projects from each of them.
// Grouping is deterministic and keeps every value.
func Group(runs []*runfmt.Run, by *runproc.Projection, opts GroupOpts) *Groups {
	g := &Groups{
		Values:   make(map[runproc.Key][]float64),
		Metric:   opts.Metric,
		Check:    opts.Check,
		residues: make(map[runproc.Key]map[runproc.Key]struct{}),
	}
	if opts.Check != "" {
		g.Checks = make(map[runproc.Key][]float64)
	}

	for _, run := range runs {
		var val float64
		if opts.Metric == "" {
			prim, ok := run.Primary()
			if !ok {
				g.Missing++
				continue
			}
			if g.Metric == "" {
				g.Metric = prim.Name
			}
			val = prim.Value
		} else {
			v, ok := run.Value(opts.Metric)
			if !ok {
				g.Missing++
				continue
			}
			val = v
		}

		key := by.Project(run)
		vals, ok := g.Values[key]
		if !ok {
			g.Keys = append(g.Keys, key)
			g.residues[key] = make(map[runproc.Key]struct{})
		}
		g.Values[key] = append(vals, val)

		if opts.Check != "" {
			if v, ok := checkValue(run, opts.Check); ok {
				g.Checks[key] = append(g.Checks[key], v)
			}
		}
		if opts.Residue != nil {
			g.residues[key][opts.Residue.Project(run)] = struct{}{}
		}
	}
	return g
}

// checkValue returns the value of the check metric of run. Inputs that
// did not declare the check as a metric carry it as configuration.
func checkValue(run *runfmt.Run, name string) (float64, bool) {
	if v, ok := run.Value(name); ok {
		return v, true
	}
	v, err := strconv.ParseFloat(run.GetConfig(name), 64)
	return v, err == nil
}

// residueKeys returns the distinct residues of the group key, sorted.
func (g *Groups) residueKeys(key runproc.Key) []runproc.Key {
	var keys []runproc.Key
	for k := range g.residues[key] {
		keys = append(keys, k)
	}
	runproc.SortKeys(keys)
	return keys
}
