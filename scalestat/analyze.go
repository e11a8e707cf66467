// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"fmt"
	"sort"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc"
	"github.com/haphop228/hpc-spbu-labs/rununit"
)

// A Result is the outcome of analyzing a set of runs.
type Result struct {
	Config Config

	// Metric is the analyzed metric and Unit its unit, as
	// inferred from the metric name.
	Metric string
	Unit   string

	// Stats holds one entry per group, sorted by key.
	Stats []*Enriched

	// Scopes lists the distinct baseline scopes of Stats in
	// order.
	Scopes []runproc.Key

	// Runs is the number of runs that were grouped.
	Runs int

	// Warnings lists problems that do not belong to a single
	// group.
	Warnings []error
}

// Analyze groups runs by cfg.Keys, summarizes each group and relates it
// to its baseline. The runs themselves are not modified.
func Analyze(runs []*runfmt.Run, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filterExpr := cfg.Filter
	if filterExpr == "" {
		filterExpr = "*"
	}
	filter, err := runproc.NewFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}
	var pp runproc.ProjectionParser
	keys, err := pp.Parse(cfg.Keys, filter)
	if err != nil {
		return nil, fmt.Errorf("parsing keys: %w", err)
	}
	baseline, err := runproc.NewFilter(cfg.baseline())
	if err != nil {
		return nil, fmt.Errorf("parsing baseline: %w", err)
	}
	if cfg.Check != "" {
		pp.Exclude(cfg.Check)
	}
	pp.Exclude(cfg.Ignore...)
	residue := pp.Residue()

	res := &Result{Config: cfg}
	selected := filter.Apply(append([]*runfmt.Run(nil), runs...))
	if cfg.Filter != "" && len(runs) > 0 && len(selected) == 0 {
		res.Warnings = append(res.Warnings, fmt.Errorf("no runs match %s", cfg.Filter))
	}

	groups := Group(selected, keys, GroupOpts{Metric: cfg.Metric, Check: cfg.Check, Residue: residue})
	res.Metric = groups.Metric
	res.Unit = rununit.Of(res.Metric)
	var keyNames []string
	for _, f := range keys.FlattenedFields() {
		keyNames = append(keyNames, f.Name)
	}
	if err := res.Columns().checkKeys(keyNames); err != nil {
		return nil, err
	}
	res.Runs = len(selected) - groups.Missing
	if groups.Missing > 0 {
		res.Warnings = append(res.Warnings, fmt.Errorf("%d runs have no %s value", groups.Missing, res.Metric))
	}

	stats := Summarize(groups, cfg.Assumption(), cfg.Confidence)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Key.Less(stats[j].Key)
	})

	es, warnings, err := AttachSpeedup(stats, SpeedupOpts{
		Vary:     cfg.Vary,
		Per:      cfg.Per,
		Baseline: baseline,
		Sentinel: cfg.Sentinel,
	})
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	if err := MarkBest(es, cfg.BestBy); err != nil {
		return nil, err
	}
	res.Stats = es

	seen := make(map[runproc.Key]bool)
	for _, e := range es {
		if !seen[e.Scope] {
			seen[e.Scope] = true
			res.Scopes = append(res.Scopes, e.Scope)
		}
	}
	if len(res.Scopes) > 1 {
		runproc.SortKeys(res.Scopes)
	}
	return res, nil
}

// Lookup returns the Enriched whose key has the given field values, or
// nil. It is a convenience for callers that know the key they want,
// such as tests.
func (r *Result) Lookup(fields map[string]string) *Enriched {
outer:
	for _, e := range r.Stats {
		for k, v := range fields {
			if e.Key.GetConfig(k) != v {
				continue outer
			}
		}
		return e
	}
	return nil
}
