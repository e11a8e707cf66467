// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/runmath"
	"github.com/haphop228/hpc-spbu-labs/runproc"
)

// A Stat summarizes the runs of one group.
type Stat struct {
	Key runproc.Key

	// Sample is the group's values, sorted.
	Sample *runmath.Sample

	// Desc holds the descriptive statistics of Sample.
	Desc runmath.Description

	// Summary is the center and confidence interval of Sample
	// under Assumption. Speedup is computed from Summary.Center.
	Summary    runmath.Summary
	Assumption runmath.Assumption

	// Check summarizes the check metric, if any runs of this
	// group had one.
	Check *runmath.Summary

	// Warnings lists problems with this group, such as runs that
	// differ in configuration outside the key.
	Warnings []error
}

// Summarize computes a Stat for every group in g, in the order of
// g.Keys. It does not modify g, so summarizing the same Groups again
// gives identical results.
func Summarize(g *Groups, assumption runmath.Assumption, confidence float64) []*Stat {
	stats := make([]*Stat, 0, len(g.Keys))
	for _, key := range g.Keys {
		vals := append([]float64(nil), g.Values[key]...)
		st := &Stat{
			Key:        key,
			Sample:     runmath.NewSample(vals, &runmath.DefaultThresholds),
			Assumption: assumption,
		}
		st.Desc = st.Sample.Describe()
		st.Summary = assumption.Summary(st.Sample, confidence)

		if checks := g.Checks[key]; len(checks) > 0 {
			cs := runmath.NewSample(append([]float64(nil), checks...), &runmath.DefaultThresholds)
			sum := runmath.AssumeExact.Summary(cs, 1)
			for _, w := range sum.Warnings {
				st.Warnings = append(st.Warnings, fmt.Errorf("%s: %w", g.Check, w))
			}
			st.Check = &sum
		}

		if nsk := runproc.NonSingularFields(g.residueKeys(key)); len(nsk) > 0 {
			var warn strings.Builder
			warn.WriteString("runs vary in ")
			for i, field := range nsk {
				if i > 0 {
					warn.WriteString(", ")
				}
				warn.WriteString(field.Name)
			}
			st.Warnings = append(st.Warnings, errors.New(warn.String()))
		}
		stats = append(stats, st)
	}
	return stats
}
