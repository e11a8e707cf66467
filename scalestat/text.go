// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/internal/texttab"
	"github.com/haphop228/hpc-spbu-labs/runproc"
	"github.com/haphop228/hpc-spbu-labs/rununit"
)

// ToText renders r as one fixed-width table per baseline scope,
// followed by the warnings that do not belong to a single group.
func (r *Result) ToText(w io.Writer) error {
	var prev runproc.Key
	for i, scope := range r.Scopes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		// Print scope fields that changed from the previous table.
		if !scope.IsZero() {
			for _, f := range scope.Projection().FlattenedFields() {
				val := scope.Get(f)
				if prev.IsZero() || val != prev.Get(f) {
					if _, err := fmt.Fprintf(w, "%s: %s\n", f.Name, val); err != nil {
						return err
					}
				}
			}
		}
		prev = scope

		if err := r.scopeToText(w, r.InScope(scope)); err != nil {
			return err
		}
	}

	for _, warn := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warn); err != nil {
			return err
		}
	}
	return nil
}

// InScope returns the Stats of r in scope, in key order.
func (r *Result) InScope(scope runproc.Key) []*Enriched {
	var es []*Enriched
	for _, e := range r.Stats {
		if e.Scope == scope {
			es = append(es, e)
		}
	}
	return es
}

// displayFields returns the key fields that vary within a scope.
func displayFields(e *Enriched) []*runproc.Field {
	inScope := make(map[string]bool)
	if !e.Scope.IsZero() {
		for _, f := range e.Scope.Projection().FlattenedFields() {
			inScope[f.Name] = true
		}
	}
	var fields []*runproc.Field
	for _, f := range e.Key.Projection().FlattenedFields() {
		if !inScope[f.Name] {
			fields = append(fields, f)
		}
	}
	return fields
}

func (r *Result) scopeToText(w io.Writer, es []*Enriched) error {
	if len(es) == 0 {
		return nil
	}
	var o texttab.Table
	fields := displayFields(es[0])
	sep := texttab.LeftMargin("  ")

	var warningList []string
	warningSet := make(map[string]int)
	footnotes := func(msgs ...[]error) string {
		var marks []string
		for _, msgs1 := range msgs {
			for _, msg := range msgs1 {
				s := msg.Error()
				i, ok := warningSet[s]
				if !ok {
					i = len(warningList)
					warningSet[s] = i
					warningList = append(warningList, s)
				}
				marks = append(marks, superscript(i+1))
			}
		}
		return strings.Join(marks, " ")
	}

	// Header.
	o.Row()
	for _, f := range fields {
		o.Cell(f.Name)
	}
	o.Span(2, r.Metric, sep)
	o.Cell("n", texttab.Right, sep)
	o.Cell("speedup", texttab.Right, sep)
	o.Cell("efficiency", texttab.Right, sep)
	o.Span(2, "vs base", sep)
	o.Rule('-')

	// Display centers in base units with a common prefix.
	var centers []float64
	for _, e := range es {
		centers = append(centers, e.Summary.Center)
	}
	unit := rununit.TidyAll(centers, r.Unit)
	scaler := rununit.CommonScale(centers, rununit.ClassOf(unit))

	for i, e := range es {
		o.Row()
		for _, f := range fields {
			o.Cell(e.Key.Get(f))
		}
		o.Cell(scaler.FormatUnit(centers[i], unit), texttab.Right, sep)
		o.Cell(e.Summary.PctRangeString(), texttab.Right, texttab.LeftMargin(" ± "))
		o.Cell(strconv.Itoa(e.Desc.N), texttab.Right, sep)
		o.Cell(formatRatio(e.Speedup), texttab.Right, sep)
		o.Cell(formatRatio(e.Efficiency), texttab.Right, sep)
		switch {
		case e.IsBaseline:
			o.Cell("base", texttab.Right, sep).Cell("")
		case e.HasComparison:
			o.Cell(e.Comparison.FormatDelta(e.BaselineCenter, e.Summary.Center), texttab.Right, sep)
			o.Cell("(" + e.Comparison.String() + ")")
		default:
			o.Cell("", sep).Cell("")
		}

		var notes []string
		if e.Best {
			notes = append(notes, "best")
		}
		switch e.Status {
		case StatusMissing:
			notes = append(notes, "no baseline")
		case StatusZero:
			notes = append(notes, "zero baseline")
		}
		if fn := footnotes(e.Warnings, e.Summary.Warnings, e.Notes, e.Comparison.Warnings); fn != "" {
			notes = append(notes, fn)
		}
		o.Cell(strings.Join(notes, " "), sep)
	}

	if err := o.Format(w); err != nil {
		return err
	}
	for i, msg := range warningList {
		if _, err := fmt.Fprintf(w, "%s %s\n", superscript(i+1), msg); err != nil {
			return err
		}
	}
	return nil
}

// formatRatio formats a speedup or efficiency.
func formatRatio(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsNaN(v):
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var superDigits = []rune("⁰¹²³⁴⁵⁶⁷⁸⁹")

func superscript(i int) string {
	if i == 0 {
		return string(superDigits[0])
	}

	var buf [20]rune
	pos := len(buf)
	for i > 0 && pos > 0 {
		pos--
		buf[pos] = superDigits[i%10]
		i /= 10
	}
	return string(buf[pos:])
}
