// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ToCSV renders r as a single CSV table with one row per group.
//
// Warnings are written to a separate stream so as not to interrupt the
// regular format of the CSV table. Each is prefixed with the
// spreadsheet-style reference of the row it belongs to.
func (r *Result) ToCSV(w, warnings io.Writer) error {
	o := csv.NewWriter(w)
	if len(r.Stats) == 0 {
		o.Flush()
		return o.Error()
	}

	fields := r.Stats[0].Key.Projection().FlattenedFields()
	hdr := make([]string, 0, len(fields)+9)
	for _, f := range fields {
		hdr = append(hdr, f.Name)
	}
	hdr = append(hdr, r.Metric, "CI", "n", "speedup", "efficiency", "status", "vs base", "P", "best")
	o.Write(hdr)

	row := make([]string, 0, len(hdr))
	for i, e := range r.Stats {
		// The header is spreadsheet row 1.
		ref := fmt.Sprintf("A%d", i+2)
		for _, msgs := range [][]error{e.Warnings, e.Summary.Warnings, e.Notes, e.Comparison.Warnings} {
			for _, msg := range msgs {
				fmt.Fprintf(warnings, "%s: %s\n", ref, msg)
			}
		}

		row = row[:0]
		for _, f := range fields {
			row = append(row, e.Key.Get(f))
		}
		row = append(row,
			fmt.Sprint(e.Summary.Center),
			e.Summary.PctRangeString(),
			strconv.Itoa(e.Desc.N),
			fmt.Sprint(e.Speedup),
			fmt.Sprint(e.Efficiency),
			string(e.Status),
		)
		switch {
		case e.IsBaseline:
			row = append(row, "base", "")
		case e.HasComparison:
			row = append(row,
				e.Comparison.FormatDelta(e.BaselineCenter, e.Summary.Center),
				e.Comparison.String(),
			)
		default:
			row = append(row, "", "")
		}
		row = append(row, strconv.FormatBool(e.Best))
		o.Write(row)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(warnings, "%s\n", msg)
	}
	o.Flush()
	return o.Error()
}
