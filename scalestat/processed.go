// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"fmt"
	"io"
	"math"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
)

// statusColumn is the processed column holding each row's Status.
const statusColumn = "status"

// A Row is one line of a processed file: a group's key, its
// descriptive statistics and its relation to the baseline.
type Row struct {
	// Key is the group's key fields in projection order. Fields
	// the group does not have are present with an empty value.
	Key []runfmt.Config

	Status Status

	Mean, Median, StdDev, Min, Max float64
	N                              int

	Speedup, Efficiency float64

	// BaselineCenter is the center of the baseline group, or NaN
	// if there is none.
	BaselineCenter float64

	Best bool

	// Check is the usual value of the check metric, or NaN.
	Check float64
}

// Columns names the metric-derived columns of a processed file.
type Columns struct {
	// Metric is the analyzed metric. Statistic columns are named
	// after it, as in "mean_execution_time_ms".
	Metric string
	// Check, if non-empty, adds a column with the check metric.
	Check string
}

// Names returns the numeric column names in file order.
func (c Columns) Names() []string {
	m := c.Metric
	names := []string{
		"mean_" + m, "median_" + m, "std_" + m, "min_" + m, "max_" + m,
		"num_runs", "speedup", "efficiency", "baseline_" + m, "best",
	}
	if c.Check != "" {
		names = append(names, c.Check)
	}
	return names
}

// checkKeys returns an error if a key field would share its name with
// a processed column.
func (c Columns) checkKeys(keys []string) error {
	taken := map[string]bool{statusColumn: true}
	for _, name := range c.Names() {
		taken[name] = true
	}
	for _, k := range keys {
		if taken[k] {
			return fmt.Errorf("key field %q has the name of a processed column", k)
		}
	}
	return nil
}

// Columns returns the processed columns of r.
func (r *Result) Columns() Columns {
	return Columns{Metric: r.Metric, Check: r.Config.Check}
}

// Rows returns the processed rows of r in key order.
func (r *Result) Rows() []*Row {
	rows := make([]*Row, 0, len(r.Stats))
	for _, e := range r.Stats {
		row := &Row{
			Status:         e.Status,
			Mean:           e.Desc.Mean,
			Median:         e.Desc.Median,
			StdDev:         e.Desc.StdDev,
			Min:            e.Desc.Min,
			Max:            e.Desc.Max,
			N:              e.Desc.N,
			Speedup:        e.Speedup,
			Efficiency:     e.Efficiency,
			BaselineCenter: e.BaselineCenter,
			Best:           e.Best,
			Check:          math.NaN(),
		}
		for _, f := range e.Key.Projection().FlattenedFields() {
			row.Key = append(row.Key, runfmt.Config{Key: f.Name, Value: e.Key.Get(f)})
		}
		if e.Check != nil {
			row.Check = e.Check.Center
		}
		rows = append(rows, row)
	}
	return rows
}

func (row *Row) run(cols Columns) *runfmt.Run {
	var best float64
	if row.Best {
		best = 1
	}
	vals := []float64{
		row.Mean, row.Median, row.StdDev, row.Min, row.Max,
		float64(row.N), row.Speedup, row.Efficiency, row.BaselineCenter, best,
	}
	if cols.Check != "" {
		vals = append(vals, row.Check)
	}
	run := &runfmt.Run{Config: make([]runfmt.Config, 0, len(row.Key)+1)}
	run.Config = append(run.Config, row.Key...)
	run.Config = append(run.Config, runfmt.Config{Key: statusColumn, Value: string(row.Status)})
	for i, name := range cols.Names() {
		run.Values = append(run.Values, runfmt.Value{Name: name, Value: vals[i]})
	}
	return run
}

func rowOf(run *runfmt.Run, cols Columns) *Row {
	get := func(name string) float64 {
		if v, ok := run.Value(name); ok {
			return v
		}
		return math.NaN()
	}
	m := cols.Metric
	row := &Row{
		Status:         Status(run.GetConfig(statusColumn)),
		Mean:           get("mean_" + m),
		Median:         get("median_" + m),
		StdDev:         get("std_" + m),
		Min:            get("min_" + m),
		Max:            get("max_" + m),
		N:              int(get("num_runs")),
		Speedup:        get("speedup"),
		Efficiency:     get("efficiency"),
		BaselineCenter: get("baseline_" + m),
		Best:           get("best") == 1,
		Check:          math.NaN(),
	}
	if cols.Check != "" {
		row.Check = get(cols.Check)
	}
	for _, cfg := range run.Config {
		if cfg.Key != statusColumn {
			row.Key = append(row.Key, cfg)
		}
	}
	return row
}

// WriteProcessed writes the processed rows of res to w as a CSV table
// or as a JSON array with one object per line.
func WriteProcessed(w io.Writer, format runfmt.Format, res *Result) error {
	if format != runfmt.FormatCSV && format != runfmt.FormatJSON {
		return fmt.Errorf("cannot write processed output as %v", format)
	}
	cols := res.Columns()
	pw := runfmt.NewWriter(w, format)
	for _, row := range res.Rows() {
		if err := pw.Write(row.run(cols)); err != nil {
			return err
		}
	}
	return pw.Close()
}

// ReadProcessed reads rows written by WriteProcessed. name is used in
// error messages. Unlike raw inputs, a processed file must be
// well-formed: any malformed line is an error.
func ReadProcessed(r io.Reader, name string, format runfmt.Format, cols Columns) ([]*Row, error) {
	rd := runfmt.NewReader(r, name, runfmt.ReaderOpts{Format: format, Metrics: cols.Names()})
	var rows []*Row
	for rd.Scan() {
		switch rec := rd.Record().(type) {
		case *runfmt.SyntaxError:
			return nil, rec
		case *runfmt.Run:
			rows = append(rows, rowOf(rec, cols))
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProcessedPath returns the path of the processed file for the input
// file at path, such as "results_processed.csv" for "results.csv".
func ProcessedPath(path string) string {
	return runfmt.ProcessedPath(path)
}
