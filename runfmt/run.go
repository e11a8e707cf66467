// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt reads and writes tabular benchmark run records.
//
// A run record is one observed measurement: a set of configuration
// dimensions (thread count, method, problem size, schedule, ...) and
// one or more numeric metrics, the first of which is the timing being
// analyzed. Records come from delimited text tables with a header row
// or from newline-delimited JSON objects.
//
// The reader is structured as a streaming operation modeled on
// bufio.Scanner. It is lenient: lines that cannot be parsed are
// reported as *SyntaxError records and reading continues.
package runfmt

// A Run is a single benchmark measurement and its configuration.
type Run struct {
	// Config is the ordered set of configuration dimensions of
	// this run, in input column order. Callers must use SetConfig
	// to add or delete keys, but may modify values in place.
	Config []Config

	// Values is the ordered set of metric values of this run. The
	// first value is the primary metric.
	Values []Value

	// configPos maps from Config.Key to index in Config. This
	// may be nil, which indicates the index needs to be
	// constructed.
	configPos map[string]int

	// fileName and line record where this Run was read from.
	fileName string
	line     int
}

// A Config is a single configuration dimension of a run.
type Config struct {
	Key   string
	Value string
}

// A Value is a single metric of a run.
type Value struct {
	Name  string
	Value float64
}

// Pos returns the file name and line number of a Run that was read by
// a Reader. For Runs that were not read from a file, it returns "", 0.
func (r *Run) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// Clone makes a copy of r that shares no state with r.
func (r *Run) Clone() *Run {
	return &Run{
		Config:   append([]Config(nil), r.Config...),
		Values:   append([]Value(nil), r.Values...),
		fileName: r.fileName,
		line:     r.line,
	}
}

// SetConfig sets configuration key to value, overriding or adding the
// configuration as necessary. If value is "", SetConfig deletes key.
// Deleting a key preserves the order of the remaining keys.
func (r *Run) SetConfig(key, value string) {
	pos, ok := r.ConfigIndex(key)
	if value == "" {
		if !ok {
			return
		}
		r.Config = append(r.Config[:pos], r.Config[pos+1:]...)
		r.configPos = nil
		return
	}
	if ok {
		r.Config[pos].Value = value
		return
	}
	r.configPos[key] = len(r.Config)
	r.Config = append(r.Config, Config{key, value})
}

// GetConfig returns the value of a configuration key, or "" if not
// present.
func (r *Run) GetConfig(key string) string {
	pos, ok := r.ConfigIndex(key)
	if !ok {
		return ""
	}
	return r.Config[pos].Value
}

// ConfigIndex returns the index in r.Config of key.
func (r *Run) ConfigIndex(key string) (pos int, ok bool) {
	if r.configPos == nil {
		r.configPos = make(map[string]int, len(r.Config))
		for i, cfg := range r.Config {
			r.configPos[cfg.Key] = i
		}
	}
	pos, ok = r.configPos[key]
	return
}

// Value returns the metric with the given name.
func (r *Run) Value(name string) (float64, bool) {
	for _, v := range r.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Primary returns the primary metric of r, which is the first of
// r.Values.
func (r *Run) Primary() (Value, bool) {
	if len(r.Values) == 0 {
		return Value{}, false
	}
	return r.Values[0], true
}
